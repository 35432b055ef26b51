package device

import (
	"fmt"

	"github.com/bz888/pubgqna/internal/speech"
	"github.com/go-audio/audio"
	silero "github.com/streamer45/silero-vad-go/speech"
)

var _ speech.VoiceDetector = (*SileroDetector)(nil)

// SileroDetector gates recognition requests with the Silero voice activity
// model. See: https://github.com/snakers4/silero-vad
type SileroDetector struct {
	detector *silero.Detector
}

func NewSileroDetector(modelPath string) (*SileroDetector, error) {
	detector, err := silero.NewDetector(silero.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           speech.SampleRate,
		Threshold:            0.5,
		MinSilenceDurationMs: 100,
		SpeechPadMs:          30,
	})
	if err != nil {
		return nil, fmt.Errorf("creating silero detector: %w", err)
	}
	return &SileroDetector{detector: detector}, nil
}

func (s *SileroDetector) DetectVoice(buf *audio.IntBuffer) (bool, error) {
	segments, err := s.detector.Detect(normalizeInt16(buf.Data))
	if err != nil {
		return false, fmt.Errorf("detect voice: %w", err)
	}
	return len(segments) > 0, nil
}

func (s *SileroDetector) Close() error {
	return s.detector.Destroy()
}

// normalizeInt16 scales 16-bit samples into [-1, 1).
func normalizeInt16(samples []int) []float32 {
	out := make([]float32, len(samples))
	for i, v := range samples {
		out[i] = float32(v) / 32768
	}
	return out
}
