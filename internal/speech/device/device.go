// Package device holds the audio hardware behind the speech client.
package device

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bz888/pubgqna/internal/logger"
	"github.com/bz888/pubgqna/internal/speech"
	"github.com/go-audio/audio"
	"github.com/gordonklaus/portaudio"
)

const (
	framesPerBuffer = 512
	minMicVolume    = 450

	// trailing silence that ends an utterance
	endOfSpeechDelay      = time.Second
	maxSegmentDuration    = time.Second * 25
	initialSilenceTimeout = time.Second * 5

	maxReadErrors = 10
)

var (
	_ speech.AudioSource = (*Microphone)(nil)
	_ speech.AudioSink   = (*Speaker)(nil)
)

// Microphone records one utterance from the default input device. The
// device is opened per call and released before Record returns.
type Microphone struct {
	log *logger.Logger
}

func NewMicrophone() *Microphone {
	return &Microphone{log: logger.NewLogger("microphone")}
}

func (m *Microphone) Record(ctx context.Context) (*audio.IntBuffer, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize audio: %w", err)
	}
	defer portaudio.Terminate()

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to get default input device: %w", err)
	}
	m.log.Info("Using default input device: ", device.Name)

	// Set up the audio stream parameters for LINEAR16 PCM
	in := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, speech.SampleRate, len(in), &in)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	var (
		begin      = time.Now()
		started    time.Time
		lastVoice  time.Time
		preRoll    []int
		samples    []int
		readErrors int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := stream.Read(); err != nil {
			readErrors++
			m.log.Warn("reading from stream: ", err)
			if readErrors >= maxReadErrors {
				return nil, fmt.Errorf("reading from stream: %w", err)
			}
			continue
		}

		now := time.Now()
		volume := calculateRMS16(in)
		if volume > minMicVolume {
			if started.IsZero() {
				started = now
				samples = append(samples, preRoll...)
			}
			lastVoice = now
		}

		if started.IsZero() {
			if now.Sub(begin) >= initialSilenceTimeout {
				m.log.Info("no speech before timeout")
				return nil, nil
			}
			preRoll = convertInt16ToInt(in)
			continue
		}

		samples = append(samples, convertInt16ToInt(in)...)
		m.log.Debug("listening... ", volume)

		if now.Sub(lastVoice) >= endOfSpeechDelay || now.Sub(started) >= maxSegmentDuration {
			break
		}
	}

	m.log.Infof("captured %d samples", len(samples))
	return speech.NewMonoBuffer(samples), nil
}

// Speaker plays PCM buffers on the default output device.
type Speaker struct {
	log *logger.Logger
}

func NewSpeaker() *Speaker {
	return &Speaker{log: logger.NewLogger("speaker")}
}

func (s *Speaker) Play(ctx context.Context, buf *audio.IntBuffer) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize audio: %w", err)
	}
	defer portaudio.Terminate()

	channels := buf.Format.NumChannels
	out := make([]int16, framesPerBuffer*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(buf.Format.SampleRate), framesPerBuffer, &out)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	for offset := 0; offset < len(buf.Data); offset += len(out) {
		if err := ctx.Err(); err != nil {
			return err
		}
		fillInt16(out, buf.Data[offset:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to stream: %w", err)
		}
	}
	s.log.Infof("played %d samples", len(buf.Data))
	return nil
}

// fillInt16 copies src into dst and zero pads the remainder.
func fillInt16(dst []int16, src []int) {
	n := copy16(dst, src)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

func copy16(dst []int16, src []int) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(src[i])
	}
	return n
}

func convertInt16ToInt(in []int16) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}

// calculateRMS16 calculates the root-mean-square of the audio buffer for int16 samples.
func calculateRMS16(buffer []int16) float64 {
	if len(buffer) == 0 {
		return 0
	}
	var sumSquares float64
	for _, sample := range buffer {
		val := float64(sample)
		sumSquares += val * val
	}
	return math.Sqrt(sumSquares / float64(len(buffer)))
}
