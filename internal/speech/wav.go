package speech

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

// SampleRate is the capture and synthesis rate of all speech audio.
const SampleRate = 16000

const bitDepth = 16

var errInvalidWAV = errors.New("invalid WAV data")

// NewMonoBuffer wraps 16-bit samples captured at SampleRate.
func NewMonoBuffer(samples []int) *audio.IntBuffer {
	return &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: SampleRate, NumChannels: 1},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
}

// encodeWAV writes buf as a 16-bit PCM WAV file in memory.
func encodeWAV(buf *audio.IntBuffer) ([]byte, error) {
	// Emulate a file in RAM so that we don't have to create a real file.
	file := &writerseeker.WriterSeeker{}
	encoder := wav.NewEncoder(file, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)

	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("encoder write buffer: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoder close: %w", err)
	}

	wavData, err := io.ReadAll(file.Reader())
	if err != nil {
		return nil, fmt.Errorf("reading WAV file into memory: %w", err)
	}
	if len(wavData) == 0 {
		return nil, errors.New("WAV data is empty")
	}
	return wavData, nil
}

func decodeWAV(data []byte) (*audio.IntBuffer, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, errInvalidWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode WAV: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels == 0 {
		return nil, errInvalidWAV
	}
	return buf, nil
}
