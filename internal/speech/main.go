package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bz888/pubgqna/internal/cognitive"
	"github.com/bz888/pubgqna/internal/logger"
	"github.com/go-audio/audio"
)

const (
	recognitionPath = "/speech/recognition/conversation/cognitiveservices/v1"
	synthesisPath   = "/cognitiveservices/v1"

	recognitionContentType = "audio/wav; codecs=audio/pcm; samplerate=16000"
	synthesisOutputFormat  = "riff-16khz-16bit-mono-pcm"
)

// ResultReason is the outcome of a recognition or synthesis attempt.
type ResultReason int

const (
	ReasonRecognizedSpeech ResultReason = iota
	ReasonNoMatch
	ReasonCanceled
	ReasonSynthesizingAudioCompleted
)

func (r ResultReason) String() string {
	switch r {
	case ReasonRecognizedSpeech:
		return "RecognizedSpeech"
	case ReasonNoMatch:
		return "NoMatch"
	case ReasonCanceled:
		return "Canceled"
	case ReasonSynthesizingAudioCompleted:
		return "SynthesizingAudioCompleted"
	default:
		return "Unknown"
	}
}

type RecognitionResult struct {
	Reason ResultReason
	Text   string
	// Detail explains a non-success reason.
	Detail string
}

type SynthesisResult struct {
	Reason ResultReason
	Detail string
}

// AudioSource captures a single utterance. A nil or empty buffer means no
// speech was heard.
type AudioSource interface {
	Record(ctx context.Context) (*audio.IntBuffer, error)
}

// AudioSink plays a PCM buffer to completion.
type AudioSink interface {
	Play(ctx context.Context, buf *audio.IntBuffer) error
}

// VoiceDetector reports whether a buffer contains speech.
type VoiceDetector interface {
	DetectVoice(buf *audio.IntBuffer) (bool, error)
}

type Config struct {
	Key      string
	Region   string
	Language string
	Voice    string

	// Endpoints default to the public regional hosts.
	RecognitionEndpoint string
	SynthesisEndpoint   string
}

// Client talks to the hosted speech service. It is configured once and only
// read afterwards.
type Client struct {
	cfg    Config
	stt    *cognitive.Client
	tts    *cognitive.Client
	source AudioSource
	sink   AudioSink
	vad    VoiceDetector
	log    *logger.Logger
}

// NewClient builds a speech client that records from source and plays to
// sink. vad may be nil.
func NewClient(cfg Config, source AudioSource, sink AudioSink, vad VoiceDetector) (*Client, error) {
	if cfg.Key == "" || cfg.Region == "" {
		return nil, errors.New("speech key and region are required")
	}
	if cfg.RecognitionEndpoint == "" {
		cfg.RecognitionEndpoint = fmt.Sprintf("https://%s.stt.speech.microsoft.com", cfg.Region)
	}
	if cfg.SynthesisEndpoint == "" {
		cfg.SynthesisEndpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com", cfg.Region)
	}

	stt, err := cognitive.NewClient(cognitive.ClientConfig{
		Name:     "speech recognition",
		Endpoint: cfg.RecognitionEndpoint,
		Key:      cfg.Key,
	})
	if err != nil {
		return nil, err
	}
	tts, err := cognitive.NewClient(cognitive.ClientConfig{
		Name:     "speech synthesis",
		Endpoint: cfg.SynthesisEndpoint,
		Key:      cfg.Key,
	})
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:    cfg,
		stt:    stt,
		tts:    tts,
		source: source,
		sink:   sink,
		vad:    vad,
		log:    logger.NewLogger("speech"),
	}, nil
}

func (c *Client) Region() string {
	return c.cfg.Region
}

// recognitionResponse is the "simple" format of the short audio endpoint.
type recognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Offset            int64  `json:"Offset"`
	Duration          int64  `json:"Duration"`
}

// RecognizeOnce captures one utterance and transcribes it. It never retries.
func (c *Client) RecognizeOnce(ctx context.Context) RecognitionResult {
	buf, err := c.source.Record(ctx)
	if err != nil {
		c.log.Error("capture failed: ", err)
		return RecognitionResult{Reason: ReasonCanceled, Detail: err.Error()}
	}
	if buf == nil || len(buf.Data) == 0 {
		return RecognitionResult{Reason: ReasonNoMatch, Detail: "no speech detected"}
	}

	if c.vad != nil {
		detected, err := c.vad.DetectVoice(buf)
		if err != nil {
			c.log.Warn("detect voice: ", err)
		} else if !detected {
			c.log.Info("voice activity detector found no speech")
			return RecognitionResult{Reason: ReasonNoMatch, Detail: "no speech detected"}
		}
	}

	wavData, err := encodeWAV(buf)
	if err != nil {
		return RecognitionResult{Reason: ReasonCanceled, Detail: err.Error()}
	}
	c.log.Infof("WAV data length: %d bytes", len(wavData))

	query := url.Values{}
	query.Set("language", c.cfg.Language)
	query.Set("format", "simple")

	data, err := c.stt.Do(ctx, cognitive.Request{
		Method:      http.MethodPost,
		Path:        recognitionPath,
		Query:       query,
		ContentType: recognitionContentType,
		Body:        wavData,
		Header:      http.Header{"Accept": []string{"application/json"}},
	})
	if err != nil {
		c.log.Error("recognition request failed: ", err)
		return RecognitionResult{Reason: ReasonCanceled, Detail: err.Error()}
	}

	var resp recognitionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return RecognitionResult{Reason: ReasonCanceled, Detail: fmt.Sprintf("decode recognition response: %s", err)}
	}
	c.log.Info("recognition status: ", resp.RecognitionStatus, " text: ", resp.DisplayText)

	switch resp.RecognitionStatus {
	case "Success":
		if strings.TrimSpace(resp.DisplayText) == "" {
			return RecognitionResult{Reason: ReasonNoMatch, Detail: "empty transcript"}
		}
		return RecognitionResult{Reason: ReasonRecognizedSpeech, Text: resp.DisplayText}
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		return RecognitionResult{Reason: ReasonNoMatch, Detail: resp.RecognitionStatus}
	default:
		return RecognitionResult{Reason: ReasonCanceled, Detail: resp.RecognitionStatus}
	}
}

// SpeakText synthesizes plain text with the configured voice and plays it.
func (c *Client) SpeakText(ctx context.Context, text string) SynthesisResult {
	ssml := BuildSSML(text, c.cfg.Voice, c.cfg.Language)

	data, err := c.tts.Do(ctx, cognitive.Request{
		Method:      http.MethodPost,
		Path:        synthesisPath,
		ContentType: "application/ssml+xml",
		Body:        []byte(ssml),
		Header: http.Header{
			"X-Microsoft-OutputFormat": []string{synthesisOutputFormat},
			"User-Agent":               []string{"pubgqna"},
		},
	})
	if err != nil {
		c.log.Error("synthesis request failed: ", err)
		return SynthesisResult{Reason: ReasonCanceled, Detail: err.Error()}
	}

	buf, err := decodeWAV(data)
	if err != nil {
		return SynthesisResult{Reason: ReasonCanceled, Detail: err.Error()}
	}

	if err := c.sink.Play(ctx, buf); err != nil {
		c.log.Error("playback failed: ", err)
		return SynthesisResult{Reason: ReasonCanceled, Detail: err.Error()}
	}
	return SynthesisResult{Reason: ReasonSynthesizingAudioCompleted}
}
