package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Fixed knowledge base and voice. These are not read from the settings file.
const (
	ProjectName    = "PubgQnA"
	DeploymentName = "production"
	VoiceName      = "en-US-AriaNeural"

	defaultSpeechLanguage = "en-US"
)

var ErrMissingSetting = errors.New("missing required setting")

// Settings holds the service connection parameters loaded once at startup.
type Settings struct {
	LanguageEndpoint      string `mapstructure:"LanguageEndpoint"`
	LanguageKey           string `mapstructure:"LanguageKey"`
	TextAnalyticsEndpoint string `mapstructure:"TextAnalyticsEndpoint"`
	TextAnalyticsKey      string `mapstructure:"TextAnalyticsKey"`
	SpeechKey             string `mapstructure:"SpeechKey"`
	SpeechLocation        string `mapstructure:"SpeechLocation"`
	SpeechLanguage        string `mapstructure:"SpeechLanguage"`
}

var envBindings = map[string]string{
	"LanguageEndpoint":      "LANGUAGE_ENDPOINT",
	"LanguageKey":           "LANGUAGE_KEY",
	"TextAnalyticsEndpoint": "TEXT_ANALYTICS_ENDPOINT",
	"TextAnalyticsKey":      "TEXT_ANALYTICS_KEY",
	"SpeechKey":             "SPEECH_KEY",
	"SpeechLocation":        "SPEECH_LOCATION",
	"SpeechLanguage":        "SPEECH_LANGUAGE",
}

// LoadSettings reads the JSON settings file at path. Values from the
// environment (and a .env file, if present) take precedence over the file.
func LoadSettings(path string) (*Settings, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", path, err)
	}

	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) normalize() {
	s.LanguageEndpoint = strings.TrimSpace(s.LanguageEndpoint)
	s.TextAnalyticsEndpoint = strings.TrimSpace(s.TextAnalyticsEndpoint)
	s.SpeechLocation = strings.TrimSpace(s.SpeechLocation)
	if strings.TrimSpace(s.SpeechLanguage) == "" {
		s.SpeechLanguage = defaultSpeechLanguage
	}
}

// Validate reports the first missing or malformed required setting.
func (s *Settings) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"LanguageEndpoint", s.LanguageEndpoint},
		{"LanguageKey", s.LanguageKey},
		{"TextAnalyticsEndpoint", s.TextAnalyticsEndpoint},
		{"TextAnalyticsKey", s.TextAnalyticsKey},
		{"SpeechKey", s.SpeechKey},
		{"SpeechLocation", s.SpeechLocation},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, r.name)
		}
	}

	for name, endpoint := range map[string]string{
		"LanguageEndpoint":      s.LanguageEndpoint,
		"TextAnalyticsEndpoint": s.TextAnalyticsEndpoint,
	} {
		u, err := url.Parse(endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an absolute URL", name, endpoint)
		}
	}
	return nil
}
