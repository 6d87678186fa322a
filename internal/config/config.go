package config

import "fmt"

const (
	RecognitionBackendCloudSpeech   = "cloud_speech"
	RecognitionBackendWhisperServer = "whisper_server"
)

type Config struct {
	Env                        string
	ListenAddr                 string
	DatabaseURL                string
	RecognitionBackend         string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	WhisperServerURL           string
	DefaultModel               string
	DefaultLanguage            string
	TranscriptWebhookURL       string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.RecognitionBackend {
	case RecognitionBackendCloudSpeech:
		if c.GoogleCloudProjectID == "" || c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and GOOGLE_CLOUD_CREDENTIALS_JSON are required when RECOGNITION_BACKEND=%s", RecognitionBackendCloudSpeech)
		}
	case RecognitionBackendWhisperServer:
		if c.WhisperServerURL == "" {
			return fmt.Errorf("WHISPER_SERVER_URL is required when RECOGNITION_BACKEND=%s", RecognitionBackendWhisperServer)
		}
	default:
		return fmt.Errorf("RECOGNITION_BACKEND must be %q or %q, got %q", RecognitionBackendCloudSpeech, RecognitionBackendWhisperServer, c.RecognitionBackend)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "RECOGNITION_BACKEND", value: c.RecognitionBackend},
		{name: "DEFAULT_MODEL", value: c.DefaultModel},
		{name: "DEFAULT_LANGUAGE", value: c.DefaultLanguage},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
