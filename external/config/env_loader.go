package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	internalconfig "github.com/foxseedlab/kugirin/internal/config"
)

type envConfig struct {
	Env                        string `env:"ENV" envDefault:"production"`
	ListenAddr                 string `env:"LISTEN_ADDR" envDefault:":8090"`
	DatabaseURL                string `env:"DATABASE_URL,required"`
	RecognitionBackend         string `env:"RECOGNITION_BACKEND" envDefault:"whisper_server"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"asia-northeast1"`
	WhisperServerURL           string `env:"WHISPER_SERVER_URL"`
	DefaultModel               string `env:"DEFAULT_MODEL" envDefault:"whisper-tiny.en"`
	DefaultLanguage            string `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	TranscriptWebhookURL       string `env:"TRANSCRIPT_WEBHOOK_URL"`
}

func Load() (*internalconfig.Config, error) {
	// Populates process env from .env in development; missing file is fine.
	_ = godotenv.Load()

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		ListenAddr:                 raw.ListenAddr,
		DatabaseURL:                raw.DatabaseURL,
		RecognitionBackend:         raw.RecognitionBackend,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		WhisperServerURL:           raw.WhisperServerURL,
		DefaultModel:               raw.DefaultModel,
		DefaultLanguage:            raw.DefaultLanguage,
		TranscriptWebhookURL:       raw.TranscriptWebhookURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
