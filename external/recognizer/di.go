package recognizer

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/foxseedlab/kugirin/internal/config"
	"github.com/foxseedlab/kugirin/internal/recognizer"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (recognizer.Engine, error) {
		cfg := do.MustInvoke[*config.Config](i)
		switch cfg.RecognitionBackend {
		case config.RecognitionBackendCloudSpeech:
			return NewCloudSpeechEngine(CloudSpeechConfig{
				ProjectID:       cfg.GoogleCloudProjectID,
				CredentialsJSON: cfg.GoogleCloudCredentialsJSON,
				Location:        cfg.GoogleCloudSpeechLocation,
				DefaultLanguage: cfg.DefaultLanguage,
			}), nil
		case config.RecognitionBackendWhisperServer:
			return NewWhisperServerEngine(cfg.WhisperServerURL), nil
		default:
			return nil, fmt.Errorf("unknown recognition backend: %q", cfg.RecognitionBackend)
		}
	})
}
