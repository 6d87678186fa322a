package recognizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/api/option"

	"github.com/foxseedlab/kugirin/internal/chunking"
	"github.com/foxseedlab/kugirin/internal/recognizer"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	DefaultLanguage string
}

// CloudSpeechEngine recognizes through the Cloud Speech-to-Text v2 batch
// API. The model id is passed through as the cloud recognition model name.
type CloudSpeechEngine struct {
	projectID       string
	credentialsJSON string
	location        string
	defaultLanguage string
}

func NewCloudSpeechEngine(cfg CloudSpeechConfig) recognizer.Engine {
	return &CloudSpeechEngine{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		location:        strings.TrimSpace(cfg.Location),
		defaultLanguage: cfg.DefaultLanguage,
	}
}

func (e *CloudSpeechEngine) LoadModel(ctx context.Context, modelID string, onProgress recognizer.LoadProgress) (recognizer.Model, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(e.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	if onProgress != nil {
		onProgress(0.5)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if e.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", e.location, speechAPIEndpointPort)))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if onProgress != nil {
		onProgress(1.0)
	}
	slog.Info("cloud speech client ready", "location", e.location, "model", modelID)

	return &cloudSpeechModel{
		client:          client,
		recognizerName:  fmt.Sprintf("projects/%s/locations/%s/recognizers/_", e.projectID, e.location),
		model:           modelID,
		defaultLanguage: e.defaultLanguage,
	}, nil
}

type cloudSpeechModel struct {
	client          *speech.Client
	recognizerName  string
	model           string
	defaultLanguage string
}

func (m *cloudSpeechModel) Recognize(ctx context.Context, samples []float32, opts recognizer.RecognizeOptions) (*recognizer.Result, error) {
	language := opts.Language
	if language == "" {
		language = m.defaultLanguage
	}

	resp, err := m.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: m.recognizerName,
		Config: &speechpb.RecognitionConfig{
			Model:         m.model,
			LanguageCodes: []string{language},
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   chunking.SampleRate,
					AudioChannelCount: 1,
				},
			},
			Features: &speechpb.RecognitionFeatures{
				EnableWordTimeOffsets: opts.WordTimestamps,
			},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{Content: pcm16Bytes(samples)},
	})
	if err != nil {
		return nil, err
	}

	result := &recognizer.Result{}
	var textParts []string
	for _, r := range resp.GetResults() {
		if len(r.GetAlternatives()) == 0 {
			continue
		}
		alt := r.GetAlternatives()[0]
		textParts = append(textParts, strings.TrimSpace(alt.GetTranscript()))
		for _, w := range alt.GetWords() {
			result.Words = append(result.Words, recognizer.Word{
				Text:  w.GetWord(),
				Start: w.GetStartOffset().AsDuration().Seconds(),
				End:   w.GetEndOffset().AsDuration().Seconds(),
			})
		}
	}
	result.Text = strings.Join(textParts, " ")
	return result, nil
}

func (m *cloudSpeechModel) Close() error {
	return m.client.Close()
}
