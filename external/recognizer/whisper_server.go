package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foxseedlab/kugirin/internal/chunking"
	"github.com/foxseedlab/kugirin/internal/recognizer"
)

const whisperServerHealthTimeout = 10 * time.Second

// WhisperServerEngine talks to an OpenAI-compatible transcription server
// (whisper.cpp server, faster-whisper-server and the like) over HTTP.
type WhisperServerEngine struct {
	baseURL string
	client  *http.Client
}

func NewWhisperServerEngine(baseURL string) recognizer.Engine {
	return &WhisperServerEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// LoadModel verifies the server is reachable. The server owns the model
// weights; "loading" from this side is a health check, so progress jumps
// straight to done.
func (e *WhisperServerEngine) LoadModel(ctx context.Context, modelID string, onProgress recognizer.LoadProgress) (recognizer.Model, error) {
	healthCtx, cancel := context.WithTimeout(ctx, whisperServerHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(healthCtx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper server unreachable: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("whisper server health check returned status %d", resp.StatusCode)
	}

	if onProgress != nil {
		onProgress(1.0)
	}
	slog.Info("whisper server ready", "url", e.baseURL, "model", modelID)
	return &whisperServerModel{
		baseURL: e.baseURL,
		client:  e.client,
		modelID: modelID,
	}, nil
}

type whisperServerModel struct {
	baseURL string
	client  *http.Client
	modelID string
}

type whisperVerboseResponse struct {
	Text  string `json:"text"`
	Words []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

func (m *whisperServerModel) Recognize(ctx context.Context, samples []float32, opts recognizer.RecognizeOptions) (*recognizer.Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(encodeWAV(samples, chunking.SampleRate)); err != nil {
		return nil, err
	}
	fields := map[string]string{
		"model":           m.modelID,
		"response_format": "verbose_json",
	}
	if opts.WordTimestamps {
		fields["timestamp_granularities[]"] = "word"
	}
	if opts.Language != "" {
		fields["language"] = opts.Language
	}
	if opts.Task != "" {
		fields["task"] = opts.Task
	}
	if opts.ChunkLengthSeconds > 0 {
		fields["chunk_length_s"] = strconv.FormatFloat(opts.ChunkLengthSeconds, 'f', -1, 64)
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("whisper server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var parsed whisperVerboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode transcription response: %w", err)
	}

	result := &recognizer.Result{Text: strings.TrimSpace(parsed.Text)}
	if len(parsed.Words) > 0 {
		for _, w := range parsed.Words {
			result.Words = append(result.Words, recognizer.Word{
				Text:  strings.TrimSpace(w.Word),
				Start: w.Start,
				End:   w.End,
			})
		}
		return result, nil
	}
	// Some servers ignore the word granularity; segment timings are the
	// best available fallback.
	for _, s := range parsed.Segments {
		result.Words = append(result.Words, recognizer.Word{
			Text:  strings.TrimSpace(s.Text),
			Start: s.Start,
			End:   s.End,
		})
	}
	return result, nil
}

func (m *whisperServerModel) Close() error {
	return nil
}
