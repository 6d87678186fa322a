package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foxseedlab/kugirin/internal/chunking"
	"github.com/foxseedlab/kugirin/internal/webhook"
)

func samplePayload() webhook.TranscriptWebhookPayload {
	return webhook.TranscriptWebhookPayload{
		SchemaVersion:        webhook.TranscriptWebhookSchemaVersion,
		RunID:                "run-1",
		Model:                "whisper-tiny.en",
		Language:             "en",
		AudioDurationSeconds: 45,
		ChunkCount:           2,
		WordCount:            2,
		Text:                 "hello world",
		Words: []chunking.Word{
			{Text: "hello", Timestamp: [2]float64{1, 1.4}},
			{Text: "world", Timestamp: [2]float64{31, 31.4}},
		},
		CompletedAt: "2026-08-31T12:00:00Z",
	}
}

func TestSendTranscript_EmptyWebhookURL(t *testing.T) {
	sender := NewHTTPSender("")
	if err := sender.SendTranscript(context.Background(), samplePayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestSendTranscript_Success(t *testing.T) {
	var got webhook.TranscriptWebhookPayload

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		mediaType := r.Header.Get("Content-Type")
		if !strings.HasPrefix(mediaType, "application/json") {
			t.Fatalf("unexpected content type: %s", mediaType)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendTranscript(context.Background(), samplePayload()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.RunID != "run-1" {
		t.Fatalf("unexpected run id: %s", got.RunID)
	}
	if got.Text != "hello world" {
		t.Fatalf("unexpected text: %s", got.Text)
	}
	if len(got.Words) != 2 || got.Words[1].Timestamp[0] != 31 {
		t.Fatalf("unexpected words: %+v", got.Words)
	}
	if got.SchemaVersion != webhook.TranscriptWebhookSchemaVersion {
		t.Fatalf("unexpected schema version: %d", got.SchemaVersion)
	}
}

func TestSendTranscript_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewHTTPSender(server.URL)
	if err := sender.SendTranscript(context.Background(), samplePayload()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
