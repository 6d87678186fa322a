package recognizer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foxseedlab/kugirin/internal/recognizer"
)

func newWhisperTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/audio/transcriptions", handler)
	return httptest.NewServer(mux)
}

func TestLoadModel_HealthCheck(t *testing.T) {
	server := newWhisperTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	var fractions []float64
	engine := NewWhisperServerEngine(server.URL)
	model, err := engine.LoadModel(context.Background(), "whisper-tiny.en", func(f float64) {
		fractions = append(fractions, f)
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() {
		_ = model.Close()
	}()
	if len(fractions) == 0 || fractions[len(fractions)-1] != 1.0 {
		t.Fatalf("expected load progress ending at 1.0, got %v", fractions)
	}
}

func TestLoadModel_UnhealthyServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	engine := NewWhisperServerEngine(server.URL)
	if _, err := engine.LoadModel(context.Background(), "whisper-tiny.en", nil); err == nil {
		t.Fatal("expected error for unhealthy server")
	}
}

func TestRecognize_ParsesWordTimestamps(t *testing.T) {
	var gotModel, gotFormat, gotGranularity, gotLanguage string
	server := newWhisperTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		gotGranularity = r.FormValue("timestamp_granularities[]")
		gotLanguage = r.FormValue("language")
		if _, _, err := r.FormFile("file"); err != nil {
			t.Fatalf("expected audio file part: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"text": "hello world",
			"words": []map[string]any{
				{"word": " hello", "start": 0.5, "end": 0.9},
				{"word": "world", "start": 1.0, "end": 1.4},
			},
		})
	})
	defer server.Close()

	engine := NewWhisperServerEngine(server.URL)
	model, err := engine.LoadModel(context.Background(), "whisper-small", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result, err := model.Recognize(context.Background(), make([]float32, 16000), recognizer.RecognizeOptions{
		WordTimestamps: true,
		Language:       "en",
		Task:           "transcribe",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotModel != "whisper-small" || gotFormat != "verbose_json" || gotGranularity != "word" || gotLanguage != "en" {
		t.Fatalf("unexpected request fields: model=%q format=%q granularity=%q language=%q",
			gotModel, gotFormat, gotGranularity, gotLanguage)
	}
	if result.Text != "hello world" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if len(result.Words) != 2 || result.Words[0].Text != "hello" || result.Words[0].Start != 0.5 {
		t.Fatalf("unexpected words: %+v", result.Words)
	}
}

func TestRecognize_FallsBackToSegments(t *testing.T) {
	server := newWhisperTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"text": "hello world",
			"segments": []map[string]any{
				{"text": " hello world", "start": 0.0, "end": 1.5},
			},
		})
	})
	defer server.Close()

	engine := NewWhisperServerEngine(server.URL)
	model, err := engine.LoadModel(context.Background(), "whisper-tiny.en", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result, err := model.Recognize(context.Background(), make([]float32, 16000), recognizer.RecognizeOptions{WordTimestamps: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(result.Words) != 1 || result.Words[0].Text != "hello world" || result.Words[0].End != 1.5 {
		t.Fatalf("unexpected fallback words: %+v", result.Words)
	}
}

func TestRecognize_ServerError(t *testing.T) {
	server := newWhisperTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})
	defer server.Close()

	engine := NewWhisperServerEngine(server.URL)
	model, err := engine.LoadModel(context.Background(), "nonexistent", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := model.Recognize(context.Background(), make([]float32, 16000), recognizer.RecognizeOptions{}); err == nil {
		t.Fatal("expected error for server failure")
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1.0}
	b := encodeWAV(samples, 16000)

	if string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		t.Fatal("expected RIFF/WAVE header")
	}
	if rate := binary.LittleEndian.Uint32(b[24:28]); rate != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", rate)
	}
	if size := binary.LittleEndian.Uint32(b[40:44]); size != uint32(len(samples)*2) {
		t.Fatalf("expected data size %d, got %d", len(samples)*2, size)
	}
	if len(b) != 44+len(samples)*2 {
		t.Fatalf("unexpected total size %d", len(b))
	}
}

func TestPCM16Bytes_ClampsOutOfRange(t *testing.T) {
	b := pcm16Bytes([]float32{1.5, -1.5})
	if v := int16(binary.LittleEndian.Uint16(b[0:2])); v != 32767 {
		t.Fatalf("expected clamp to 32767, got %d", v)
	}
	if v := int16(binary.LittleEndian.Uint16(b[2:4])); v != -32768 {
		t.Fatalf("expected clamp to -32768, got %d", v)
	}
}
