package transport

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"testing"

	"github.com/foxseedlab/kugirin/internal/config"
	"github.com/foxseedlab/kugirin/internal/session"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultModel:    "whisper-tiny.en",
		DefaultLanguage: "en",
	}
}

func encodeSamples(samples []float32) string {
	raw := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeCommand_ProcessAudio(t *testing.T) {
	samples := []float32{0.1, -0.2, 0.3}
	msg, _ := json.Marshal(map[string]any{
		"type":      "processAudio",
		"audioData": encodeSamples(samples),
		"model":     "whisper-small",
		"language":  "ja",
		"config":    map[string]any{"chunkLengthSeconds": 20},
	})

	cmd, err := DecodeCommand(msg, testConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cmd.Type != session.CommandProcessAudio {
		t.Fatalf("unexpected type: %s", cmd.Type)
	}
	if cmd.Model != "whisper-small" || cmd.Language != "ja" {
		t.Fatalf("unexpected model/language: %s/%s", cmd.Model, cmd.Language)
	}
	if len(cmd.Audio) != 3 || cmd.Audio[1] != -0.2 {
		t.Fatalf("unexpected audio: %v", cmd.Audio)
	}
	if cmd.Config == nil || cmd.Config.ChunkLengthSeconds == nil || *cmd.Config.ChunkLengthSeconds != 20 {
		t.Fatalf("unexpected config: %+v", cmd.Config)
	}
}

func TestDecodeCommand_DefaultsApplied(t *testing.T) {
	msg, _ := json.Marshal(map[string]any{"type": "processAudio"})
	cmd, err := DecodeCommand(msg, testConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cmd.Model != "whisper-tiny.en" || cmd.Language != "en" {
		t.Fatalf("expected configured defaults, got %s/%s", cmd.Model, cmd.Language)
	}
}

func TestDecodeCommand_Chunk(t *testing.T) {
	msg, _ := json.Marshal(map[string]any{
		"type": "processChunk",
		"chunk": map[string]any{
			"index":        1,
			"startTime":    30,
			"endTime":      45,
			"audioData":    encodeSamples([]float32{0.5}),
			"isLastChunk":  true,
			"overlapStart": 5,
		},
	})

	cmd, err := DecodeCommand(msg, testConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cmd.Chunk == nil {
		t.Fatal("expected a chunk")
	}
	if cmd.Chunk.Index != 1 || cmd.Chunk.StartTime != 30 || cmd.Chunk.OverlapStart != 5 {
		t.Fatalf("unexpected chunk: %+v", cmd.Chunk)
	}
	if len(cmd.Chunk.AudioData) != 1 || cmd.Chunk.AudioData[0] != 0.5 {
		t.Fatalf("unexpected chunk audio: %v", cmd.Chunk.AudioData)
	}
}

func TestDecodeCommand_LegacyAudioField(t *testing.T) {
	msg, _ := json.Marshal(map[string]any{
		"type":  "transcribe",
		"audio": encodeSamples([]float32{0.25, 0.75}),
	})

	cmd, err := DecodeCommand(msg, testConfig())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cmd.Type != session.CommandTranscribe {
		t.Fatalf("unexpected type: %s", cmd.Type)
	}
	if len(cmd.Audio) != 2 || cmd.Audio[1] != 0.75 {
		t.Fatalf("unexpected audio: %v", cmd.Audio)
	}
}

func TestDecodeCommand_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"type": `,
		"missing type":    `{}`,
		"bad base64":      `{"type":"processAudio","audioData":"???"}`,
		"odd byte length": `{"type":"processAudio","audioData":"` + base64.StdEncoding.EncodeToString([]byte{1, 2, 3}) + `"}`,
	}
	for name, raw := range cases {
		if _, err := DecodeCommand([]byte(raw), testConfig()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
