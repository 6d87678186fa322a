package transport

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/foxseedlab/kugirin/internal/chunking"
	"github.com/foxseedlab/kugirin/internal/config"
	"github.com/foxseedlab/kugirin/internal/session"
)

// wireMessage is the JSON envelope clients send over the websocket. Audio is
// carried as base64-encoded little-endian float32 PCM at the pipeline's
// fixed sample rate.
type wireMessage struct {
	Type      string                 `json:"type"`
	Config    *chunking.Partial      `json:"config,omitempty"`
	AudioData string                 `json:"audioData,omitempty"`
	Chunk     *wireChunk             `json:"chunk,omitempty"`
	Model     string                 `json:"model,omitempty"`
	Language  string                 `json:"language,omitempty"`
	Results   []chunking.ChunkResult `json:"results,omitempty"`

	// Audio is the legacy single-shot protocol's field name for AudioData.
	Audio string `json:"audio,omitempty"`
}

type wireChunk struct {
	Index        int     `json:"index"`
	StartTime    float64 `json:"startTime"`
	EndTime      float64 `json:"endTime"`
	AudioData    string  `json:"audioData"`
	IsLastChunk  bool    `json:"isLastChunk"`
	OverlapStart float64 `json:"overlapStart"`
	OverlapEnd   float64 `json:"overlapEnd"`
}

// DecodeCommand parses one inbound websocket message. Model and language
// fall back to the configured defaults when the message omits them.
func DecodeCommand(data []byte, cfg *config.Config) (session.Command, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return session.Command{}, fmt.Errorf("invalid message: %w", err)
	}
	if msg.Type == "" {
		return session.Command{}, fmt.Errorf("message has no type")
	}

	cmd := session.Command{
		Type:     session.CommandType(msg.Type),
		Config:   msg.Config,
		Model:    msg.Model,
		Language: msg.Language,
		Results:  msg.Results,
	}
	if cmd.Model == "" {
		cmd.Model = cfg.DefaultModel
	}
	if cmd.Language == "" {
		cmd.Language = cfg.DefaultLanguage
	}

	encodedAudio := msg.AudioData
	if encodedAudio == "" {
		encodedAudio = msg.Audio
	}
	if encodedAudio != "" {
		samples, err := decodeSamples(encodedAudio)
		if err != nil {
			return session.Command{}, err
		}
		cmd.Audio = samples
	}

	if msg.Chunk != nil {
		samples, err := decodeSamples(msg.Chunk.AudioData)
		if err != nil {
			return session.Command{}, err
		}
		cmd.Chunk = &chunking.AudioChunk{
			Index:        msg.Chunk.Index,
			StartTime:    msg.Chunk.StartTime,
			EndTime:      msg.Chunk.EndTime,
			AudioData:    samples,
			IsLastChunk:  msg.Chunk.IsLastChunk,
			OverlapStart: msg.Chunk.OverlapStart,
			OverlapEnd:   msg.Chunk.OverlapEnd,
		}
	}
	return cmd, nil
}

func decodeSamples(encoded string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("audio data is not valid base64: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("audio data length %d is not a multiple of 4", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return samples, nil
}
