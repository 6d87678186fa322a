package chunking

import (
	"errors"
	"fmt"
	"math"
)

var ErrEmptyAudio = errors.New("audio buffer is empty")

// Heuristic wall-clock cost of recognizing one chunk, used only for the
// estimatedProcessingTime statistic.
const estimatedSecondsPerChunk = 5

// Plan divides the audio into consecutive owned regions of up to
// cfg.ChunkLengthSeconds each. Owned regions partition [0, totalDuration]
// with no gaps and no overlap; the audio data handed to recognition is
// extended by up to cfg.OverlapSeconds of padding on each side so the model
// sees context beyond the owned boundaries.
//
// A trailing region shorter than cfg.MinChunkSeconds is merged into the
// previous chunk instead of being emitted as a degenerate tail.
func Plan(samples []float32, sampleRate int, cfg Config) ([]AudioChunk, Stats, error) {
	if len(samples) == 0 {
		return nil, Stats{}, fmt.Errorf("plan: %w", ErrEmptyAudio)
	}
	if sampleRate <= 0 {
		return nil, Stats{}, fmt.Errorf("plan: sample rate must be positive, got %d", sampleRate)
	}

	totalDuration := float64(len(samples)) / float64(sampleRate)
	chunkLength := clampChunkLength(cfg)

	chunkCount := 1
	if totalDuration > chunkLength {
		chunkCount = int(math.Ceil(totalDuration / chunkLength))
		lastStart := float64(chunkCount-1) * chunkLength
		if chunkCount > 1 && totalDuration-lastStart < cfg.MinChunkSeconds {
			chunkCount--
		}
	}

	chunks := make([]AudioChunk, 0, chunkCount)
	for i := 0; i < chunkCount; i++ {
		startTime := float64(i) * chunkLength
		endTime := startTime + chunkLength
		isLast := i == chunkCount-1
		if isLast {
			endTime = totalDuration
		}

		overlapStart := 0.0
		if i > 0 {
			overlapStart = math.Min(cfg.OverlapSeconds, startTime)
		}
		overlapEnd := 0.0
		if !isLast {
			overlapEnd = math.Min(cfg.OverlapSeconds, totalDuration-endTime)
		}

		dataStart := sampleIndex(startTime-overlapStart, sampleRate, len(samples))
		dataEnd := sampleIndex(endTime+overlapEnd, sampleRate, len(samples))
		chunks = append(chunks, AudioChunk{
			Index:        i,
			StartTime:    startTime,
			EndTime:      endTime,
			AudioData:    samples[dataStart:dataEnd],
			IsLastChunk:  isLast,
			OverlapStart: overlapStart,
			OverlapEnd:   overlapEnd,
		})
	}

	speechDuration := totalDuration
	silenceRemoved := 0.0
	if cfg.EnableVAD {
		speechDuration = EstimateSpeechDuration(samples, sampleRate, cfg.VADThreshold)
		silenceRemoved = totalDuration - speechDuration
	}

	speechFraction := 1.0
	if totalDuration > 0 {
		speechFraction = speechDuration / totalDuration
	}
	stats := Stats{
		TotalDuration:           totalDuration,
		SpeechDuration:          speechDuration,
		TotalChunks:             chunkCount,
		AverageChunkSize:        totalDuration / float64(chunkCount),
		SilenceRemoved:          silenceRemoved,
		EstimatedProcessingTime: float64(chunkCount) * estimatedSecondsPerChunk * speechFraction,
	}
	return chunks, stats, nil
}

func clampChunkLength(cfg Config) float64 {
	length := cfg.ChunkLengthSeconds
	if cfg.MaxChunkSeconds > 0 && length > cfg.MaxChunkSeconds {
		length = cfg.MaxChunkSeconds
	}
	if cfg.MinChunkSeconds > 0 && length < cfg.MinChunkSeconds {
		length = cfg.MinChunkSeconds
	}
	return length
}

func sampleIndex(t float64, sampleRate, total int) int {
	idx := int(math.Round(t * float64(sampleRate)))
	if idx < 0 {
		return 0
	}
	if idx > total {
		return total
	}
	return idx
}
