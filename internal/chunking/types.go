package chunking

// SampleRate is the fixed sample rate of all audio handed to the pipeline.
// Decoding and resampling happen upstream of the worker.
const SampleRate = 16000

type Config struct {
	ChunkLengthSeconds       float64
	OverlapSeconds           float64
	MinChunkSeconds          float64
	MaxChunkSeconds          float64
	EnableVAD                bool
	VADThreshold             float64
	MaxMemoryMB              float64
	EnableProgressiveResults bool
	WorkerPoolSize           int
}

func DefaultConfig() Config {
	return Config{
		ChunkLengthSeconds:       30,
		OverlapSeconds:           5,
		MinChunkSeconds:          10,
		MaxChunkSeconds:          60,
		EnableVAD:                true,
		VADThreshold:             0.5,
		MaxMemoryMB:              2048,
		EnableProgressiveResults: true,
		WorkerPoolSize:           1,
	}
}

// Partial is a caller-supplied configuration where every field is optional.
type Partial struct {
	ChunkLengthSeconds       *float64 `json:"chunkLengthSeconds,omitempty"`
	OverlapSeconds           *float64 `json:"overlapSeconds,omitempty"`
	MinChunkSeconds          *float64 `json:"minChunkSeconds,omitempty"`
	MaxChunkSeconds          *float64 `json:"maxChunkSeconds,omitempty"`
	EnableVAD                *bool    `json:"enableVAD,omitempty"`
	VADThreshold             *float64 `json:"vadThreshold,omitempty"`
	MaxMemoryMB              *float64 `json:"maxMemoryMB,omitempty"`
	EnableProgressiveResults *bool    `json:"enableProgressiveResults,omitempty"`
	WorkerPoolSize           *int     `json:"workerPoolSize,omitempty"`
}

// Resolve merges the partial over the defaults. The result always has every
// field set, even when the receiver is nil.
func (p *Partial) Resolve() Config {
	cfg := DefaultConfig()
	if p == nil {
		return cfg
	}
	if p.ChunkLengthSeconds != nil {
		cfg.ChunkLengthSeconds = *p.ChunkLengthSeconds
	}
	if p.OverlapSeconds != nil {
		cfg.OverlapSeconds = *p.OverlapSeconds
	}
	if p.MinChunkSeconds != nil {
		cfg.MinChunkSeconds = *p.MinChunkSeconds
	}
	if p.MaxChunkSeconds != nil {
		cfg.MaxChunkSeconds = *p.MaxChunkSeconds
	}
	if p.EnableVAD != nil {
		cfg.EnableVAD = *p.EnableVAD
	}
	if p.VADThreshold != nil {
		cfg.VADThreshold = *p.VADThreshold
	}
	if p.MaxMemoryMB != nil {
		cfg.MaxMemoryMB = *p.MaxMemoryMB
	}
	if p.EnableProgressiveResults != nil {
		cfg.EnableProgressiveResults = *p.EnableProgressiveResults
	}
	if p.WorkerPoolSize != nil {
		cfg.WorkerPoolSize = *p.WorkerPoolSize
	}
	return cfg
}

// AudioChunk is one planned unit of recognition work. AudioData covers the
// owned region [StartTime, EndTime) plus OverlapStart seconds of look-back
// and OverlapEnd seconds of look-ahead padding.
type AudioChunk struct {
	Index        int       `json:"index"`
	StartTime    float64   `json:"startTime"`
	EndTime      float64   `json:"endTime"`
	AudioData    []float32 `json:"-"`
	IsLastChunk  bool      `json:"isLastChunk"`
	OverlapStart float64   `json:"overlapStart"`
	OverlapEnd   float64   `json:"overlapEnd"`
}

// Word is a single word or phrase entry with a [start, end] timestamp in
// seconds on the full-audio timeline.
type Word struct {
	Text      string     `json:"text"`
	Timestamp [2]float64 `json:"timestamp"`
}

type ChunkResult struct {
	ChunkIndex     int     `json:"chunkIndex"`
	Text           string  `json:"text"`
	Chunks         []Word  `json:"chunks"`
	ChunkStartTime float64 `json:"chunkStartTime"`
	ChunkEndTime   float64 `json:"chunkEndTime"`
	ProcessingTime float64 `json:"processingTime"`
	HasSpeech      bool    `json:"hasSpeech"`
}

type Stats struct {
	TotalDuration           float64 `json:"totalDuration"`
	SpeechDuration          float64 `json:"speechDuration"`
	TotalChunks             int     `json:"totalChunks"`
	AverageChunkSize        float64 `json:"averageChunkSize"`
	SilenceRemoved          float64 `json:"silenceRemoved"`
	EstimatedProcessingTime float64 `json:"estimatedProcessingTime"`
}

type MergedTranscript struct {
	Text   string `json:"text"`
	Chunks []Word `json:"chunks"`
}

type Progress struct {
	CurrentChunk           int               `json:"currentChunk"`
	TotalChunks            int               `json:"totalChunks"`
	OverallProgress        float64           `json:"overallProgress"`
	EstimatedTimeRemaining float64           `json:"estimatedTimeRemaining"`
	Status                 string            `json:"status"`
	ChunksCompleted        int               `json:"chunksCompleted"`
	MemoryUsageMB          float64           `json:"memoryUsageMB"`
	PartialResult          *MergedTranscript `json:"partialResult,omitempty"`
}
