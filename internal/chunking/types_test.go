package chunking

import "testing"

func TestResolve_NilPartialYieldsDefaults(t *testing.T) {
	var p *Partial
	if got := p.Resolve(); got != DefaultConfig() {
		t.Fatalf("unexpected config: %+v", got)
	}
}

func TestResolve_OverridesAreApplied(t *testing.T) {
	length := 45.0
	vad := false
	pool := 4
	p := &Partial{
		ChunkLengthSeconds: &length,
		EnableVAD:          &vad,
		WorkerPoolSize:     &pool,
	}

	got := p.Resolve()
	if got.ChunkLengthSeconds != 45 {
		t.Fatalf("chunk length not overridden: %f", got.ChunkLengthSeconds)
	}
	if got.EnableVAD {
		t.Fatal("EnableVAD not overridden")
	}
	if got.WorkerPoolSize != 4 {
		t.Fatalf("worker pool size not overridden: %d", got.WorkerPoolSize)
	}
	if got.OverlapSeconds != DefaultConfig().OverlapSeconds {
		t.Fatalf("untouched field lost its default: %f", got.OverlapSeconds)
	}
	if got.MaxMemoryMB != DefaultConfig().MaxMemoryMB {
		t.Fatalf("untouched field lost its default: %f", got.MaxMemoryMB)
	}
}
