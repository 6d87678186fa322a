package chunking

import "testing"

func TestEstimateSpeechDuration_Silence(t *testing.T) {
	if got := EstimateSpeechDuration(silentSamples(20), SampleRate, 0.5); got != 0 {
		t.Fatalf("expected no speech in silence, got %f", got)
	}
}

func TestEstimateSpeechDuration_Tone(t *testing.T) {
	got := EstimateSpeechDuration(toneSamples(20, 0.5), SampleRate, 0.5)
	if got < 19 {
		t.Fatalf("expected nearly full duration classified as speech, got %f", got)
	}
	if got > 20 {
		t.Fatalf("speech estimate exceeds audio duration: %f", got)
	}
}

func TestEstimateSpeechDuration_MixedSignal(t *testing.T) {
	samples := append(toneSamples(10, 0.5), silentSamples(10)...)
	got := EstimateSpeechDuration(samples, SampleRate, 0.5)
	if got < 9 || got > 11 {
		t.Fatalf("expected roughly half of 20s classified as speech, got %f", got)
	}
}

func TestEstimateSpeechDuration_EmptyInput(t *testing.T) {
	if got := EstimateSpeechDuration(nil, SampleRate, 0.5); got != 0 {
		t.Fatalf("expected zero for empty input, got %f", got)
	}
}
