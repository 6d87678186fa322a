package chunking

import "math"

const (
	vadFrameSeconds = 0.03
	// RMS energy of a frame that counts as clear speech when the threshold
	// is at its 0.5 default. Decoded speech at normal levels sits well above
	// this; room tone and encoder silence sit well below.
	vadSpeechRMSFloor = 0.02
)

// EstimateSpeechDuration classifies fixed-size frames as speech or silence
// by RMS energy and returns the estimated speech time in seconds. The
// estimate only feeds planning statistics; it never changes chunk boundaries
// or the audio handed to recognition.
func EstimateSpeechDuration(samples []float32, sampleRate int, threshold float64) float64 {
	if len(samples) == 0 || sampleRate <= 0 {
		return 0
	}
	frameSize := int(vadFrameSeconds * float64(sampleRate))
	if frameSize <= 0 {
		frameSize = 1
	}
	cutoff := vadSpeechRMSFloor * 2 * threshold

	speech := 0.0
	for start := 0; start < len(samples); start += frameSize {
		end := start + frameSize
		if end > len(samples) {
			end = len(samples)
		}
		if frameRMS(samples[start:end]) >= cutoff {
			speech += float64(end-start) / float64(sampleRate)
		}
	}
	return speech
}

func frameRMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
