package audio

import (
	"encoding/binary"
	"time"
)

// Standard audio sample rates for common use cases.
const (
	SampleRate24kHz = 24000 // model speech
	SampleRate16kHz = 16000 // microphone uplink

	CaptureSampleRate  = SampleRate16kHz
	PlaybackSampleRate = SampleRate24kHz

	// FrameSize is the number of samples in one capture block.
	FrameSize = 4096

	pcmBytesPerSample = 2
	pcmMaxAmplitude   = 32768.0
)

// Frame is one block of mono capture samples in [-1, 1].
type Frame []float32

// Segment is a decoded block of model speech queued for playback.
type Segment struct {
	Samples    []float32
	SampleRate int
}

// NewSegment decodes little-endian PCM16 into a Segment.
func NewSegment(pcm []byte, sampleRate int) Segment {
	return Segment{Samples: PCM16ToFloat(pcm), SampleRate: sampleRate}
}

// Duration is the playback length of the segment.
func (s Segment) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return samplesToDuration(int64(len(s.Samples)), s.SampleRate)
}

// samplesToDuration rounds to the nearest nanosecond.
func samplesToDuration(n int64, rate int) time.Duration {
	return time.Duration((n*int64(time.Second) + int64(rate)/2) / int64(rate))
}

// durationToSamples rounds to the nearest sample, which makes it the exact
// inverse of samplesToDuration for any rate below 1 GHz.
func durationToSamples(d time.Duration, rate int) int64 {
	return (int64(d)*int64(rate) + int64(time.Second)/2) / int64(time.Second)
}

// resampledLen is the length Resample produces for n samples.
func resampledLen(n, fromRate, toRate int) int {
	if fromRate <= 0 || fromRate == toRate {
		return n
	}
	return int(int64(n) * int64(toRate) / int64(fromRate))
}

// FloatToPCM16 converts float samples to little-endian PCM16, scaling by
// 32768 and clamping to the int16 range.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*pcmBytesPerSample)
	for i, s := range samples {
		v := float64(s) * pcmMaxAmplitude
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		//nolint:gosec // clamped above
		binary.LittleEndian.PutUint16(out[i*pcmBytesPerSample:], uint16(int16(v)))
	}
	return out
}

// PCM16ToFloat converts little-endian PCM16 to float samples in [-1, 1).
// A trailing odd byte is ignored.
func PCM16ToFloat(pcm []byte) []float32 {
	n := len(pcm) / pcmBytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		// #nosec G115 -- signed PCM reinterpretation
		sample := int16(binary.LittleEndian.Uint16(pcm[i*pcmBytesPerSample:]))
		out[i] = float32(float64(sample) / pcmMaxAmplitude)
	}
	return out
}
