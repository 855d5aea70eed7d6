package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tone(n int, amp float32) Frame {
	f := make(Frame, n)
	for i := range f {
		if i%2 == 0 {
			f[i] = amp
		} else {
			f[i] = -amp
		}
	}
	return f
}

func TestActivityDetectorHysteresis(t *testing.T) {
	var changes []bool
	d := NewActivityDetector(ActivityParams{
		Threshold:  0.1,
		StartAfter: 200 * time.Millisecond,
		StopAfter:  400 * time.Millisecond,
		SampleRate: 1000,
	}, func(s bool) { changes = append(changes, s) })

	loud := tone(100, 0.8) // 100ms each
	quiet := make(Frame, 100)

	assert.False(t, d.Analyze(loud))
	assert.True(t, d.Analyze(loud))
	assert.Equal(t, []bool{true}, changes)

	for i := 0; i < 3; i++ {
		d.Analyze(quiet)
	}
	assert.True(t, d.Speaking(), "brief pauses keep speech active")

	// Smoothing decays within a frame or two; four quiet frames past that end speech.
	for i := 0; i < 10; i++ {
		d.Analyze(quiet)
	}
	assert.False(t, d.Speaking())
	assert.Equal(t, []bool{true, false}, changes)
}

func TestActivityDetectorIgnoresSilenceAndReset(t *testing.T) {
	d := NewActivityDetector(DefaultActivityParams(), nil)
	for i := 0; i < 20; i++ {
		assert.False(t, d.Analyze(make(Frame, FrameSize)))
	}
	assert.False(t, d.Analyze(nil))

	for i := 0; i < 5; i++ {
		d.Analyze(tone(FrameSize, 0.5))
	}
	assert.True(t, d.Speaking())
	d.Reset()
	assert.False(t, d.Speaking())
}
