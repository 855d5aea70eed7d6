package audio

import (
	"math"
	"sync"
	"time"
)

// ActivityParams tunes the ActivityDetector.
type ActivityParams struct {
	// Threshold is the smoothed RMS level treated as speech.
	Threshold float64
	// StartAfter is how long the level must stay above Threshold before speech starts.
	StartAfter time.Duration
	// StopAfter is how long the level must stay below Threshold before speech ends.
	StopAfter time.Duration
	// SampleRate of analyzed frames.
	SampleRate int
}

// DefaultActivityParams suits 16 kHz speech.
func DefaultActivityParams() ActivityParams {
	return ActivityParams{
		Threshold:  0.02,
		StartAfter: 200 * time.Millisecond,
		StopAfter:  800 * time.Millisecond,
		SampleRate: CaptureSampleRate,
	}
}

const activitySmoothing = 0.3

// ActivityDetector is an RMS voice activity detector with hysteresis. Time is
// measured in analyzed audio, not wall clock, so results depend only on input.
type ActivityDetector struct {
	params   ActivityParams
	onChange func(speaking bool)

	mu       sync.Mutex
	smoothed float64
	speaking bool
	pending  time.Duration
}

// NewActivityDetector creates a detector calling onChange on each transition.
func NewActivityDetector(params ActivityParams, onChange func(speaking bool)) *ActivityDetector {
	if params.SampleRate <= 0 {
		params.SampleRate = CaptureSampleRate
	}
	return &ActivityDetector{params: params, onChange: onChange}
}

// Analyze feeds one frame and reports whether speech is active afterwards.
func (d *ActivityDetector) Analyze(frame Frame) bool {
	if len(frame) == 0 {
		return d.Speaking()
	}
	frameDur := time.Duration(len(frame)) * time.Second / time.Duration(d.params.SampleRate)

	d.mu.Lock()
	d.smoothed = activitySmoothing*rms(frame) + (1-activitySmoothing)*d.smoothed
	above := d.smoothed >= d.params.Threshold

	changed := false
	if above != d.speaking {
		d.pending += frameDur
		limit := d.params.StartAfter
		if d.speaking {
			limit = d.params.StopAfter
		}
		if d.pending >= limit {
			d.speaking = above
			d.pending = 0
			changed = true
		}
	} else {
		d.pending = 0
	}
	speaking := d.speaking
	d.mu.Unlock()

	if changed && d.onChange != nil {
		d.onChange(speaking)
	}
	return speaking
}

// Speaking reports the current state.
func (d *ActivityDetector) Speaking() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speaking
}

// Reset returns to silence without calling onChange.
func (d *ActivityDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.smoothed = 0
	d.speaking = false
	d.pending = 0
}

func rms(frame Frame) float64 {
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}
