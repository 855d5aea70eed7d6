package audio

import (
	"errors"
	"sync"
	"time"
)

// ErrMixerClosed is returned by Schedule after Close.
var ErrMixerClosed = errors.New("audio: mixer closed")

// Mixer is a PlaybackDevice driven by a sample clock. An output backend pulls
// rendered blocks with Render; each call advances the clock by len(out).
type Mixer struct {
	rate int

	mu       sync.Mutex
	rendered int64
	voices   []*voice
	closed   bool
}

type voice struct {
	mixer   *Mixer
	samples []float32
	start   int64
	done    func()
	stopped bool
}

// NewMixer creates a mixer running at rate samples per second.
func NewMixer(rate int) *Mixer {
	if rate <= 0 {
		rate = PlaybackSampleRate
	}
	return &Mixer{rate: rate}
}

// SampleRate is the output rate.
func (m *Mixer) SampleRate() int {
	return m.rate
}

// Now is the duration rendered so far.
func (m *Mixer) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return samplesToDuration(m.rendered, m.rate)
}

// Schedule places seg at device time at. Segments at another rate are
// resampled to the mixer rate.
func (m *Mixer) Schedule(seg Segment, at time.Duration, done func()) (Source, error) {
	samples := seg.Samples
	if seg.SampleRate > 0 && seg.SampleRate != m.rate {
		var err error
		if samples, err = Resample(samples, seg.SampleRate, m.rate); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrMixerClosed
	}
	v := &voice{mixer: m, samples: samples, start: durationToSamples(at, m.rate), done: done}
	m.voices = append(m.voices, v)
	return v, nil
}

// Render mixes every voice overlapping the next len(out) samples into out and
// advances the clock. Completion callbacks run on the caller's goroutine after
// the mixer lock is released.
func (m *Mixer) Render(out []float32) {
	for i := range out {
		out[i] = 0
	}

	m.mu.Lock()
	from := m.rendered
	to := from + int64(len(out))
	var finished []func()
	live := m.voices[:0]
	for _, v := range m.voices {
		end := v.start + int64(len(v.samples))
		if v.start < to && end > from {
			lo := max(v.start, from)
			hi := min(end, to)
			for t := lo; t < hi; t++ {
				out[t-from] += v.samples[t-v.start]
			}
		}
		if end <= to && v.start < to {
			if v.done != nil {
				finished = append(finished, v.done)
			}
			continue
		}
		live = append(live, v)
	}
	for i := len(live); i < len(m.voices); i++ {
		m.voices[i] = nil
	}
	m.voices = live
	m.rendered = to
	m.mu.Unlock()

	for i := range out {
		if out[i] > 1 {
			out[i] = 1
		} else if out[i] < -1 {
			out[i] = -1
		}
	}
	for _, fn := range finished {
		fn()
	}
}

// Close drops every voice and rejects further scheduling.
func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.voices = nil
	return nil
}

// Stop removes the voice without running its completion callback.
func (v *voice) Stop() {
	m := v.mixer
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.stopped {
		return
	}
	v.stopped = true
	for i, other := range m.voices {
		if other == v {
			m.voices = append(m.voices[:i], m.voices[i+1:]...)
			return
		}
	}
}
