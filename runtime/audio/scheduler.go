package audio

import (
	"sync"
	"time"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
)

// Source is a segment placed on a PlaybackDevice.
type Source interface {
	Stop()
}

// PlaybackDevice is an output with its own clock. Schedule must not call done
// synchronously; devices report completion from their own render goroutine.
type PlaybackDevice interface {
	Now() time.Duration
	Schedule(seg Segment, at time.Duration, done func()) (Source, error)
}

// sampleClock is a PlaybackDevice whose clock advances in whole samples.
type sampleClock interface {
	SampleRate() int
}

// Scheduler places segments back to back on a PlaybackDevice clock. On a
// device with a sample clock, positions are tracked in samples so adjacent
// segments neither overlap nor leave a gap.
type Scheduler struct {
	device PlaybackDevice
	rate   int

	mu         sync.Mutex
	nextStart  time.Duration
	nextSample int64
	sources   map[uint64]Source
	seq       uint64
}

// NewScheduler creates a scheduler for device.
func NewScheduler(device PlaybackDevice) *Scheduler {
	s := &Scheduler{device: device, sources: make(map[uint64]Source)}
	if c, ok := device.(sampleClock); ok && c.SampleRate() > 0 {
		s.rate = c.SampleRate()
	}
	return s
}

// Schedule starts seg at max(next start, device clock) and returns that start.
func (s *Scheduler) Schedule(seg Segment) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.device.Now()
	start := max(s.nextStart, now)
	var startSample int64
	if s.rate > 0 {
		startSample = max(s.nextSample, durationToSamples(now, s.rate))
		start = samplesToDuration(startSample, s.rate)
	}

	s.seq++
	id := s.seq
	src, err := s.device.Schedule(seg, start, func() { s.finished(id) })
	if err != nil {
		return 0, err
	}
	s.sources[id] = src
	if s.rate > 0 {
		s.nextSample = startSample + int64(resampledLen(len(seg.Samples), seg.SampleRate, s.rate))
		s.nextStart = samplesToDuration(s.nextSample, s.rate)
	} else {
		s.nextStart = start + seg.Duration()
	}

	prometheus.RecordPlaybackSegment((start - now).Seconds())
	return start, nil
}

func (s *Scheduler) finished(id uint64) {
	s.mu.Lock()
	delete(s.sources, id)
	s.mu.Unlock()
}

// Reset stops every tracked source, clears the set and rewinds the next start
// to zero so the following segment starts at the device clock.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.sources)
	for id, src := range s.sources {
		src.Stop()
		delete(s.sources, id)
	}
	s.nextStart = 0
	s.nextSample = 0
	if n > 0 {
		logger.Debug("playback reset", "stopped_sources", n)
	}
}

// NextStart is the end of the last scheduled segment.
func (s *Scheduler) NextStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

// Active is the number of tracked sources.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sources)
}
