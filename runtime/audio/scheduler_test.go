package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice is a PlaybackDevice with a settable clock.
type fakeDevice struct {
	mu      sync.Mutex
	now     time.Duration
	starts  []time.Duration
	sources []*fakeSource
	fail    error
}

type fakeSource struct {
	done    func()
	stopped bool
}

func (s *fakeSource) Stop() { s.stopped = true }

func (d *fakeDevice) Now() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.now
}

func (d *fakeDevice) advance(by time.Duration) {
	d.mu.Lock()
	d.now += by
	d.mu.Unlock()
}

func (d *fakeDevice) Schedule(_ Segment, at time.Duration, done func()) (Source, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return nil, d.fail
	}
	src := &fakeSource{done: done}
	d.starts = append(d.starts, at)
	d.sources = append(d.sources, src)
	return src, nil
}

func segmentOf(d time.Duration) Segment {
	n := int(d * PlaybackSampleRate / time.Second)
	return Segment{Samples: make([]float32, n), SampleRate: PlaybackSampleRate}
}

func TestSchedulerBackToBack(t *testing.T) {
	dev := &fakeDevice{now: time.Second}
	s := NewScheduler(dev)

	durations := []time.Duration{100 * time.Millisecond, 250 * time.Millisecond, 40 * time.Millisecond, 500 * time.Millisecond}
	var prevEnd time.Duration
	for i, d := range durations {
		clock := dev.Now()
		start, err := s.Schedule(segmentOf(d))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, start, prevEnd, "segment %d overlaps the previous one", i)
		assert.GreaterOrEqual(t, start, clock, "segment %d starts before the device clock", i)
		prevEnd = start + d
		dev.advance(30 * time.Millisecond)
	}

	assert.Equal(t, []time.Duration{
		time.Second,
		1100 * time.Millisecond,
		1350 * time.Millisecond,
		1390 * time.Millisecond,
	}, dev.starts)
	assert.Equal(t, 1890*time.Millisecond, s.NextStart())
	assert.Equal(t, 4, s.Active())
}

func TestSchedulerNeverSchedulesInThePast(t *testing.T) {
	dev := &fakeDevice{}
	s := NewScheduler(dev)

	_, err := s.Schedule(segmentOf(100 * time.Millisecond))
	require.NoError(t, err)

	// A late arrival after the previous segment ended starts at the clock.
	dev.advance(2 * time.Second)
	start, err := s.Schedule(segmentOf(100 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, start)
}

func TestSchedulerCompletionRemovesSource(t *testing.T) {
	dev := &fakeDevice{}
	s := NewScheduler(dev)

	for i := 0; i < 3; i++ {
		_, err := s.Schedule(segmentOf(10 * time.Millisecond))
		require.NoError(t, err)
	}
	dev.sources[1].done()
	assert.Equal(t, 2, s.Active())

	// Completion after reset is harmless.
	s.Reset()
	dev.sources[0].done()
	assert.Equal(t, 0, s.Active())
}

func TestSchedulerReset(t *testing.T) {
	dev := &fakeDevice{now: 5 * time.Second}
	s := NewScheduler(dev)

	for i := 0; i < 3; i++ {
		_, err := s.Schedule(segmentOf(time.Second))
		require.NoError(t, err)
	}
	require.Equal(t, 8*time.Second, s.NextStart())

	s.Reset()
	assert.Zero(t, s.Active())
	assert.Zero(t, s.NextStart())
	for _, src := range dev.sources {
		assert.True(t, src.stopped)
	}

	// The next session starts at the clock, not at the old next start.
	dev.advance(500 * time.Millisecond)
	start, err := s.Schedule(segmentOf(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 5500*time.Millisecond, start)

	s.Reset()
	s.Reset()
}

func TestSchedulerDeviceError(t *testing.T) {
	dev := &fakeDevice{fail: errors.New("device gone")}
	s := NewScheduler(dev)

	_, err := s.Schedule(segmentOf(time.Second))
	assert.Error(t, err)
	assert.Zero(t, s.NextStart())
	assert.Zero(t, s.Active())
}
