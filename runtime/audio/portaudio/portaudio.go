//go:build portaudio

// Package portaudio provides microphone capture and speaker output for live
// sessions using PortAudio.
package portaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/cyberwithvishal/riyu/runtime/audio"
	"github.com/cyberwithvishal/riyu/runtime/logger"
)

const (
	channels        = 1
	frameQueueSize  = 16
	outputFrameSize = 960 // 40ms at 24kHz
)

// System owns PortAudio initialisation.
type System struct {
	captureRate     int
	framesPerBuffer int
}

// Config selects stream parameters. Zero values use the audio package defaults.
type Config struct {
	CaptureSampleRate int
	FramesPerBuffer   int
}

// Init initialises PortAudio. Call Terminate when done.
func Init(cfg Config) (*System, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize PortAudio: %w", audio.ErrDeviceUnavailable, err)
	}
	s := &System{captureRate: cfg.CaptureSampleRate, framesPerBuffer: cfg.FramesPerBuffer}
	if s.captureRate <= 0 {
		s.captureRate = audio.CaptureSampleRate
	}
	if s.framesPerBuffer <= 0 {
		s.framesPerBuffer = audio.FrameSize
	}
	return s, nil
}

// Terminate releases PortAudio.
func (s *System) Terminate() {
	if err := portaudio.Terminate(); err != nil {
		logger.Warn("portaudio terminate failed", "error", err)
	}
}

// OpenMicrophone opens the default input device. It satisfies the
// Microphone field of audio.Devices.
func (s *System) OpenMicrophone(_ context.Context) (audio.AudioSource, error) {
	buf := make([]float32, s.framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(s.captureRate), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: open input stream: %w", audio.ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("%w: start input stream: %w", audio.ErrDeviceUnavailable, err)
	}

	m := &microphone{
		stream: stream,
		buf:    buf,
		frames: make(chan audio.Frame, frameQueueSize),
		stop:   make(chan struct{}),
	}
	m.wg.Add(1)
	go m.loop()
	logger.Debug("microphone opened", "sample_rate", s.captureRate, "frames_per_buffer", len(buf))
	return m, nil
}

type microphone struct {
	stream *portaudio.Stream
	buf    []float32
	frames chan audio.Frame

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (m *microphone) Frames() <-chan audio.Frame {
	return m.frames
}

func (m *microphone) loop() {
	defer m.wg.Done()
	defer close(m.frames)
	for {
		select {
		case <-m.stop:
			return
		default:
		}
		if err := m.stream.Read(); err != nil {
			// Overflows are routine on a busy host.
			logger.Debug("microphone read error", "error", err)
			continue
		}
		frame := make(audio.Frame, len(m.buf))
		copy(frame, m.buf)
		select {
		case m.frames <- frame:
		case <-m.stop:
			return
		}
	}
}

func (m *microphone) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stop)
		err = m.stream.Stop()
		m.wg.Wait()
		if cerr := m.stream.Close(); err == nil {
			err = cerr
		}
	})
	return err
}

// Speaker plays a Mixer through the default output device.
type Speaker struct {
	mixer  *audio.Mixer
	stream *portaudio.Stream
	buf    []float32

	stop      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// OpenSpeaker starts rendering mixer on the default output device at the
// mixer's sample rate.
func (s *System) OpenSpeaker(mixer *audio.Mixer) (*Speaker, error) {
	buf := make([]float32, outputFrameSize)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(mixer.SampleRate()), len(buf), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: open output stream: %w", audio.ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("%w: start output stream: %w", audio.ErrDeviceUnavailable, err)
	}
	sp := &Speaker{mixer: mixer, stream: stream, buf: buf, stop: make(chan struct{})}
	sp.wg.Add(1)
	go sp.loop()
	return sp, nil
}

func (sp *Speaker) loop() {
	defer sp.wg.Done()
	for {
		select {
		case <-sp.stop:
			return
		default:
		}
		sp.mixer.Render(sp.buf)
		if err := sp.stream.Write(); err != nil {
			logger.Debug("speaker write error", "error", err)
		}
	}
}

// Close stops output.
func (sp *Speaker) Close() error {
	var err error
	sp.closeOnce.Do(func() {
		close(sp.stop)
		sp.wg.Wait()
		err = sp.stream.Stop()
		if cerr := sp.stream.Close(); err == nil {
			err = cerr
		}
	})
	return err
}
