package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

var (
	// ErrPermissionDenied means the platform refused access to a device.
	ErrPermissionDenied = errors.New("audio: permission denied")
	// ErrDeviceUnavailable means the requested device does not exist or is busy.
	ErrDeviceUnavailable = errors.New("audio: device unavailable")
)

// AudioSource is an open microphone. Frames is closed when the source closes.
type AudioSource interface {
	Frames() <-chan Frame
	Close() error
}

// VisualSource is an open camera or screen capture.
type VisualSource interface {
	Mode() types.VisualMode
	Close() error
}

// DeviceProvider acquires platform devices. Errors should wrap
// ErrPermissionDenied or ErrDeviceUnavailable.
type DeviceProvider interface {
	OpenMicrophone(ctx context.Context) (AudioSource, error)
	OpenVisual(ctx context.Context, mode types.VisualMode) (VisualSource, error)
}

// Handles are the sources held by a CaptureManager. Visual is nil in VisualNone.
type Handles struct {
	Audio  AudioSource
	Visual VisualSource
}

// CaptureManager owns the microphone and at most one visual source.
type CaptureManager struct {
	devices DeviceProvider

	mu     sync.Mutex
	audio  AudioSource
	visual VisualSource
}

// NewCaptureManager creates a manager over devices.
func NewCaptureManager(devices DeviceProvider) *CaptureManager {
	return &CaptureManager{devices: devices}
}

// Open acquires the microphone and, unless mode is VisualNone, a visual source.
// If the visual source fails, the microphone acquired by this call is released
// before the error is returned. On an already open manager Open only applies
// the visual mode.
func (m *CaptureManager) Open(ctx context.Context, mode types.VisualMode) (Handles, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.audio != nil {
		if err := m.switchVisualLocked(ctx, mode); err != nil {
			return Handles{}, err
		}
		return Handles{Audio: m.audio, Visual: m.visual}, nil
	}

	mic, err := m.devices.OpenMicrophone(ctx)
	if err != nil {
		return Handles{}, fmt.Errorf("open microphone: %w", err)
	}

	var visual VisualSource
	if mode != types.VisualNone {
		visual, err = m.devices.OpenVisual(ctx, mode)
		if err != nil {
			closeQuietly("microphone", mic)
			return Handles{}, fmt.Errorf("open %s: %w", mode, err)
		}
	}

	m.audio = mic
	m.visual = visual
	logger.Debug("capture opened", "visual_mode", mode)
	return Handles{Audio: mic, Visual: visual}, nil
}

// SwitchVisual replaces the visual source. The previous visual source is
// closed before the new one is opened; the microphone is not touched.
func (m *CaptureManager) SwitchVisual(ctx context.Context, mode types.VisualMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.switchVisualLocked(ctx, mode)
}

func (m *CaptureManager) switchVisualLocked(ctx context.Context, mode types.VisualMode) error {
	if m.visual != nil {
		if m.visual.Mode() == mode {
			return nil
		}
		closeQuietly(string(m.visual.Mode()), m.visual)
		m.visual = nil
	}
	if mode == types.VisualNone {
		return nil
	}
	visual, err := m.devices.OpenVisual(ctx, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", mode, err)
	}
	m.visual = visual
	logger.Debug("visual capture switched", "visual_mode", mode)
	return nil
}

// VisualMode reports the mode of the held visual source.
func (m *CaptureManager) VisualMode() types.VisualMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.visual == nil {
		return types.VisualNone
	}
	return m.visual.Mode()
}

// Close releases every held source. Safe to call when nothing is open.
func (m *CaptureManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.visual != nil {
		closeQuietly(string(m.visual.Mode()), m.visual)
		m.visual = nil
	}
	if m.audio != nil {
		closeQuietly("microphone", m.audio)
		m.audio = nil
	}
}

func closeQuietly(name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logger.Warn("capture release failed", "device", name, "error", err)
	}
}
