package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

// Devices adapts two opener funcs into a DeviceProvider.
type Devices struct {
	Microphone func(ctx context.Context) (AudioSource, error)
	Visual     func(ctx context.Context, mode types.VisualMode) (VisualSource, error)
}

// OpenMicrophone implements DeviceProvider.
func (d Devices) OpenMicrophone(ctx context.Context) (AudioSource, error) {
	if d.Microphone == nil {
		return nil, fmt.Errorf("%w: no microphone backend", ErrDeviceUnavailable)
	}
	return d.Microphone(ctx)
}

// OpenVisual implements DeviceProvider.
func (d Devices) OpenVisual(ctx context.Context, mode types.VisualMode) (VisualSource, error) {
	if d.Visual == nil {
		return nil, fmt.Errorf("%w: no %s backend", ErrDeviceUnavailable, mode)
	}
	return d.Visual(ctx, mode)
}

// DefaultCameraPath is the V4L2 node opened for camera capture.
var DefaultCameraPath = "/dev/video0"

// SystemVisual acquires Linux visual devices: the camera node is opened for
// reading, and screen capture requires a graphical session.
func SystemVisual(_ context.Context, mode types.VisualMode) (VisualSource, error) {
	switch mode {
	case types.VisualCamera:
		f, err := os.Open(DefaultCameraPath)
		if err != nil {
			return nil, classifyOSError(err)
		}
		return &fileVisual{mode: mode, f: f}, nil
	case types.VisualScreen:
		display := os.Getenv("WAYLAND_DISPLAY")
		if display == "" {
			display = os.Getenv("DISPLAY")
		}
		if display == "" {
			return nil, fmt.Errorf("%w: no graphical session", ErrDeviceUnavailable)
		}
		return &screenVisual{display: display}, nil
	default:
		return nil, fmt.Errorf("%w: visual mode %q", ErrDeviceUnavailable, mode)
	}
}

func classifyOSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
}

type fileVisual struct {
	mode types.VisualMode
	f    *os.File
}

func (v *fileVisual) Mode() types.VisualMode { return v.mode }
func (v *fileVisual) Close() error           { return v.f.Close() }

type screenVisual struct {
	display string
}

func (v *screenVisual) Mode() types.VisualMode { return types.VisualScreen }
func (v *screenVisual) Close() error           { return nil }
