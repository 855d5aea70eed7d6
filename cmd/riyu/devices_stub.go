//go:build !portaudio

package main

import (
	"fmt"

	"github.com/cyberwithvishal/riyu/pkg/config"
	"github.com/cyberwithvishal/riyu/runtime/audio"
)

// openDevices fails: this binary was built without audio support.
func openDevices(config.AudioSpec) (*deviceSet, error) {
	return nil, fmt.Errorf("%w: riyu was built without PortAudio; rebuild with -tags portaudio", audio.ErrDeviceUnavailable)
}
