package main

import (
	"github.com/cyberwithvishal/riyu/runtime/audio"
)

// deviceSet is the local audio hardware of a live session.
type deviceSet struct {
	Provider audio.DeviceProvider
	Mixer    *audio.Mixer

	close func()
}

// Close releases the devices.
func (d *deviceSet) Close() {
	if d.close != nil {
		d.close()
	}
}
