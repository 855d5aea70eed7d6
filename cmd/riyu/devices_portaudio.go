//go:build portaudio

package main

import (
	"github.com/cyberwithvishal/riyu/pkg/config"
	"github.com/cyberwithvishal/riyu/runtime/audio"
	audiodev "github.com/cyberwithvishal/riyu/runtime/audio/portaudio"
	"github.com/cyberwithvishal/riyu/runtime/logger"
)

// openDevices opens PortAudio output and returns a provider for the default
// microphone plus the Linux visual devices.
func openDevices(spec config.AudioSpec) (*deviceSet, error) {
	sys, err := audiodev.Init(audiodev.Config{
		CaptureSampleRate: spec.CaptureSampleRate,
		FramesPerBuffer:   spec.FramesPerBuffer,
	})
	if err != nil {
		return nil, err
	}
	mixer := audio.NewMixer(spec.PlaybackSampleRate)
	speaker, err := sys.OpenSpeaker(mixer)
	if err != nil {
		sys.Terminate()
		return nil, err
	}
	return &deviceSet{
		Provider: audio.Devices{Microphone: sys.OpenMicrophone, Visual: audio.SystemVisual},
		Mixer:    mixer,
		close: func() {
			if err := speaker.Close(); err != nil {
				logger.Warn("speaker close failed", "error", err)
			}
			_ = mixer.Close()
			sys.Terminate()
		},
	}, nil
}
