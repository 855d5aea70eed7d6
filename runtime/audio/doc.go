// Package audio owns the device side of a live session: microphone and visual
// capture, PCM16 conversion, and gap-free scheduling of model speech.
//
// Capture frames are 16 kHz mono float32 blocks of FrameSize samples. Playback
// segments arrive at 24 kHz and are placed on a PlaybackDevice clock by the
// Scheduler so that each one starts when the previous one ends, and never
// before the device's current time:
//
//	sched := audio.NewScheduler(audio.NewMixer(audio.PlaybackSampleRate))
//	for seg := range segments {
//	    sched.Schedule(seg)
//	}
//	sched.Reset() // on stop
package audio
