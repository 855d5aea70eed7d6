package types

import "fmt"

// VisualMode selects the optional visual capture stream of a live session.
type VisualMode string

// Visual modes. The microphone is captured in every mode.
const (
	VisualNone   VisualMode = "none"
	VisualCamera VisualMode = "camera"
	VisualScreen VisualMode = "screen"
)

// ParseVisualMode accepts "", "none", "camera" and "screen".
func ParseVisualMode(s string) (VisualMode, error) {
	switch VisualMode(s) {
	case "", VisualNone:
		return VisualNone, nil
	case VisualCamera, VisualScreen:
		return VisualMode(s), nil
	}
	return VisualNone, fmt.Errorf("unknown visual mode %q", s)
}

// LiveEvent is one item of the remote realtime stream. The concrete types are
// AudioEvent, TranscriptEvent, ToolCallEvent, InterruptedEvent,
// TurnCompleteEvent and ClosedEvent.
type LiveEvent interface {
	liveEvent()
}

// AudioEvent carries model speech as little-endian PCM16.
type AudioEvent struct {
	PCM        []byte
	SampleRate int
}

// TranscriptEvent is a partial or complete transcription of either side.
type TranscriptEvent struct {
	Text   string
	IsUser bool
}

// ToolCallEvent carries one or more function calls the model wants answered.
type ToolCallEvent struct {
	Calls []ToolInvocation
}

// InterruptedEvent reports that the user barged in over model speech.
type InterruptedEvent struct{}

// TurnCompleteEvent marks the end of a model turn.
type TurnCompleteEvent struct{}

// ClosedEvent is the last event of a stream. Err is nil on a clean close.
type ClosedEvent struct {
	Err error
}

func (AudioEvent) liveEvent()        {}
func (TranscriptEvent) liveEvent()   {}
func (ToolCallEvent) liveEvent()     {}
func (InterruptedEvent) liveEvent()  {}
func (TurnCompleteEvent) liveEvent() {}
func (ClosedEvent) liveEvent()       {}
