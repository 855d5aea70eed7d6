package prometheus

import (
	"github.com/cyberwithvishal/riyu/runtime/types"
)

// LiveEventRecorder records remote live events as metrics. The bridge hands it
// every event it consumes.
type LiveEventRecorder struct{}

// NewLiveEventRecorder creates a LiveEventRecorder.
func NewLiveEventRecorder() *LiveEventRecorder {
	return &LiveEventRecorder{}
}

// Observe records one event.
func (r *LiveEventRecorder) Observe(ev types.LiveEvent) {
	//exhaustive:ignore
	switch e := ev.(type) {
	case types.AudioEvent:
		RecordLiveEvent("audio")
	case types.TranscriptEvent:
		RecordLiveEvent("transcript")
		RecordTranscript(e.IsUser)
	case types.ToolCallEvent:
		RecordLiveEvent("tool_call")
	case types.InterruptedEvent:
		RecordLiveEvent("interrupted")
	case types.TurnCompleteEvent:
		RecordLiveEvent("turn_complete")
	case types.ClosedEvent:
		RecordLiveEvent("closed")
	}
}
