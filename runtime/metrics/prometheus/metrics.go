// Package prometheus provides Prometheus metrics for the live bridge, tool
// dispatch and chat path, plus an HTTP exporter.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "riyu"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDropped = "dropped"
	StatusSent    = "sent"
)

var (
	// liveSessionsActive is a gauge of open live sessions.
	liveSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_sessions_active",
			Help:      "Number of currently open live sessions",
		},
	)

	// liveSessionsTotal counts session start attempts.
	liveSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_sessions_total",
			Help:      "Total number of live session start attempts",
		},
		[]string{"status"}, // status: success, error
	)

	// uplinkFramesTotal counts microphone frames by outcome.
	uplinkFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uplink_frames_total",
			Help:      "Total number of captured audio frames by uplink outcome",
		},
		[]string{"status"}, // status: sent, dropped, error
	)

	// playbackSegmentsTotal counts scheduled playback segments.
	playbackSegmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_segments_total",
			Help:      "Total number of audio segments scheduled for playback",
		},
	)

	// playbackLead is how far ahead of the device clock segments start.
	playbackLead = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "playback_lead_seconds",
			Help:      "Delay between scheduling a segment and its start on the device clock",
			Buckets:   []float64{0, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// toolCallDuration is a histogram of tool call duration.
	toolCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Duration of tool calls in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"tool"},
	)

	// toolCallsTotal is a counter of tool calls.
	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls",
		},
		[]string{"tool", "status"}, // status: success, error
	)

	// chatRequestsTotal counts turn-based chat calls.
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Total number of chat requests",
		},
		[]string{"status"},
	)

	// chatRequestDuration is a histogram of chat round trips.
	chatRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_duration_seconds",
			Help:      "Duration of chat requests in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// transcriptsTotal counts transcript fragments by speaker.
	transcriptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_total",
			Help:      "Total number of transcript fragments received",
		},
		[]string{"speaker"}, // speaker: user, ai
	)

	// liveEventsTotal counts remote events by kind.
	liveEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "live_events_total",
			Help:      "Total number of events received from live sessions",
		},
		[]string{"type"},
	)

	// offlineCommandsTotal counts commands handled by the offline engine.
	offlineCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_commands_total",
			Help:      "Total number of offline commands by matched command",
		},
		[]string{"command", "status"},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		liveSessionsActive,
		liveSessionsTotal,
		uplinkFramesTotal,
		playbackSegmentsTotal,
		playbackLead,
		toolCallDuration,
		toolCallsTotal,
		chatRequestsTotal,
		chatRequestDuration,
		transcriptsTotal,
		liveEventsTotal,
		offlineCommandsTotal,
	}
)

// RecordLiveSessionStart records a start attempt; success also raises the active gauge.
func RecordLiveSessionStart(status string) {
	liveSessionsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		liveSessionsActive.Inc()
	}
}

// RecordLiveSessionEnd lowers the active gauge.
func RecordLiveSessionEnd() {
	liveSessionsActive.Dec()
}

// RecordUplinkFrame records the outcome of one captured frame.
func RecordUplinkFrame(status string) {
	uplinkFramesTotal.WithLabelValues(status).Inc()
}

// RecordPlaybackSegment records a scheduled segment and its lead time.
func RecordPlaybackSegment(leadSeconds float64) {
	playbackSegmentsTotal.Inc()
	playbackLead.Observe(leadSeconds)
}

// RecordToolCall records a tool call.
func RecordToolCall(toolName, status string, durationSeconds float64) {
	toolCallDuration.WithLabelValues(toolName).Observe(durationSeconds)
	toolCallsTotal.WithLabelValues(toolName, status).Inc()
}

// RecordChatRequest records a chat round trip.
func RecordChatRequest(status string, durationSeconds float64) {
	chatRequestsTotal.WithLabelValues(status).Inc()
	chatRequestDuration.Observe(durationSeconds)
}

// RecordTranscript counts one transcript fragment.
func RecordTranscript(isUser bool) {
	speaker := "ai"
	if isUser {
		speaker = "user"
	}
	transcriptsTotal.WithLabelValues(speaker).Inc()
}

// RecordLiveEvent counts one remote event of the given kind.
func RecordLiveEvent(kind string) {
	liveEventsTotal.WithLabelValues(kind).Inc()
}

// RecordOfflineCommand counts one offline command.
func RecordOfflineCommand(command, status string) {
	offlineCommandsTotal.WithLabelValues(command, status).Inc()
}
