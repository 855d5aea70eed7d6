package config

import (
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// RiyuConfig is the top-level K8s-style manifest.
//
//	apiVersion: riyu.cyberwithvishal.dev/v1alpha1
//	kind: RiyuConfig
//	metadata:
//	  name: desktop
//	spec:
//	  gemini: {...}
type RiyuConfig struct {
	APIVersion string            `yaml:"apiVersion"`
	Kind       string            `yaml:"kind"`
	Metadata   metav1.ObjectMeta `yaml:"metadata,omitempty"`
	Spec       Spec              `yaml:"spec"`
}

// Spec holds every configurable part of the assistant.
type Spec struct {
	Gemini    GeminiSpec        `yaml:"gemini"`
	Audio     AudioSpec         `yaml:"audio"`
	Store     StoreSpec         `yaml:"store"`
	AgentLog  AgentLogSpec      `yaml:"agentLog"`
	Server    ServerSpec        `yaml:"server"`
	Metrics   MetricsSpec       `yaml:"metrics"`
	Telemetry TelemetrySpec     `yaml:"telemetry"`
	Logging   LoggingConfigSpec `yaml:"logging"`

	// Agent is the ID of the persona selected at startup.
	Agent string `yaml:"agent,omitempty"`

	// FlushPlaybackOnInterrupt drops scheduled model audio when the remote reports
	// that the user barged in. Nil means true.
	FlushPlaybackOnInterrupt *bool `yaml:"flushPlaybackOnInterrupt,omitempty"`
}

// GeminiSpec configures the hosted model endpoints.
type GeminiSpec struct {
	// APIKey is normally supplied through GEMINI_API_KEY rather than the file.
	APIKey    string `yaml:"apiKey,omitempty"`
	LiveURL   string `yaml:"liveURL,omitempty"`
	LiveModel string `yaml:"liveModel,omitempty"`
	ChatModel string `yaml:"chatModel,omitempty"`
	Voice     string `yaml:"voice,omitempty"`
}

// AudioSpec configures capture and playback.
type AudioSpec struct {
	CaptureSampleRate  int `yaml:"captureSampleRate,omitempty"`
	PlaybackSampleRate int `yaml:"playbackSampleRate,omitempty"`
	FramesPerBuffer    int `yaml:"framesPerBuffer,omitempty"`
	// UplinkQueue bounds the number of encoded frames waiting to be sent.
	UplinkQueue int `yaml:"uplinkQueue,omitempty"`
}

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// StoreSpec selects where conversation history and notes are persisted.
type StoreSpec struct {
	Backend   string        `yaml:"backend,omitempty"`
	Path      string        `yaml:"path,omitempty"`
	RedisAddr string        `yaml:"redisAddr,omitempty"`
	Prefix    string        `yaml:"prefix,omitempty"`
	TTL       time.Duration `yaml:"ttl,omitempty"`
}

// AgentLogSpec configures the SQLite activity log.
type AgentLogSpec struct {
	Path string `yaml:"path,omitempty"`
}

// ServerSpec configures the HTTP backend.
type ServerSpec struct {
	Addr string `yaml:"addr,omitempty"`
	// OfflineRateLimit is the sustained offline command rate per second.
	OfflineRateLimit float64 `yaml:"offlineRateLimit,omitempty"`
	OfflineBurst     int     `yaml:"offlineBurst,omitempty"`
}

// MetricsSpec configures the standalone Prometheus listener used by the CLI.
type MetricsSpec struct {
	Addr string `yaml:"addr,omitempty"`
}

// TelemetrySpec configures OTLP trace export. Empty endpoint disables tracing.
type TelemetrySpec struct {
	OTLPEndpoint string `yaml:"otlpEndpoint,omitempty"`
	ServiceName  string `yaml:"serviceName,omitempty"`
}

// Defaults used when a field is left empty.
const (
	DefaultLiveURL            = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"
	DefaultLiveModel          = "gemini-2.5-flash-native-audio-preview-12-2025"
	DefaultChatModel          = "gemini-3-flash-preview"
	DefaultVoice              = "Puck"
	DefaultCaptureSampleRate  = 16000
	DefaultPlaybackSampleRate = 24000
	DefaultFramesPerBuffer    = 4096
	DefaultUplinkQueue        = 32
	DefaultStorePath          = "riyu-memory.json"
	DefaultStorePrefix        = "riyu"
	DefaultAgentLogPath       = "riyu-agents.db"
	DefaultServerAddr         = ":8000"
	DefaultOfflineRateLimit   = 2.0
	DefaultOfflineBurst       = 5
	DefaultAgent              = "riyu"
	DefaultServiceName        = "riyu"
)

// Default returns a manifest with every default applied.
func Default() *RiyuConfig {
	cfg := &RiyuConfig{APIVersion: APIVersion, Kind: KindRiyuConfig}
	cfg.Metadata.Name = "default"
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields in place.
func (c *RiyuConfig) ApplyDefaults() {
	s := &c.Spec
	setString(&s.Gemini.LiveURL, DefaultLiveURL)
	setString(&s.Gemini.LiveModel, DefaultLiveModel)
	setString(&s.Gemini.ChatModel, DefaultChatModel)
	setString(&s.Gemini.Voice, DefaultVoice)
	setInt(&s.Audio.CaptureSampleRate, DefaultCaptureSampleRate)
	setInt(&s.Audio.PlaybackSampleRate, DefaultPlaybackSampleRate)
	setInt(&s.Audio.FramesPerBuffer, DefaultFramesPerBuffer)
	setInt(&s.Audio.UplinkQueue, DefaultUplinkQueue)
	setString(&s.Store.Backend, StoreFile)
	setString(&s.Store.Path, DefaultStorePath)
	setString(&s.Store.Prefix, DefaultStorePrefix)
	setString(&s.AgentLog.Path, DefaultAgentLogPath)
	setString(&s.Server.Addr, DefaultServerAddr)
	if s.Server.OfflineRateLimit == 0 {
		s.Server.OfflineRateLimit = DefaultOfflineRateLimit
	}
	setInt(&s.Server.OfflineBurst, DefaultOfflineBurst)
	setString(&s.Telemetry.ServiceName, DefaultServiceName)
	setString(&s.Logging.DefaultLevel, LogLevelInfo)
	setString(&s.Logging.Format, LogFormatText)
	setString(&s.Agent, DefaultAgent)
	if s.FlushPlaybackOnInterrupt == nil {
		flush := true
		s.FlushPlaybackOnInterrupt = &flush
	}
}

// ShouldFlushOnInterrupt reports the effective FlushPlaybackOnInterrupt value.
func (s *Spec) ShouldFlushOnInterrupt() bool {
	return s.FlushPlaybackOnInterrupt == nil || *s.FlushPlaybackOnInterrupt
}

func setString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}
