package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cyberwithvishal/riyu/pkg/config"
	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/telemetry"
	"github.com/cyberwithvishal/riyu/runtime/version"
)

const envPrefix = "RIYU"

// apiKeyEnv lists the variables consulted for the Gemini key, in order.
var apiKeyEnv = []string{"GEMINI_API_KEY", "API_KEY"}

// loadDotEnv reads KEY=value pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// configureViper makes v resolve dotted keys from RIYU_* variables,
// e.g. store.redis_addr from RIYU_STORE_REDIS_ADDR.
func configureViper(v *viper.Viper) *viper.Viper {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// loadSettings reads the manifest named by the "config" key (or the
// defaults), applies viper overrides and the API key, then validates.
func loadSettings(v *viper.Viper) (*config.RiyuConfig, error) {
	cfg := config.Default()
	if path := v.GetString(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyOverrides(v, &cfg.Spec)
	if cfg.Spec.Gemini.APIKey == "" {
		cfg.Spec.Gemini.APIKey = apiKeyFromEnv()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(v *viper.Viper, s *config.Spec) {
	overrideString(v, flagAgent, &s.Agent)
	overrideString(v, "gemini.api_key", &s.Gemini.APIKey)
	overrideString(v, "gemini.live_model", &s.Gemini.LiveModel)
	overrideString(v, "gemini.chat_model", &s.Gemini.ChatModel)
	overrideString(v, "gemini.voice", &s.Gemini.Voice)
	overrideString(v, "store.backend", &s.Store.Backend)
	overrideString(v, "store.path", &s.Store.Path)
	overrideString(v, "store.redis_addr", &s.Store.RedisAddr)
	overrideString(v, "agent_log.path", &s.AgentLog.Path)
	overrideString(v, "server.addr", &s.Server.Addr)
	overrideString(v, "metrics.addr", &s.Metrics.Addr)
	overrideString(v, "telemetry.otlp_endpoint", &s.Telemetry.OTLPEndpoint)
	overrideString(v, "logging.level", &s.Logging.DefaultLevel)
	overrideString(v, "logging.format", &s.Logging.Format)
	if v.IsSet("flush_on_interrupt") {
		flush := v.GetBool("flush_on_interrupt")
		s.FlushPlaybackOnInterrupt = &flush
	}
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if val := v.GetString(key); val != "" {
		*dst = val
	}
}

func apiKeyFromEnv() string {
	for _, name := range apiKeyEnv {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

// setupObservability configures the global logger and tracer provider.
func setupObservability(ctx context.Context, cfg *config.RiyuConfig, verbose bool) (telemetry.ShutdownFunc, error) {
	if err := logger.Configure(cfg.Spec.Logging.ToLoggerSpec()); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	if verbose {
		logger.SetVerbose(true)
	}
	logger.Info("riyu starting", version.Get().LogAttrs()...)

	return telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Spec.Telemetry.OTLPEndpoint,
		ServiceName: cfg.Spec.Telemetry.ServiceName,
		Version:     version.GetVersion(),
	})
}
