package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cyberwithvishal/riyu/pkg/config"
	"github.com/cyberwithvishal/riyu/pkg/httputil"
	"github.com/cyberwithvishal/riyu/runtime/agentlog"
	"github.com/cyberwithvishal/riyu/runtime/agents"
	"github.com/cyberwithvishal/riyu/runtime/conversation"
	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/providers/gemini"
	"github.com/cyberwithvishal/riyu/runtime/statestore"
	"github.com/cyberwithvishal/riyu/runtime/tools"
)

// toolOptions enables the host side effects of the built-in tools.
type toolOptions struct {
	openURLs    bool
	runCommands bool
}

// app holds the process-wide collaborators shared by every command.
type app struct {
	cfg        *config.RiyuConfig
	history    *statestore.History
	agentLog   *agentlog.SQLiteStore
	dispatcher *tools.Dispatcher

	closers []func() error
}

// openApp opens the conversation store and the agent log and builds the tool
// dispatcher. Close releases everything that was opened.
func openApp(ctx context.Context, cfg *config.RiyuConfig, opts toolOptions) (*app, error) {
	a := &app{cfg: cfg, dispatcher: newDispatcher(opts)}

	kv, closeKV, err := openStore(ctx, cfg.Spec.Store)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeKV)
	a.history = statestore.NewHistory(kv)

	log, err := agentlog.Open(cfg.Spec.AgentLog.Path)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.agentLog = log
	a.closers = append(a.closers, log.Close)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openStore builds the statestore backend named by spec.
func openStore(ctx context.Context, spec config.StoreSpec) (statestore.KV, func() error, error) {
	noop := func() error { return nil }
	switch spec.Backend {
	case config.StoreMemory:
		var opts []statestore.MemoryOption
		if spec.TTL > 0 {
			opts = append(opts, statestore.WithMemoryTTL(spec.TTL))
		}
		return statestore.NewMemoryKV(opts...), noop, nil
	case config.StoreFile:
		return statestore.NewFileKV(spec.Path), noop, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: spec.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", spec.RedisAddr, err)
		}
		opts := []statestore.RedisOption{statestore.WithPrefix(spec.Prefix)}
		if spec.TTL > 0 {
			opts = append(opts, statestore.WithTTL(spec.TTL))
		}
		return statestore.NewRedisKV(client, opts...), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", spec.Backend)
	}
}

func newDispatcher(opts toolOptions) *tools.Dispatcher {
	var toolOpts []tools.Option
	if opts.openURLs {
		toolOpts = append(toolOpts, tools.WithLauncher(tools.XDGOpen{}))
	}
	if opts.runCommands {
		toolOpts = append(toolOpts, tools.WithCommandRunner(tools.ShellRunner{}))
	}
	return tools.NewDispatcher(tools.NewDefaultRegistry(toolOpts...))
}

// newChat builds the genai-backed chat opener over a traced HTTP client.
func (a *app) newChat(ctx context.Context) (conversation.ChatOpener, error) {
	if a.cfg.Spec.Gemini.APIKey == "" {
		return nil, errMissingAPIKey
	}
	client, err := gemini.NewChatClient(ctx, gemini.ChatConfig{
		APIKey:     a.cfg.Spec.Gemini.APIKey,
		Model:      a.cfg.Spec.Gemini.ChatModel,
		HTTPClient: httputil.NewTracedClient(httputil.DefaultChatTimeout),
	})
	if err != nil {
		return nil, err
	}
	return conversation.GeminiChat{Client: client, Dispatcher: a.dispatcher}, nil
}

// newController builds a conversation controller for cfg.Agent. live may be
// nil for text-only commands.
func (a *app) newController(ctx context.Context, chat conversation.ChatOpener, live conversation.LiveBridge, hooks conversation.Config) (*conversation.Controller, error) {
	hooks.Chat = chat
	hooks.Live = live
	hooks.History = a.history
	hooks.AgentLog = a.agentLog
	hooks.Agent = agents.ID(a.cfg.Spec.Agent)
	hooks.FlushPlaybackOnInterrupt = a.cfg.Spec.ShouldFlushOnInterrupt()
	ctrl, err := conversation.New(ctx, hooks)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "conversation ready", "agent", ctrl.Agent().ID, "messages", len(ctrl.Messages()))
	return ctrl, nil
}

var errMissingAPIKey = errors.New("no Gemini API key: set GEMINI_API_KEY or spec.gemini.apiKey")
