package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberwithvishal/riyu/pkg/config"
	"github.com/cyberwithvishal/riyu/runtime/conversation"
	"github.com/cyberwithvishal/riyu/runtime/statestore"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	specs := map[string]config.StoreSpec{
		"memory": {Backend: config.StoreMemory, TTL: time.Hour},
		"file":   {Backend: config.StoreFile, Path: filepath.Join(t.TempDir(), "memory.json")},
		"redis":  {Backend: config.StoreRedis, RedisAddr: mr.Addr(), Prefix: "test", TTL: time.Hour},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			kv, closeKV, err := openStore(ctx, spec)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeKV()) }()

			require.NoError(t, kv.Set(ctx, "k", []byte("v")))
			got, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", string(got))
		})
	}
	assert.True(t, mr.Exists("test:k"))
}

func TestOpenStoreErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := openStore(ctx, config.StoreSpec{Backend: "etcd"})
	assert.Error(t, err)

	_, _, err = openStore(ctx, config.StoreSpec{Backend: config.StoreRedis, RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestOpenAppPersistsHistory(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Spec.Store.Path = filepath.Join(dir, "memory.json")
	cfg.Spec.AgentLog.Path = filepath.Join(dir, "agents.db")

	a, err := openApp(ctx, cfg, toolOptions{})
	require.NoError(t, err)
	require.NoError(t, a.history.Save(ctx, []types.Message{types.NewMessage(types.SenderUser, "hello")}))
	require.NoError(t, a.Close())

	kv := statestore.NewFileKV(cfg.Spec.Store.Path)
	msgs, err := statestore.NewHistory(kv).Load(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
}

func TestNewDispatcherRegistersBuiltins(t *testing.T) {
	d := newDispatcher(toolOptions{openURLs: true, runCommands: true})
	assert.Len(t, d.Registry().Defs(), 3)
}

func TestNewChatRequiresKey(t *testing.T) {
	a := &app{cfg: config.Default()}
	_, err := a.newChat(context.Background())
	assert.ErrorIs(t, err, errMissingAPIKey)
}

func TestControllerWithoutChatFallsBack(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Spec.Store.Backend = config.StoreMemory
	cfg.Spec.AgentLog.Path = filepath.Join(t.TempDir(), "agents.db")
	cfg.Spec.Agent = "cyber-red"

	a, err := openApp(ctx, cfg, toolOptions{})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	ctrl, err := a.newController(ctx, nil, nil, conversation.Config{})
	require.NoError(t, err)
	assert.Equal(t, "cyber-red", string(ctrl.Agent().ID))

	msg, err := ctrl.SendMessage(ctx, "status?")
	require.NoError(t, err)
	assert.Equal(t, types.SenderAI, msg.Sender)
	assert.NotEmpty(t, msg.Text)

	entries, err := a.agentLog.Recent(ctx, "cyber-red", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
