package statestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

// setupRedisKV creates a test Redis store with miniredis
func setupRedisKV(t *testing.T, opts ...RedisOption) (*RedisKV, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisKV(client, opts...), mr
}

func backends(t *testing.T) map[string]KV {
	redisKV, _ := setupRedisKV(t)
	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   NewFileKV(filepath.Join(t.TempDir(), "nested", "store.json")),
		"redis":  redisKV,
	}
}

func TestKVContract(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := kv.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, kv.Set(ctx, "k", []byte("v1")))
			require.NoError(t, kv.Set(ctx, "k", []byte("v2")))
			got, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)

			require.NoError(t, kv.Delete(ctx, "k"))
			require.NoError(t, kv.Delete(ctx, "k"))
			_, err = kv.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, kv.Set(ctx, "", nil), ErrInvalidKey)
			_, err = kv.Get(ctx, "")
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestMemoryKVCopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	v := []byte("abc")
	require.NoError(t, kv.Set(ctx, "k", v))
	v[0] = 'x'

	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryKVTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kv := NewMemoryKV(WithMemoryTTL(time.Minute))
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	now = now.Add(59 * time.Second)
	_, err := kv.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileKVSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, NewFileKV(path).Set(ctx, "k", []byte("persisted")))

	got, err := NewFileKV(path).Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}

func TestFileKVCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileKV(path).Get(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisKVPrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupRedisKV(t, WithPrefix("test"), WithTTL(time.Hour))

	require.NoError(t, kv.Set(ctx, HistoryKey, []byte("[]")))
	assert.True(t, mr.Exists("test:"+HistoryKey))
	assert.Equal(t, time.Hour, mr.TTL("test:"+HistoryKey))

	mr.FastForward(2 * time.Hour)
	_, err := kv.Get(ctx, HistoryKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisKVNoTTL(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupRedisKV(t, WithTTL(0))
	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	assert.Zero(t, mr.TTL("riyu:k"))
}

func TestRedisKVUnavailable(t *testing.T) {
	kv, mr := setupRedisKV(t)
	mr.Close()

	_, err := kv.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(NewMemoryKV())

	msgs, err := h.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	saved := []types.Message{
		types.NewMessage(types.SenderUser, "Riyu, battery?"),
		types.NewMessage(types.SenderAI, "94% hai, Vishal."),
	}
	require.NoError(t, h.Save(ctx, saved))

	loaded, err := h.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, saved[0].ID, loaded[0].ID)
	assert.Equal(t, types.SenderAI, loaded[1].Sender)
	assert.True(t, saved[1].Timestamp.Equal(loaded[1].Timestamp))

	require.NoError(t, h.Clear(ctx))
	loaded, err = h.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestHistoryCorruptEntryStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(ctx, HistoryKey, []byte("definitely not json")))

	msgs, err := NewHistory(kv).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestHistoryNotes(t *testing.T) {
	ctx := context.Background()
	h := NewHistory(NewMemoryKV())

	notes, err := h.Notes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)

	require.NoError(t, h.SaveNotes(ctx, "Vishal likes lofi"))
	notes, err = h.Notes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Vishal likes lofi", notes)
}
