package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

type recordingLauncher struct {
	urls []string
	err  error
}

func (l *recordingLauncher) Open(_ context.Context, url string) error {
	l.urls = append(l.urls, url)
	return l.err
}

type stubRunner struct {
	out string
	err error
	ran []string
}

func (r *stubRunner) Run(_ context.Context, cmd string) (string, error) {
	r.ran = append(r.ran, cmd)
	return r.out, r.err
}

func call(id, name, args string) types.ToolInvocation {
	return types.ToolInvocation{ID: id, Name: name, Args: json.RawMessage(args)}
}

func TestDispatchAnswersEveryCallOnce(t *testing.T) {
	d := NewDispatcher(NewDefaultRegistry())
	calls := []types.ToolInvocation{
		call("1", ExecuteLinuxCommand, `{"command":"df -h"}`),
		call("2", ControlWebAndMedia, `{"action":"search","query":"cats"}`),
		call("3", AnalyzeEnvironment, `{}`),
		call("4", "teleport", `{"where":"mars"}`),
		call("5", ControlWebAndMedia, `{"query":"missing action"}`),
	}

	results := d.Dispatch(context.Background(), calls)
	require.Len(t, results, len(calls))
	for i, r := range results {
		assert.Equal(t, calls[i].ID, r.ID)
		assert.Equal(t, calls[i].Name, r.Name)
		assert.NotEmpty(t, r.Result)
	}

	assert.Equal(t, "Riyu: Executed OS Command [df -h]. System process running.", results[0].Result)
	assert.Contains(t, results[1].Result, "https://www.google.com/search?q=cats")
	assert.Equal(t, GenericResult, results[2].Result)
	assert.Equal(t, GenericResult, results[3].Result)
	assert.False(t, results[3].IsError)
	assert.True(t, results[4].IsError)
	assert.Contains(t, results[4].Result, "action")
}

func TestControlWebAndMediaResults(t *testing.T) {
	d := NewDispatcher(NewDefaultRegistry())

	r := d.Call(context.Background(), call("a", ControlWebAndMedia, `{"action":"play_music","platform":"spotify","query":"lofi"}`))
	assert.Equal(t, `Babu, Maine spotify pe "lofi" open kar diya hai (https://open.spotify.com/search/lofi). Browser check kijiye!`, r.Result)

	r = d.Call(context.Background(), call("b", ControlWebAndMedia, `{"action":"search","query":"cats"}`))
	assert.True(t, strings.HasPrefix(r.Result, "Babu, Maine web pe \"cats\""))
}

func TestWebTarget(t *testing.T) {
	tests := []struct {
		action, query, platform, want string
	}{
		{ActionSearch, "cats", "", "https://www.google.com/search?q=cats"},
		{ActionSearch, "golang channels & select", PlatformGoogle, "https://www.google.com/search?q=golang%20channels%20%26%20select"},
		{ActionPlayMusic, "lofi", PlatformSpotify, "https://open.spotify.com/search/lofi"},
		{ActionPlayMusic, "arijit singh", PlatformYouTube, "https://www.youtube.com/results?search_query=arijit%20singh"},
		{ActionPlayMusic, "lofi", "", "https://www.youtube.com/results?search_query=lofi"},
		{ActionOpenURL, "https://github.com/?tab=1", "", "https://github.com/?tab=1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WebTarget(tt.action, tt.query, tt.platform), "%s %q", tt.action, tt.query)
	}
}

func TestEncodeURIComponent(t *testing.T) {
	assert.Equal(t, "a-b_c.d!e~f*g'h(i)j", EncodeURIComponent("a-b_c.d!e~f*g'h(i)j"))
	assert.Equal(t, "%2F%3F%3D%2B%20%23", EncodeURIComponent("/?=+ #"))
	assert.Equal(t, "%E0%A4%A8%E0%A4%AE", EncodeURIComponent("नम"))
}

func TestSideChannels(t *testing.T) {
	launcher := &recordingLauncher{err: errors.New("no display")}
	runner := &stubRunner{out: "  up 3 days \n"}
	d := NewDispatcher(NewDefaultRegistry(WithLauncher(launcher), WithCommandRunner(runner)))

	r := d.Call(context.Background(), call("1", ControlWebAndMedia, `{"action":"open_url","query":"https://example.com"}`))
	assert.False(t, r.IsError, "launcher failure must not fail the call")
	assert.Equal(t, []string{"https://example.com"}, launcher.urls)

	r = d.Call(context.Background(), call("2", ExecuteLinuxCommand, `{"command":"uptime"}`))
	assert.Equal(t, []string{"uptime"}, runner.ran)
	assert.Equal(t, "Riyu: Executed OS Command [uptime]. System process running.\nOutput:\nup 3 days", r.Result)

	runner.err = errors.New("exit 1")
	r = d.Call(context.Background(), call("3", ExecuteLinuxCommand, `{"command":"false"}`))
	assert.False(t, r.IsError)
	assert.Equal(t, "Riyu: Executed OS Command [false]. System process running.", r.Result)
}

func TestDispatchRecoversFromPanickingHandler(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&ToolDescriptor{Name: "boom"}, HandlerFunc(func(context.Context, json.RawMessage) (string, error) {
		panic("kaboom")
	})))

	r := NewDispatcher(reg).Call(context.Background(), call("x", "boom", ``))
	assert.Equal(t, "x", r.ID)
	assert.True(t, r.IsError)
}

func TestDispatchSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	d := NewDispatcher(NewDefaultRegistry())
	d.tracer = tp.Tracer(tracerName)
	d.Call(context.Background(), call("1", AnalyzeEnvironment, `{}`))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "riyu.tool.dispatch", spans[0].Name)
}

func TestRegistry(t *testing.T) {
	reg := NewDefaultRegistry()
	assert.Equal(t, []string{ExecuteLinuxCommand, AnalyzeEnvironment, ControlWebAndMedia}, reg.List())
	assert.NotNil(t, reg.Get(ControlWebAndMedia))
	assert.Nil(t, reg.Get("nope"))

	defs := reg.Defs()
	require.Len(t, defs, 3)
	assert.JSONEq(t, string(webControlTool.InputSchema), string(defs[2].Parameters))

	assert.ErrorIs(t, reg.Register(&ToolDescriptor{Name: AnalyzeEnvironment}, nil), ErrDuplicateTool)
	assert.ErrorIs(t, reg.Register(&ToolDescriptor{}, nil), ErrToolNameRequired)
	assert.Error(t, reg.Register(&ToolDescriptor{Name: "bad", InputSchema: json.RawMessage(`{"type": 7}`)}, nil))
}

func TestShellRunnerExitCode(t *testing.T) {
	out, err := ShellRunner{}.Run(context.Background(), "echo riyu")
	require.NoError(t, err)
	assert.Equal(t, "riyu\n", out)

	_, err = ShellRunner{}.Run(context.Background(), "exit 3")
	assert.Error(t, err)
}
