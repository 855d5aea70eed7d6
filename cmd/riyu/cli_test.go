package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberwithvishal/riyu/runtime/agents"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

type fakeController struct {
	agent   agents.Agent
	sent    []string
	toggled []types.VisualMode
	live    bool
	stopped bool
	cleared bool
	sendErr error
}

func newFakeController() *fakeController {
	a, _ := agents.Get(agents.Riyu)
	return &fakeController{agent: a}
}

func (f *fakeController) Agent() agents.Agent { return f.agent }

func (f *fakeController) SendMessage(_ context.Context, text string) (types.Message, error) {
	f.sent = append(f.sent, text)
	if f.sendErr != nil {
		return types.Message{}, f.sendErr
	}
	return types.NewMessage(types.SenderAI, "echo: "+text), nil
}

func (f *fakeController) SwitchAgent(_ context.Context, id agents.ID) (agents.Agent, error) {
	a, err := agents.Lookup(string(id))
	if err != nil {
		return agents.Agent{}, err
	}
	f.agent = a
	return a, nil
}

func (f *fakeController) Clear(context.Context) error {
	f.cleared = true
	return nil
}

func (f *fakeController) ToggleLive(_ context.Context, mode types.VisualMode) error {
	same := len(f.toggled) > 0 && f.toggled[len(f.toggled)-1] == mode
	f.toggled = append(f.toggled, mode)
	f.live = !(f.live && same)
	return nil
}

func (f *fakeController) IsLive() bool { return f.live }

func (f *fakeController) StopLive() {
	f.stopped = true
	f.live = false
}

func TestREPLSendsAndHandlesCommands(t *testing.T) {
	var out bytes.Buffer
	ctrl := newFakeController()
	var savedNotes string
	r := &repl{
		ctrl: ctrl,
		con:  newConsole(&out),
		notes: func(_ context.Context, notes string) error {
			savedNotes = notes
			return nil
		},
	}

	in := strings.NewReader("hello\n\n/agent code-master\n/notes likes tea\n/clear\n/agents\n/bogus\n/quit\nnever sent\n")
	require.NoError(t, r.run(context.Background(), in))

	assert.Equal(t, []string{"hello"}, ctrl.sent)
	assert.Equal(t, agents.CodeMaster, ctrl.agent.ID)
	assert.Equal(t, "likes tea", savedNotes)
	assert.True(t, ctrl.cleared)

	text := out.String()
	assert.Contains(t, text, "echo: hello")
	assert.Contains(t, text, "Switched to")
	assert.Contains(t, text, "unknown command /bogus")
	assert.Contains(t, text, string(agents.CyberRed))
}

func TestREPLReportsErrorsAndContinues(t *testing.T) {
	var out bytes.Buffer
	ctrl := newFakeController()
	ctrl.sendErr = errors.New("boom")
	r := &repl{ctrl: ctrl, con: newConsole(&out)}

	require.NoError(t, r.run(context.Background(), strings.NewReader("hi\n/agent nobody\n/notes x\nagain\n")))
	assert.Equal(t, []string{"hi", "again"}, ctrl.sent)
	assert.Contains(t, out.String(), "boom")
	assert.Contains(t, out.String(), "notes are not available")
}

func TestHandleLiveLine(t *testing.T) {
	ctx := context.Background()
	ctrl := newFakeController()
	ctrl.live = true

	done, err := handleLiveLine(ctx, ctrl, "  ")
	require.NoError(t, err)
	assert.False(t, done)

	done, err = handleLiveLine(ctx, ctrl, "Camera")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, []types.VisualMode{types.VisualCamera}, ctrl.toggled)
	assert.True(t, ctrl.IsLive())

	done, err = handleLiveLine(ctx, ctrl, "what do you see?")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, []string{"what do you see?"}, ctrl.sent)

	// Same mode again ends the session.
	done, err = handleLiveLine(ctx, ctrl, "camera")
	require.NoError(t, err)
	assert.True(t, done)

	ctrl.live = true
	done, err = handleLiveLine(ctx, ctrl, "stop")
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, ctrl.stopped)
}

func TestConsoleMessageLabels(t *testing.T) {
	var out bytes.Buffer
	con := newConsole(&out)
	a, ok := agents.Get(agents.CyberBlue)
	require.True(t, ok)

	con.Message(a, types.NewMessage(types.SenderUser, "scan the network"))
	con.Message(a, types.NewMessage(types.SenderAI, "perimeter is clean"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "YOU")
	assert.Contains(t, lines[0], "scan the network")
	assert.Contains(t, lines[1], a.Name)
	assert.Contains(t, lines[1], "perimeter is clean")
}

func TestAgentsCommandMarksActive(t *testing.T) {
	var out bytes.Buffer
	newConsole(&out).Agents(agents.AutoSys)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, len(agents.All()))
	for _, line := range lines {
		if strings.Contains(line, "("+string(agents.AutoSys)+")") {
			assert.True(t, strings.HasPrefix(line, "*"))
		} else {
			assert.True(t, strings.HasPrefix(line, " "))
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "riyu version")
}
