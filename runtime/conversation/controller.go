// Package conversation owns the message list and coordinates the chat path
// with the live bridge.
package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	pkgerrors "github.com/cyberwithvishal/riyu/pkg/errors"
	"github.com/cyberwithvishal/riyu/runtime/agentlog"
	"github.com/cyberwithvishal/riyu/runtime/agents"
	"github.com/cyberwithvishal/riyu/runtime/live"
	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
	"github.com/cyberwithvishal/riyu/runtime/statestore"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

const tracerName = "github.com/cyberwithvishal/riyu/runtime/conversation"

// FallbackReply is appended when the chat service cannot be reached.
const FallbackReply = "RIYU: Signal lost. Vishal, local memory update checked."

// ErrEmptyMessage is returned for blank input.
var ErrEmptyMessage = errors.New("conversation: empty message")

// LiveBridge is the part of live.Bridge the controller drives.
type LiveBridge interface {
	Start(ctx context.Context, opts live.StartOptions) error
	Stop()
	IsOpen() bool
	VisualMode() types.VisualMode
	SwitchVisualMode(ctx context.Context, mode types.VisualMode) error
	FlushPlayback()
}

// Config wires a Controller.
type Config struct {
	Chat     ChatOpener
	Live     LiveBridge
	History  *statestore.History
	AgentLog agentlog.Store
	Agent    agents.ID

	// FlushPlaybackOnInterrupt stops queued speech when the user talks over it.
	FlushPlaybackOnInterrupt bool

	OnMessage       func(types.Message)
	OnInterrupted   func()
	OnVoiceActivity func(speaking bool)
	OnLiveClosed    func(err error)
}

// Controller is safe for concurrent use; live callbacks arrive on the
// bridge's goroutine.
type Controller struct {
	cfg    Config
	tracer trace.Tracer

	// sendMu serializes chat turns.
	sendMu sync.Mutex

	mu       sync.Mutex
	agent    agents.Agent
	messages []types.Message
	chat     ChatSender
}

// New loads the saved conversation and selects cfg.Agent (or the default).
// A history that cannot be read is logged and replaced by an empty one.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	agent, err := agents.Lookup(string(cfg.Agent))
	if err != nil {
		return nil, pkgerrors.New("conversation", "New", err)
	}
	c := &Controller{cfg: cfg, tracer: otel.Tracer(tracerName), agent: agent}

	if cfg.History != nil {
		msgs, err := cfg.History.Load(ctx)
		if err != nil {
			logger.WarnContext(ctx, "conversation history unavailable, starting empty", "error", err)
		}
		c.messages = msgs
	}
	return c, nil
}

// Agent is the active agent.
func (c *Controller) Agent() agents.Agent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agent
}

// Messages returns a copy of the conversation.
func (c *Controller) Messages() []types.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.Message(nil), c.messages...)
}

// IsLive reports whether a live session is open.
func (c *Controller) IsLive() bool {
	return c.cfg.Live != nil && c.cfg.Live.IsOpen()
}

// SendMessage appends text as a user message and asks the active agent for a
// reply. When the chat service fails the FallbackReply is appended instead;
// the returned error is nil in that case. An empty reply appends nothing and
// returns the zero Message.
func (c *Controller) SendMessage(ctx context.Context, text string) (types.Message, error) {
	if strings.TrimSpace(text) == "" {
		return types.Message{}, ErrEmptyMessage
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	agent := c.Agent()
	ctx = logger.WithAgent(ctx, string(agent.ID))
	ctx, span := c.tracer.Start(ctx, "riyu.chat.send", trace.WithAttributes(
		attribute.String("agent", string(agent.ID)),
	))
	defer span.End()

	prior := c.Messages()
	c.append(ctx, types.NewMessage(types.SenderUser, text), agentlog.KindUserMessage)

	start := time.Now()
	reply, err := c.send(ctx, agent, prior, text)
	if err != nil {
		prometheus.RecordChatRequest(prometheus.StatusError, time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.chatError(ctx, err)
		reply = FallbackReply
	} else {
		prometheus.RecordChatRequest(prometheus.StatusSuccess, time.Since(start).Seconds())
	}

	if reply == "" {
		return types.Message{}, nil
	}
	msg := types.NewMessage(types.SenderAI, reply)
	c.append(ctx, msg, agentlog.KindAgentMessage)
	return msg, nil
}

func (c *Controller) send(ctx context.Context, agent agents.Agent, prior []types.Message, text string) (string, error) {
	if c.cfg.Chat == nil {
		return "", errors.New("no chat service configured")
	}
	c.mu.Lock()
	chat := c.chat
	c.mu.Unlock()

	if chat == nil {
		if len(prior) > live.HistoryWindow {
			prior = prior[len(prior)-live.HistoryWindow:]
		}
		var err error
		if chat, err = c.cfg.Chat.Open(ctx, agent, prior); err != nil {
			return "", err
		}
		c.mu.Lock()
		if c.agent.ID == agent.ID {
			c.chat = chat
		}
		c.mu.Unlock()
	}
	return chat.Send(ctx, text)
}

func (c *Controller) chatError(ctx context.Context, err error) {
	model := ""
	if c.cfg.Chat != nil {
		model = c.cfg.Chat.Model()
	}
	logger.ChatError(ctx, model, err)
}

// AddTranscript appends a live transcript fragment unless it repeats the last
// message from the same speaker.
func (c *Controller) AddTranscript(text string, isUser bool) {
	sender := types.SenderAI
	kind := agentlog.KindAgentMessage
	if isUser {
		sender = types.SenderUser
		kind = agentlog.KindUserMessage
	}

	c.appendUnlessRepeat(context.Background(), types.NewMessage(sender, text), kind)
}

// append adds msg, persists the list and notifies the presenter.
func (c *Controller) append(ctx context.Context, msg types.Message, kind string) {
	c.appendMessage(ctx, msg, kind, false)
}

// appendUnlessRepeat is append, skipped when the last message has the same
// sender and text. The check and the append share one critical section.
func (c *Controller) appendUnlessRepeat(ctx context.Context, msg types.Message, kind string) {
	c.appendMessage(ctx, msg, kind, true)
}

func (c *Controller) appendMessage(ctx context.Context, msg types.Message, kind string, skipRepeat bool) {
	c.mu.Lock()
	if n := len(c.messages); skipRepeat && n > 0 {
		last := c.messages[n-1]
		if last.Sender == msg.Sender && last.Text == msg.Text {
			c.mu.Unlock()
			return
		}
	}
	c.messages = append(c.messages, msg)
	agentID := c.agent.ID
	if c.cfg.History != nil {
		if err := c.cfg.History.Save(ctx, c.messages); err != nil {
			logger.WarnContext(ctx, "failed to persist conversation", "error", err)
		}
	}
	c.mu.Unlock()

	c.logActivity(ctx, agentID, kind, msg.Text)
	if c.cfg.OnMessage != nil {
		c.cfg.OnMessage(msg)
	}
}

func (c *Controller) logActivity(ctx context.Context, agentID agents.ID, kind, text string) {
	if c.cfg.AgentLog == nil {
		return
	}
	if err := c.cfg.AgentLog.Append(ctx, agentlog.Entry{AgentID: string(agentID), Kind: kind, Text: text}); err != nil {
		logger.DebugContext(ctx, "agent log append failed", "error", err)
	}
}

// ToggleLive starts a live session in mode, switches the visual mode of an
// open session, or stops the session when it is already in mode.
func (c *Controller) ToggleLive(ctx context.Context, mode types.VisualMode) error {
	if c.cfg.Live == nil {
		return pkgerrors.New("conversation", "ToggleLive", live.ErrNotOpen)
	}
	if c.cfg.Live.IsOpen() {
		if c.cfg.Live.VisualMode() == mode {
			c.StopLive()
			return nil
		}
		return c.cfg.Live.SwitchVisualMode(ctx, mode)
	}
	return c.StartLive(ctx, mode)
}

// StartLive opens a live session for the active agent, seeded with the
// conversation and saved notes.
func (c *Controller) StartLive(ctx context.Context, mode types.VisualMode) error {
	if c.cfg.Live == nil {
		return pkgerrors.New("conversation", "StartLive", live.ErrNotOpen)
	}
	agent := c.Agent()

	var notes string
	if c.cfg.History != nil {
		var err error
		if notes, err = c.cfg.History.Notes(ctx); err != nil {
			logger.WarnContext(ctx, "memory notes unavailable", "error", err)
		}
	}

	err := c.cfg.Live.Start(ctx, live.StartOptions{
		AgentID:         string(agent.ID),
		Instruction:     agent.Instruction,
		History:         c.Messages(),
		Notes:           notes,
		VisualMode:      mode,
		OnTranscript:    c.AddTranscript,
		OnInterrupted:   c.interrupted,
		OnVoiceActivity: c.cfg.OnVoiceActivity,
		OnClosed:        c.liveClosed,
	})
	if err != nil {
		return err
	}
	c.logActivity(ctx, agent.ID, agentlog.KindLiveStarted, string(mode))
	return nil
}

// StopLive closes the live session if one is open.
func (c *Controller) StopLive() {
	if c.cfg.Live == nil || !c.cfg.Live.IsOpen() {
		return
	}
	c.cfg.Live.Stop()
	c.logActivity(context.Background(), c.Agent().ID, agentlog.KindLiveStopped, "")
}

func (c *Controller) interrupted() {
	if c.cfg.FlushPlaybackOnInterrupt {
		c.cfg.Live.FlushPlayback()
	}
	if c.cfg.OnInterrupted != nil {
		c.cfg.OnInterrupted()
	}
}

func (c *Controller) liveClosed(err error) {
	c.logActivity(context.Background(), c.Agent().ID, agentlog.KindLiveStopped, "closed by remote")
	if c.cfg.OnLiveClosed != nil {
		c.cfg.OnLiveClosed(err)
	}
}

// SwitchAgent makes id the active agent. An open live session is stopped and
// the next chat turn starts a fresh chat with the new persona.
func (c *Controller) SwitchAgent(ctx context.Context, id agents.ID) (agents.Agent, error) {
	next, err := agents.Lookup(string(id))
	if err != nil {
		return agents.Agent{}, pkgerrors.New("conversation", "SwitchAgent", err)
	}

	if c.Agent().ID == next.ID {
		return next, nil
	}
	c.StopLive()

	c.mu.Lock()
	prev := c.agent
	c.agent = next
	c.chat = nil
	c.mu.Unlock()

	logger.InfoContext(ctx, "agent switched", "from", prev.ID, "to", next.ID)
	c.logActivity(ctx, next.ID, agentlog.KindAgentSwitch, string(prev.ID))
	return next, nil
}

// Clear forgets the conversation.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
	c.chat = nil
	if c.cfg.History != nil {
		return c.cfg.History.Clear(ctx)
	}
	return nil
}

// Close stops any live session.
func (c *Controller) Close() {
	c.StopLive()
}
