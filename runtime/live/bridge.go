package live

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/cyberwithvishal/riyu/pkg/errors"
	"github.com/cyberwithvishal/riyu/runtime/audio"
	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
	"github.com/cyberwithvishal/riyu/runtime/providers/gemini"
	"github.com/cyberwithvishal/riyu/runtime/tools"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

const tracerName = "github.com/cyberwithvishal/riyu/runtime/live"

// ErrNotOpen is returned by operations that need an open session.
var ErrNotOpen = errors.New("live: no open session")

// Config wires a Bridge to its collaborators.
type Config struct {
	Dialer     Dialer
	Capture    *audio.CaptureManager
	Scheduler  *audio.Scheduler
	Dispatcher *tools.Dispatcher
	// UplinkQueue bounds buffered microphone frames; zero uses DefaultUplinkQueue.
	UplinkQueue int
}

// StartOptions describe one session.
type StartOptions struct {
	AgentID     string
	Instruction string
	// History is the conversation so far; only the last HistoryWindow entries are used.
	History    []types.Message
	Notes      string
	VisualMode types.VisualMode

	OnTranscript    func(text string, isUser bool)
	OnInterrupted   func()
	OnVoiceActivity func(speaking bool)
	// OnClosed runs when the remote side ends the session. It is not called for Stop.
	OnClosed func(err error)
}

// Bridge runs at most one live session at a time.
type Bridge struct {
	cfg      Config
	recorder *prometheus.LiveEventRecorder
	tracer   trace.Tracer

	mu  sync.Mutex
	run *run
}

// run is the state of one open session.
type run struct {
	session Session
	opts    StartOptions
	cancel  context.CancelFunc
	done    chan struct{}

	// mu orders playback scheduling against teardown.
	mu      sync.Mutex
	stopped bool
}

// NewBridge creates a bridge.
func NewBridge(cfg Config) *Bridge {
	return &Bridge{
		cfg:      cfg,
		recorder: prometheus.NewLiveEventRecorder(),
		tracer:   otel.Tracer(tracerName),
	}
}

// IsOpen reports whether a session is open.
func (b *Bridge) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.run != nil
}

// VisualMode reports the visual capture of the open session.
func (b *Bridge) VisualMode() types.VisualMode {
	return b.cfg.Capture.VisualMode()
}

// Start acquires capture devices, opens a session and starts streaming. It
// is a no-op when a session is already open. Capture errors wrap
// audio.ErrPermissionDenied or audio.ErrDeviceUnavailable; no session is
// opened in that case.
func (b *Bridge) Start(ctx context.Context, opts StartOptions) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run != nil {
		return nil
	}

	ctx = logger.WithAgent(ctx, opts.AgentID)
	ctx, span := b.tracer.Start(ctx, "riyu.live.start", trace.WithAttributes(
		attribute.String("agent", opts.AgentID),
		attribute.String("visual_mode", string(opts.VisualMode)),
	))
	defer func() {
		status := prometheus.StatusSuccess
		if err != nil {
			status = prometheus.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		prometheus.RecordLiveSessionStart(status)
		span.End()
	}()

	handles, err := b.cfg.Capture.Open(ctx, opts.VisualMode)
	if err != nil {
		return pkgerrors.New("live", "Start", err)
	}

	var defs []types.ToolDef
	if b.cfg.Dispatcher != nil {
		defs = b.cfg.Dispatcher.Registry().Defs()
	}
	session, err := b.cfg.Dialer.Dial(ctx, SessionConfig{
		SystemInstruction: SystemInstruction(opts.Instruction, BuildMemoryContext(opts.Notes, opts.History)),
		Tools:             defs,
	})
	if err != nil {
		b.cfg.Capture.Close()
		return pkgerrors.New("live", "Start", err)
	}

	runCtx, cancel := context.WithCancel(logger.WithSessionID(context.WithoutCancel(ctx), session.ID()))
	r := &run{session: session, opts: opts, cancel: cancel, done: make(chan struct{})}
	b.run = r

	up := newUplink(session, b.cfg.UplinkQueue)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return up.run(gctx) })
	g.Go(func() error { return b.pumpMicrophone(gctx, r, handles.Audio, up) })
	g.Go(func() error { return b.consume(gctx, r) })
	go func() {
		_ = g.Wait()
		close(r.done)
	}()

	logger.LiveSession(runCtx, "started", opts.AgentID, string(opts.VisualMode), "session_id", session.ID())
	return nil
}

// Stop closes the session, releases capture and clears scheduled playback.
// Safe to call at any time, any number of times.
func (b *Bridge) Stop() {
	b.mu.Lock()
	r := b.run
	b.run = nil
	b.mu.Unlock()

	if r != nil {
		b.teardown(r)
		logger.LiveSession(context.Background(), "stopped", r.opts.AgentID, string(r.opts.VisualMode))
	}
}

// SwitchVisualMode changes the visual capture of the open session. The
// previous visual source is released first; the microphone keeps streaming.
func (b *Bridge) SwitchVisualMode(ctx context.Context, mode types.VisualMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return ErrNotOpen
	}
	if err := b.cfg.Capture.SwitchVisual(ctx, mode); err != nil {
		// The previous visual source is already released.
		b.run.opts.VisualMode = types.VisualNone
		return pkgerrors.New("live", "SwitchVisualMode", err)
	}
	b.run.opts.VisualMode = mode
	logger.LiveSession(ctx, "visual_switched", b.run.opts.AgentID, string(mode))
	return nil
}

// FlushPlayback stops every scheduled segment. Callers use it when the user
// talks over the assistant.
func (b *Bridge) FlushPlayback() {
	b.cfg.Scheduler.Reset()
}

// Done is closed when the current session's tasks have finished. It returns
// nil when no session is open.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.run == nil {
		return nil
	}
	return b.run.done
}

func (b *Bridge) teardown(r *run) {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()

	r.cancel()
	if err := r.session.Close(); err != nil {
		logger.Debug("live session close", "error", err)
	}
	b.cfg.Capture.Close()
	b.cfg.Scheduler.Reset()
	prometheus.RecordLiveSessionEnd()
}

// endFromRemote tears down r if it is still the current run.
func (b *Bridge) endFromRemote(r *run, cause error) {
	b.mu.Lock()
	current := b.run == r
	if current {
		b.run = nil
	}
	b.mu.Unlock()
	if !current {
		return
	}

	b.teardown(r)
	logger.LiveSession(context.Background(), "closed_by_remote", r.opts.AgentID, string(r.opts.VisualMode), "error", cause)
	if r.opts.OnClosed != nil {
		r.opts.OnClosed(cause)
	}
}

func (b *Bridge) pumpMicrophone(ctx context.Context, r *run, mic audio.AudioSource, up *uplink) error {
	var activity *audio.ActivityDetector
	if r.opts.OnVoiceActivity != nil {
		activity = audio.NewActivityDetector(audio.DefaultActivityParams(), r.opts.OnVoiceActivity)
	}
	frames := mic.Frames()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if activity != nil {
				activity.Analyze(frame)
			}
			up.Push(audio.FloatToPCM16(frame))
		}
	}
}

func (b *Bridge) consume(ctx context.Context, r *run) error {
	events := r.session.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				go b.endFromRemote(r, nil)
				return nil
			}
			b.recorder.Observe(ev)
			if closed, isClosed := ev.(types.ClosedEvent); isClosed {
				go b.endFromRemote(r, closed.Err)
				return nil
			}
			b.handle(ctx, r, ev)
		}
	}
}

func (b *Bridge) handle(ctx context.Context, r *run, ev types.LiveEvent) {
	switch e := ev.(type) {
	case types.AudioEvent:
		r.mu.Lock()
		if !r.stopped {
			if _, err := b.cfg.Scheduler.Schedule(audio.NewSegment(e.PCM, e.SampleRate)); err != nil {
				logger.WarnContext(ctx, "playback scheduling failed", "error", err)
			}
		}
		r.mu.Unlock()

	case types.TranscriptEvent:
		if r.opts.OnTranscript != nil && !r.isStopped() {
			r.opts.OnTranscript(e.Text, e.IsUser)
		}

	case types.InterruptedEvent:
		if r.opts.OnInterrupted != nil && !r.isStopped() {
			r.opts.OnInterrupted()
		}

	case types.ToolCallEvent:
		b.answerToolCalls(ctx, r, e.Calls)

	case types.TurnCompleteEvent:
		logger.DebugContext(ctx, "model turn complete")
	}
}

// answerToolCalls sends one result per call. Unknown tools and failed
// handlers are answered too; a closed transport is ignored.
func (b *Bridge) answerToolCalls(ctx context.Context, r *run, calls []types.ToolInvocation) {
	var results []types.ToolResult
	if b.cfg.Dispatcher != nil {
		results = b.cfg.Dispatcher.Dispatch(ctx, calls)
	} else {
		for _, c := range calls {
			results = append(results, types.ToolResult{ID: c.ID, Name: c.Name, Result: tools.GenericResult})
		}
	}

	err := r.session.SendToolResponses(ctx, results)
	switch {
	case err == nil:
	case errors.Is(err, gemini.ErrTransportClosed), ctx.Err() != nil:
		logger.DebugContext(ctx, "tool responses dropped, session closed", "count", len(results))
	default:
		logger.WarnContext(ctx, "failed to send tool responses", "error", err)
	}
}

func (r *run) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}
