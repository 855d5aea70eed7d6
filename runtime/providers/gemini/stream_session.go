// Package gemini talks to the hosted Gemini models: the Live websocket API for
// realtime voice sessions and the genai SDK for turn-based chat.
//
// The Live API does not accept TEXT and AUDIO response modalities together;
// sessions here always request AUDIO and rely on output transcription for text.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/providers/internal/streaming"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

const (
	defaultSetupTimeout = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	defaultEventBuffer  = 32
	defaultVoice        = "Puck"
)

// StreamSessionConfig configures a Live session.
type StreamSessionConfig struct {
	URL    string
	APIKey string

	// Model is prefixed with "models/" when needed.
	Model             string
	Voice             string
	SystemInstruction string
	Tools             []types.ToolDef

	// InputSampleRate labels uplink audio. Defaults to InputSampleRate.
	InputSampleRate int

	SetupTimeout time.Duration
	PingInterval time.Duration
	EventBuffer  int
}

// StreamSession is one open Gemini Live connection. Remote messages are
// translated into types.LiveEvent values on Events; the channel is closed
// after a final ClosedEvent.
type StreamSession struct {
	id      string
	conn    *streaming.Conn
	encoder *AudioEncoder
	events  chan types.LiveEvent

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewStreamSession dials the Live endpoint, sends the setup message and waits
// for setupComplete. Any failure wraps ErrRemoteUnavailable.
func NewStreamSession(ctx context.Context, cfg *StreamSessionConfig) (*StreamSession, error) {
	setup, err := buildSetupMessage(cfg)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("x-goog-api-key", cfg.APIKey)
	ping := cfg.PingInterval
	if ping == 0 {
		ping = defaultPingInterval
	}

	conn, err := streaming.Dial(ctx, streaming.ConnConfig{
		URL:          cfg.URL,
		Headers:      headers,
		PingInterval: ping,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	if err := sendAndWaitForSetup(ctx, conn, setup, cfg.SetupTimeout); err != nil {
		_ = conn.Close()
		return nil, err
	}

	buf := cfg.EventBuffer
	if buf <= 0 {
		buf = defaultEventBuffer
	}
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &StreamSession{
		id:      uuid.NewString(),
		conn:    conn,
		encoder: NewAudioEncoder(cfg.InputSampleRate),
		events:  make(chan types.LiveEvent, buf),
		ctx:     sessionCtx,
		cancel:  cancel,
	}
	go s.receiveLoop()

	logger.DebugContext(logger.WithSessionID(ctx, s.id), "gemini live session established", "model", setup.Setup.Model)
	return s, nil
}

func buildSetupMessage(cfg *StreamSessionConfig) (*setupMessage, error) {
	voice := cfg.Voice
	if voice == "" {
		voice = defaultVoice
	}
	msg := &setupMessage{Setup: setupContent{
		Model: modelPath(cfg.Model),
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice},
			}},
		},
		InputAudioTranscription:  &struct{}{},
		OutputAudioTranscription: &struct{}{},
	}}
	if cfg.SystemInstruction != "" {
		msg.Setup.SystemInstruction = &content{Parts: []contentPart{{Text: cfg.SystemInstruction}}}
	}
	if len(cfg.Tools) > 0 {
		decls, err := buildFunctionDeclarations(cfg.Tools)
		if err != nil {
			return nil, err
		}
		msg.Setup.Tools = []toolDeclarations{{FunctionDeclarations: decls}}
	}
	return msg, nil
}

func modelPath(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

func sendAndWaitForSetup(ctx context.Context, conn *streaming.Conn, setup *setupMessage, timeout time.Duration) error {
	if err := conn.Send(setup); err != nil {
		return fmt.Errorf("%w: failed to send setup message: %w", ErrRemoteUnavailable, err)
	}

	if timeout == 0 {
		timeout = defaultSetupTimeout
	}
	setupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := conn.Receive(setupCtx)
	if err != nil {
		return fmt.Errorf("%w: failed to receive setup response: %w", ErrRemoteUnavailable, err)
	}
	var resp ServerMessage
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("%w: invalid setup response: %w", ErrRemoteUnavailable, err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if resp.SetupComplete == nil {
		return fmt.Errorf("%w: setupComplete not received", ErrRemoteUnavailable)
	}
	return nil
}

// ID returns the local identifier of the session, used for log correlation.
func (s *StreamSession) ID() string {
	return s.id
}

// Events returns the remote event stream.
func (s *StreamSession) Events() <-chan types.LiveEvent {
	return s.events
}

// SendAudio pushes one PCM16 frame as realtime input.
func (s *StreamSession) SendAudio(_ context.Context, pcm []byte) error {
	data, err := s.encoder.EncodePCM(pcm)
	if err != nil {
		return err
	}
	return s.send(realtimeInputMessage{RealtimeInput: realtimeInput{
		MediaChunks: []InlineData{{MimeType: s.encoder.MimeType(), Data: data}},
	}})
}

func (s *StreamSession) send(msg any) error {
	if s.isClosed() {
		return ErrTransportClosed
	}
	if err := s.conn.Send(msg); err != nil {
		if errors.Is(err, streaming.ErrClosed) {
			return ErrTransportClosed
		}
		return err
	}
	return nil
}

// Close ends the session. Safe to call more than once.
func (s *StreamSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.conn.Close()
}

func (s *StreamSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
