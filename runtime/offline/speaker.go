package offline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/tools"
)

// Speaker voices a reply.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// SpeakerFunc adapts a function to Speaker.
type SpeakerFunc func(ctx context.Context, text string) error

// Speak calls f.
func (f SpeakerFunc) Speak(ctx context.Context, text string) error { return f(ctx, text) }

// LogSpeaker writes replies to the log.
type LogSpeaker struct{}

// Speak implements Speaker.
func (LogSpeaker) Speak(ctx context.Context, text string) error {
	logger.InfoContext(ctx, "Riyu (Offline): "+text)
	return nil
}

// DefaultVoiceCommand speaks with a female Hindi voice at 160 words per minute.
const DefaultVoiceCommand = "espeak -v hi+f3 -s 160"

// CommandSpeaker pipes replies to a text-to-speech program through a
// CommandRunner.
type CommandSpeaker struct {
	Runner tools.CommandRunner
	// Command defaults to DefaultVoiceCommand; the quoted text is appended.
	Command string
}

// Speak implements Speaker.
func (s CommandSpeaker) Speak(ctx context.Context, text string) error {
	cmd := s.Command
	if cmd == "" {
		cmd = DefaultVoiceCommand
	}
	if _, err := s.Runner.Run(ctx, cmd+" "+shellQuote(text)); err != nil {
		return fmt.Errorf("voice: %w", err)
	}
	return nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
