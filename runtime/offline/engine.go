// Package offline answers a fixed set of spoken commands locally when the
// remote service is unreachable.
package offline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cyberwithvishal/riyu/runtime/logger"
	"github.com/cyberwithvishal/riyu/runtime/metrics/prometheus"
	"github.com/cyberwithvishal/riyu/runtime/tools"
)

// Command names reported in Result.Command.
const (
	CommandBattery   = "battery"
	CommandTerminal  = "open_terminal"
	CommandLoad      = "system_load"
	CommandListFiles = "list_files"
	CommandVolumeUp  = "volume_up"
	CommandUnknown   = "unknown"
)

// UnknownReply is spoken when no command matches.
const UnknownReply = "Sorry Babu, I didn't get that in offline mode. I'll try my best though."

type command struct {
	name     string
	keywords []string
	shell    string
	reply    func(output string) string
}

func fixed(text string) func(string) string {
	return func(string) string { return text }
}

// commands are matched in order; the first keyword hit wins.
var commands = []command{
	{
		name:     CommandBattery,
		keywords: []string{"check battery", "battery status"},
		shell:    "acpi -b",
		reply:    func(out string) string { return "Babu, battery status is: " + out },
	},
	{
		name:     CommandTerminal,
		keywords: []string{"open terminal"},
		shell:    "nohup gnome-terminal >/dev/null 2>&1 &",
		reply:    fixed("Terminal khul gaya hai, vishal."),
	},
	{
		name:     CommandLoad,
		keywords: []string{"system load", "cpu load"},
		shell:    "uptime | awk '{print $10}'",
		reply:    func(out string) string { return "System load current level: " + out },
	},
	{
		name:     CommandListFiles,
		keywords: []string{"list files"},
		shell:    "ls -m",
		reply:    func(out string) string { return "Files are: " + out },
	},
	{
		name:     CommandVolumeUp,
		keywords: []string{"volume up"},
		shell:    "amixer -D pulse sset Master 10%+",
		reply:    fixed("Awaaz badha di hai."),
	},
}

// Result describes one handled utterance.
type Result struct {
	Command string `json:"command"`
	Reply   string `json:"reply"`
	Output  string `json:"output,omitempty"`
}

// Engine maps utterances to host commands and speaks the outcome.
type Engine struct {
	runner  tools.CommandRunner
	speaker Speaker
}

// NewEngine creates an engine. A nil speaker logs replies instead.
func NewEngine(runner tools.CommandRunner, speaker Speaker) *Engine {
	if speaker == nil {
		speaker = LogSpeaker{}
	}
	return &Engine{runner: runner, speaker: speaker}
}

// Match returns the command name for text without running anything.
func Match(text string) string {
	if c := match(text); c != nil {
		return c.name
	}
	return CommandUnknown
}

func match(text string) *command {
	text = strings.ToLower(text)
	for i := range commands {
		for _, kw := range commands[i].keywords {
			if strings.Contains(text, kw) {
				return &commands[i]
			}
		}
	}
	return nil
}

// Handle runs the command matched by text and speaks the reply. A failing
// command is still answered, using whatever output it produced; the failure
// is returned alongside the result.
func (e *Engine) Handle(ctx context.Context, text string) (Result, error) {
	c := match(text)
	if c == nil {
		prometheus.RecordOfflineCommand(CommandUnknown, prometheus.StatusSuccess)
		return Result{Command: CommandUnknown, Reply: UnknownReply}, e.speak(ctx, UnknownReply)
	}

	var (
		out    string
		runErr error
	)
	if e.runner == nil {
		runErr = fmt.Errorf("offline %s: no command runner", c.name)
	} else {
		out, runErr = e.runner.Run(ctx, c.shell)
		out = strings.TrimRight(out, "\n")
	}

	status := prometheus.StatusSuccess
	if runErr != nil {
		status = prometheus.StatusError
		logger.WarnContext(ctx, "offline command failed", "command", c.name, "error", runErr)
	}
	prometheus.RecordOfflineCommand(c.name, status)

	res := Result{Command: c.name, Reply: c.reply(out), Output: out}
	if err := e.speak(ctx, res.Reply); err != nil && runErr == nil {
		runErr = err
	}
	return res, runErr
}

func (e *Engine) speak(ctx context.Context, text string) error {
	if err := e.speaker.Speak(ctx, text); err != nil {
		logger.WarnContext(ctx, "offline speech failed", "error", err)
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}
