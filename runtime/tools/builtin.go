package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cyberwithvishal/riyu/runtime/logger"
)

// Built-in tool names.
const (
	ExecuteLinuxCommand = "executeLinuxCommand"
	ControlWebAndMedia  = "controlWebAndMedia"
	AnalyzeEnvironment  = "analyzeEnvironment"
)

// GenericResult answers calls that have no specific result.
const GenericResult = "Success"

// Web actions and platforms accepted by controlWebAndMedia.
const (
	ActionSearch    = "search"
	ActionOpenURL   = "open_url"
	ActionPlayMusic = "play_music"

	PlatformGoogle  = "google"
	PlatformYouTube = "youtube"
	PlatformSpotify = "spotify"
)

var (
	linuxCommandTool = &ToolDescriptor{
		Name:        ExecuteLinuxCommand,
		Description: "Executes a command on the user local Linux terminal. Use for system management, file operations, and resource monitoring.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "command": {"type": "string", "description": "The shell command (e.g., \"ls -la\", \"df -h\", \"htop\")."},
    "description": {"type": "string", "description": "Briefly what this command does."}
  },
  "required": ["command"]
}`),
	}

	webControlTool = &ToolDescriptor{
		Name:        ControlWebAndMedia,
		Description: "Open websites, search Google, or play music on YouTube/Spotify for Vishal.",
		InputSchema: json.RawMessage(`{
  "type": "object",
  "properties": {
    "action": {"type": "string", "enum": ["search", "open_url", "play_music"], "description": "What to do."},
    "query": {"type": "string", "description": "The search term, URL, or song name."},
    "platform": {"type": "string", "enum": ["google", "youtube", "spotify"], "description": "Target platform."}
  },
  "required": ["action", "query"]
}`),
	}

	visionTool = &ToolDescriptor{
		Name:        AnalyzeEnvironment,
		Description: "Uses the camera to see what Babu is showing or to analyze the screen.",
		InputSchema: json.RawMessage(`{"type": "object", "properties": {}}`),
	}
)

// Option configures the built-in tools.
type Option func(*builtinOptions)

type builtinOptions struct {
	launcher Launcher
	runner   CommandRunner
}

// WithLauncher opens controlWebAndMedia targets through l.
func WithLauncher(l Launcher) Option {
	return func(o *builtinOptions) { o.launcher = l }
}

// WithCommandRunner runs executeLinuxCommand commands through r.
func WithCommandRunner(r CommandRunner) Option {
	return func(o *builtinOptions) { o.runner = r }
}

// NewDefaultRegistry returns a registry with the three assistant tools. Without
// options no tool has a host side effect.
func NewDefaultRegistry(opts ...Option) *Registry {
	var o builtinOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := NewRegistry()
	// The built-in schemas are constant; registration cannot fail.
	_ = r.Register(linuxCommandTool, &linuxCommandHandler{runner: o.runner})
	_ = r.Register(visionTool, HandlerFunc(func(context.Context, json.RawMessage) (string, error) {
		return GenericResult, nil
	}))
	_ = r.Register(webControlTool, &webControlHandler{launcher: o.launcher})
	return r
}

type linuxCommandArgs struct {
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
}

type linuxCommandHandler struct {
	runner CommandRunner
}

func (h *linuxCommandHandler) Handle(ctx context.Context, raw json.RawMessage) (string, error) {
	var args linuxCommandArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}
	ack := fmt.Sprintf("Riyu: Executed OS Command [%s]. System process running.", args.Command)
	if h.runner == nil {
		return ack, nil
	}

	out, err := h.runner.Run(ctx, args.Command)
	if err != nil {
		logger.WarnContext(ctx, "command side-channel failed", "command", args.Command, "error", err)
		return ack, nil
	}
	if out = strings.TrimSpace(out); out != "" {
		ack += "\nOutput:\n" + out
	}
	return ack, nil
}

type webControlArgs struct {
	Action   string `json:"action"`
	Query    string `json:"query"`
	Platform string `json:"platform,omitempty"`
}

type webControlHandler struct {
	launcher Launcher
}

func (h *webControlHandler) Handle(ctx context.Context, raw json.RawMessage) (string, error) {
	var args webControlArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}
	target := WebTarget(args.Action, args.Query, args.Platform)
	logger.InfoContext(ctx, "opening browser: xdg-open "+target, "action", args.Action, "platform", args.Platform)

	if h.launcher != nil {
		if err := h.launcher.Open(ctx, target); err != nil {
			logger.WarnContext(ctx, "launcher side-channel failed", "url", target, "error", err)
		}
	}

	platform := args.Platform
	if platform == "" {
		platform = "web"
	}
	return fmt.Sprintf("Babu, Maine %s pe \"%s\" open kar diya hai (%s). Browser check kijiye!", platform, args.Query, target), nil
}

// WebTarget derives the URL a controlWebAndMedia call refers to.
func WebTarget(action, query, platform string) string {
	switch action {
	case ActionSearch:
		return "https://www.google.com/search?q=" + EncodeURIComponent(query)
	case ActionPlayMusic:
		if platform == PlatformSpotify {
			return "https://open.spotify.com/search/" + EncodeURIComponent(query)
		}
		return "https://www.youtube.com/results?search_query=" + EncodeURIComponent(query)
	default:
		return query
	}
}

// EncodeURIComponent percent-encodes s as JavaScript's encodeURIComponent
// does: everything except A-Z a-z 0-9 and -_.!~*'() is escaped as UTF-8 bytes.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if uriUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func uriUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
