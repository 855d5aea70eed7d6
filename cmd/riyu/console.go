package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/cyberwithvishal/riyu/runtime/agents"
	"github.com/cyberwithvishal/riyu/runtime/types"
)

const (
	colorUser  = "#38bdf8"
	colorMuted = "#6b7280"
	colorAlert = "#ef4444"
)

// console prints the conversation. Writes are serialized because live
// transcripts arrive on the bridge goroutine.
type console struct {
	mu  sync.Mutex
	out io.Writer
	r   *lipgloss.Renderer

	userStyle  lipgloss.Style
	mutedStyle lipgloss.Style
	alertStyle lipgloss.Style
}

func newConsole(out io.Writer) *console {
	r := lipgloss.NewRenderer(out)
	return &console{
		out:        out,
		r:          r,
		userStyle:  r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorUser)),
		mutedStyle: r.NewStyle().Foreground(lipgloss.Color(colorMuted)),
		alertStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorAlert)),
	}
}

func (c *console) agentStyle(a agents.Agent) lipgloss.Style {
	return c.r.NewStyle().Bold(true).Foreground(lipgloss.Color(a.Accent))
}

// Message prints msg, labelling model turns with the agent name.
func (c *console) Message(a agents.Agent, msg types.Message) {
	label := c.userStyle.Render("YOU")
	if msg.Sender == types.SenderAI {
		label = c.agentStyle(a).Render(a.Name)
	}
	c.println(fmt.Sprintf("%s %s", label, msg.Text))
}

// Agents lists every agent with its role.
func (c *console) Agents(active agents.ID) {
	for _, a := range agents.All() {
		marker := " "
		if a.ID == active {
			marker = "*"
		}
		c.println(fmt.Sprintf("%s %s %s %s", marker,
			c.agentStyle(a).Render(a.Name),
			c.mutedStyle.Render("("+string(a.ID)+")"),
			a.Role))
	}
}

// Status prints a dim informational line.
func (c *console) Status(format string, args ...any) {
	c.println(c.mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Alert prints a highlighted line.
func (c *console) Alert(format string, args ...any) {
	c.println(c.alertStyle.Render(fmt.Sprintf(format, args...)))
}

func (c *console) println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, line)
}
