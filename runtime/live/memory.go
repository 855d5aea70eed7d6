package live

import (
	"strings"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

// HistoryWindow is how many recent messages are replayed into a new session.
const HistoryWindow = 15

const memoryNote = "Note: Call user Vishal. Use Hinglish. You have OS root-level logic authority."

// BuildMemoryContext renders saved notes and the tail of the conversation
// for the model.
func BuildMemoryContext(notes string, history []types.Message) string {
	if strings.TrimSpace(notes) == "" {
		notes = "None"
	}
	if len(history) > HistoryWindow {
		history = history[len(history)-HistoryWindow:]
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, m.HistoryLine())
	}

	var b strings.Builder
	b.WriteString("[MEMORY_SYNC]: ")
	b.WriteString(notes)
	b.WriteString("\n[SESSION_HISTORY]:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n")
	b.WriteString(memoryNote)
	return b.String()
}

// SystemInstruction appends the memory context to an agent's instruction.
func SystemInstruction(agentInstruction, memoryContext string) string {
	return agentInstruction + "\n\n[KERNEL_MEMORY]:\n" + memoryContext
}
