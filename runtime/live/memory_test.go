package live

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyberwithvishal/riyu/runtime/types"
)

func TestBuildMemoryContext(t *testing.T) {
	var history []types.Message
	for i := 0; i < 20; i++ {
		history = append(history, types.Message{Sender: types.SenderUser, Text: fmt.Sprintf("m%d", i)})
	}

	ctx := BuildMemoryContext("", history)
	assert.True(t, strings.HasPrefix(ctx, "[MEMORY_SYNC]: None\n[SESSION_HISTORY]:\nUSER: m5\n"))
	assert.True(t, strings.HasSuffix(ctx, "USER: m19\n"+memoryNote))
	assert.NotContains(t, ctx, "USER: m4\n")
	assert.Equal(t, HistoryWindow, strings.Count(ctx, "USER: "))
}

func TestBuildMemoryContextEmptyHistory(t *testing.T) {
	assert.Equal(t,
		"[MEMORY_SYNC]: birthday 5 May\n[SESSION_HISTORY]:\n\n"+memoryNote,
		BuildMemoryContext("birthday 5 May", nil))
}

func TestSystemInstruction(t *testing.T) {
	assert.Equal(t, "be Riyu\n\n[KERNEL_MEMORY]:\nctx", SystemInstruction("be Riyu", "ctx"))
}
