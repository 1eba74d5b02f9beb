package analysis

import (
	"sync"

	"github.com/PabloGalante/speech-coach/internal/domain"
)

const DefaultContextCapacity = 10

// ConversationContext is a bounded FIFO of prior exchanges. When full, the
// oldest entry is evicted.
type ConversationContext struct {
	mu   sync.Mutex
	buf  []domain.ConversationEntry
	head int
	size int
}

func NewConversationContext(capacity int) *ConversationContext {
	if capacity <= 0 {
		capacity = DefaultContextCapacity
	}
	return &ConversationContext{buf: make([]domain.ConversationEntry, capacity)}
}

func (c *ConversationContext) Append(role domain.Role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := domain.ConversationEntry{Role: role, Content: content}
	if c.size < len(c.buf) {
		c.buf[(c.head+c.size)%len(c.buf)] = e
		c.size++
		return
	}
	c.buf[c.head] = e
	c.head = (c.head + 1) % len(c.buf)
}

// Snapshot returns a copy of the entries, oldest first.
func (c *ConversationContext) Snapshot() []domain.ConversationEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.ConversationEntry, c.size)
	for i := range out {
		out[i] = c.buf[(c.head+i)%len(c.buf)]
	}
	return out
}

func (c *ConversationContext) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *ConversationContext) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.buf)
	c.head, c.size = 0, 0
}
