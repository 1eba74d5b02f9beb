package analysis_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/speech-coach/internal/app/analysis"
	"github.com/PabloGalante/speech-coach/internal/domain"
)

func TestConversationContextKeepsMostRecent(t *testing.T) {
	c := analysis.NewConversationContext(0) // default capacity

	for i := 0; i < 25; i++ {
		c.Append(domain.RoleUser, fmt.Sprintf("m%d", i))
		require.LessOrEqual(t, c.Len(), analysis.DefaultContextCapacity)
	}

	snap := c.Snapshot()
	require.Len(t, snap, 10)
	for i, e := range snap {
		assert.Equal(t, fmt.Sprintf("m%d", 15+i), e.Content)
	}
}

func TestConversationContextPartialAndClear(t *testing.T) {
	c := analysis.NewConversationContext(3)

	c.Append(domain.RoleUser, "hi")
	c.Append(domain.RoleAssistant, "hello")

	assert.Equal(t, []domain.ConversationEntry{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}, c.Snapshot())

	c.Append(domain.RoleUser, "a")
	c.Append(domain.RoleUser, "b")
	assert.Equal(t, "hello", c.Snapshot()[0].Content)

	c.Clear()
	assert.Empty(t, c.Snapshot())
	assert.Zero(t, c.Len())

	c.Append(domain.RoleUser, "after")
	assert.Equal(t, []domain.ConversationEntry{{Role: domain.RoleUser, Content: "after"}}, c.Snapshot())
}

func TestConversationSnapshotIsACopy(t *testing.T) {
	c := analysis.NewConversationContext(2)
	c.Append(domain.RoleUser, "x")

	snap := c.Snapshot()
	snap[0].Content = "mutated"

	assert.Equal(t, "x", c.Snapshot()[0].Content)
}
