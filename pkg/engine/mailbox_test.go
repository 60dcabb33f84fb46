package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxClosesBehindFinalEvent(t *testing.T) {
	m := newMailbox()
	require.True(t, m.post(cancelEvent{}))
	require.True(t, m.closeWith(closeEvent{}))

	assert.False(t, m.post(startEvent{id: "late"}), "post after close")
	assert.False(t, m.closeWith(closeEvent{}), "second close")

	items := m.drain()
	require.Len(t, items, 2)
	assert.IsType(t, cancelEvent{}, items[0])
	assert.IsType(t, closeEvent{}, items[1])
	assert.Empty(t, m.drain())
}
