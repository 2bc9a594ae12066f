package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardwatch/wardwatch/internal/core/feed"
)

func TestModalAckOnce(t *testing.T) {
	modal := NewModal(feed.Item{ID: 9, Level: "critical", Message: "code blue ward 3"})

	id, ok := modal.Ack()
	require.True(t, ok)
	assert.Equal(t, int64(9), id)

	_, ok = modal.Ack()
	assert.False(t, ok)
	_, ok = modal.Ack()
	assert.False(t, ok)
}

func TestModalOverlay(t *testing.T) {
	modal := NewModal(feed.Item{ID: 9, Level: "critical", Message: "code blue ward 3"})

	out := modal.Overlay(100, 30)
	assert.Contains(t, out, "code blue ward 3")
	assert.Contains(t, out, "acknowledge")
}
