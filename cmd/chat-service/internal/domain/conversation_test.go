package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversation_NeedsTitle(t *testing.T) {
	conversation := NewConversation("user-1", nil)
	assert.True(t, conversation.NeedsTitle())

	conversation.UpdateTitle("Slices in Go")
	assert.False(t, conversation.NeedsTitle())
}

func TestConversation_UpdateTitleTruncates(t *testing.T) {
	conversation := NewConversation("user-1", nil)
	conversation.UpdateTitle(strings.Repeat("x", 300))
	assert.Len(t, conversation.Title, 255)
}

func TestConversation_OwnedBy(t *testing.T) {
	conversation := NewConversation("user-1", nil)
	assert.True(t, conversation.OwnedBy("user-1"))
	assert.False(t, conversation.OwnedBy("user-2"))
}
