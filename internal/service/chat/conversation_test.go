package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduai/tutor/backend/internal/model/chat"
)

func TestConversationAppendPreservesOrder(t *testing.T) {
	c := NewConversation("welcome")
	c.Append(chat.Turn{Role: chat.RoleUser, Content: "one"})
	c.Append(chat.Turn{Role: chat.RoleAssistant, Content: "two"})
	c.Append(chat.Turn{Role: chat.RoleUser, Content: "three"})

	turns := c.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, []string{"welcome", "one", "two", "three"}, []string{turns[0].Content, turns[1].Content, turns[2].Content, turns[3].Content})

	for _, turn := range turns {
		assert.NotEmpty(t, turn.ID)
		assert.False(t, turn.CreatedAt.IsZero())
	}
}

func TestConversationCopiesAreIsolated(t *testing.T) {
	c := NewConversation("welcome")
	image := &chat.Attachment{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	c.Append(chat.Turn{Role: chat.RoleUser, Content: "look", Image: image})

	image.Data[0] = 9
	turns := c.Turns()
	turns[0].Content = "mutated"

	assert.Equal(t, "welcome", c.Turns()[0].Content)
	assert.Equal(t, byte(1), c.Turns()[1].Image.Data[0])
}

func TestConversationTurnsDoNotShareImageBytes(t *testing.T) {
	c := NewConversation("welcome")
	c.Append(chat.Turn{Role: chat.RoleUser, Content: "look", Image: &chat.Attachment{MIMEType: "image/png", Data: []byte{1, 2, 3}}})

	first := c.Turns()
	first[1].Image.Data[0] = 9
	first[1].Image.MIMEType = "image/gif"

	stored := c.Turns()[1].Image
	require.NotNil(t, stored)
	assert.Equal(t, []byte{1, 2, 3}, stored.Data)
	assert.Equal(t, "image/png", stored.MIMEType)
}
