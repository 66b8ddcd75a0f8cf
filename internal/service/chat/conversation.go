package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/eduai/tutor/backend/internal/model/chat"
)

// Conversation is the append-only log of one session. Index 0 is always the
// welcome turn. It has a single writer and is not safe for concurrent use on
// its own; Session guards it.
type Conversation struct {
	turns []chat.Turn
}

// NewConversation starts a log with the assistant's welcome turn.
func NewConversation(welcome string) *Conversation {
	c := &Conversation{turns: make([]chat.Turn, 0, 16)}
	c.Append(chat.Turn{Role: chat.RoleAssistant, Content: welcome, Display: welcome})
	return c
}

// Append stores a copy of turn, assigning its ID and timestamp, and returns
// the stored value.
func (c *Conversation) Append(turn chat.Turn) chat.Turn {
	turn.ID = uuid.NewString()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	turn.Image = copyAttachment(turn.Image)
	c.turns = append(c.turns, turn)
	return turn
}

// Turns returns a copy of the full log in insertion order. Image bytes are
// copied too, so callers cannot reach the stored turns.
func (c *Conversation) Turns() []chat.Turn {
	copied := make([]chat.Turn, len(c.turns))
	for i, turn := range c.turns {
		turn.Image = copyAttachment(turn.Image)
		copied[i] = turn
	}
	return copied
}

func copyAttachment(image *chat.Attachment) *chat.Attachment {
	if image == nil {
		return nil
	}
	copied := *image
	copied.Data = append([]byte(nil), image.Data...)
	return &copied
}
