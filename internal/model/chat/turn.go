package chat

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is an image uploaded alongside a user turn.
type Attachment struct {
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// Turn is one role-tagged utterance. Turns are never edited after they are
// appended to a conversation.
type Turn struct {
	ID      string      `json:"id"`
	Role    Role        `json:"role"`
	Content string      `json:"content"`
	Display string      `json:"display"`
	Image   *Attachment `json:"image,omitempty"`

	// Feedback marks a synthetic user turn created from a feedback button.
	Feedback bool `json:"feedback,omitempty"`
	// Error marks an assistant turn produced from a failed model call.
	Error bool `json:"error,omitempty"`
	// Checkpoint marks an assistant turn whose raw content carried the
	// feedback sentinel.
	Checkpoint bool `json:"checkpoint,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// HasImage reports whether the turn carries an image attachment.
func (t Turn) HasImage() bool {
	return t.Image != nil && len(t.Image.Data) > 0
}

// Rendered returns the text shown to the student.
func (t Turn) Rendered() string {
	if t.Display != "" || t.Checkpoint {
		return t.Display
	}
	return t.Content
}
