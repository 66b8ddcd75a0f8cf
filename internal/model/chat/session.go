package chat

import "time"

// Session captures a transient anonymous tutoring conversation.
type Session struct {
	ID        string    `json:"id"`
	TutorID   string    `json:"tutorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackState holds the per-session flags derived from the latest turn.
// It is not part of the conversation log.
type FeedbackState struct {
	AwaitingChoice    bool `json:"awaitingChoice"`
	PendingSubmission bool `json:"pendingSubmission"`
}
