package render

import (
	"time"

	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/model/tutor"
	tutorservice "github.com/eduai/tutor/backend/internal/service/tutor"
)

// TurnView is one transcript entry as sent to browsers.
type TurnView struct {
	ID        string    `json:"id"`
	Role      chat.Role `json:"role"`
	Content   string    `json:"content"`
	HTML      string    `json:"html"`
	Error     bool      `json:"error,omitempty"`
	Feedback  bool      `json:"feedback,omitempty"`
	HasImage  bool      `json:"hasImage,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnapshotView is the JSON shape of a session after each event.
type SnapshotView struct {
	SessionID        string                 `json:"sessionId"`
	TutorID          string                 `json:"tutorId"`
	State            string                 `json:"state"`
	AwaitingFeedback bool                   `json:"awaitingFeedback"`
	FeedbackPrompt   string                 `json:"feedbackPrompt,omitempty"`
	FeedbackOptions  []tutor.FeedbackOption `json:"feedbackOptions"`
	Turns            []TurnView             `json:"turns"`
}

// Turn renders a single turn. Content is the displayed text, so a
// checkpoint turn never shows its closing sentence.
func Turn(turn chat.Turn) TurnView {
	text := turn.Rendered()
	markup := Markdown(text)
	if turn.Role != chat.RoleAssistant {
		markup = StudentMarkdown(text)
	}
	return TurnView{
		ID:        turn.ID,
		Role:      turn.Role,
		Content:   text,
		HTML:      markup,
		Error:     turn.Error,
		Feedback:  turn.Feedback,
		HasImage:  turn.HasImage(),
		CreatedAt: turn.CreatedAt,
	}
}

// Snapshot renders a controller snapshot. Turns stay in log order and the
// feedback options are listed only while a choice is pending.
func Snapshot(snap tutorservice.Snapshot) SnapshotView {
	view := SnapshotView{
		SessionID:        snap.SessionID,
		TutorID:          snap.TutorID,
		State:            string(snap.State),
		AwaitingFeedback: snap.AwaitingFeedback,
		FeedbackOptions:  []tutor.FeedbackOption{},
		Turns:            make([]TurnView, 0, len(snap.Turns)),
	}
	if snap.AwaitingFeedback {
		view.FeedbackPrompt = snap.FeedbackPrompt
		view.FeedbackOptions = append(view.FeedbackOptions, snap.FeedbackOptions...)
	}
	for _, turn := range snap.Turns {
		view.Turns = append(view.Turns, Turn(turn))
	}
	return view
}
