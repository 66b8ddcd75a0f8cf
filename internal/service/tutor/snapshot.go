package tutor

import (
	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/model/tutor"
	chatservice "github.com/eduai/tutor/backend/internal/service/chat"
)

// Snapshot is everything a front end needs to draw a session after an event.
type Snapshot struct {
	SessionID        string
	TutorID          string
	State            chatservice.State
	Turns            []chat.Turn
	AwaitingFeedback bool
	FeedbackPrompt   string
	FeedbackOptions  []tutor.FeedbackOption
}

// Snapshot returns the current view of session. Feedback options are only
// populated while the session waits for a choice.
func (c *Controller) Snapshot(session *chatservice.Session) Snapshot {
	view := session.View()
	snap := Snapshot{
		SessionID:        view.Session.ID,
		TutorID:          view.Session.TutorID,
		State:            view.State,
		Turns:            view.Turns,
		AwaitingFeedback: view.Feedback.AwaitingChoice,
	}
	if !snap.AwaitingFeedback {
		return snap
	}

	if profile, ok := c.tutors.FindByID(view.Session.TutorID); ok {
		snap.FeedbackPrompt = profile.FeedbackPrompt
		snap.FeedbackOptions = append([]tutor.FeedbackOption(nil), profile.FeedbackOptions...)
	}
	return snap
}

// LastAssistant returns the newest assistant turn, if any.
func (s Snapshot) LastAssistant() (chat.Turn, bool) {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == chat.RoleAssistant {
			return s.Turns[i], true
		}
	}
	return chat.Turn{}, false
}
