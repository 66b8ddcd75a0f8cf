package chat

import (
	"sync"
	"time"

	"github.com/eduai/tutor/backend/internal/model/chat"
)

// State is the turn controller's position for one session.
type State string

const (
	StateIdle                   State = "idle"
	StateAwaitingFeedbackChoice State = "awaiting_feedback_choice"
	StateProcessingSubmission   State = "processing_submission"
)

// Session owns everything one student conversation needs: the log, the
// feedback flags and the controller state.
//
// events serialises input events so that one event, including its model
// call, completes before the next starts. mu guards the fields and is only
// held briefly, so readers can take snapshots while a call is in flight.
type Session struct {
	events sync.Mutex

	mu           sync.RWMutex
	meta         chat.Session
	conversation *Conversation
	feedback     chat.FeedbackState
	state        State
	lastActive   time.Time
}

func newSession(meta chat.Session, welcome string) *Session {
	return &Session{
		meta:         meta,
		conversation: NewConversation(welcome),
		state:        StateIdle,
		lastActive:   meta.CreatedAt,
	}
}

// NewStandaloneSession builds a session outside any registry, for
// single-user adapters such as the terminal client.
func NewStandaloneSession(meta chat.Session, welcome string) *Session {
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	return newSession(meta, welcome)
}

// BeginEvent blocks until the session is free to process a new input event.
// The returned function must be called when the event is complete.
func (s *Session) BeginEvent() (end func()) {
	s.events.Lock()
	return s.events.Unlock
}

// Meta returns the session metadata.
func (s *Session) Meta() chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.Meta().ID
}

// View is a consistent copy of the session for rendering.
type View struct {
	Session  chat.Session
	Turns    []chat.Turn
	Feedback chat.FeedbackState
	State    State
}

// View returns a consistent copy of the session.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Session:  s.meta,
		Turns:    s.conversation.Turns(),
		Feedback: s.feedback,
		State:    s.state,
	}
}

// Update runs fn with exclusive access to the session's mutable fields.
func (s *Session) Update(fn func(m *Mutable)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Mutable{s: s})
	s.lastActive = time.Now().UTC()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Mutable exposes write access inside Session.Update.
type Mutable struct {
	s *Session
}

func (m *Mutable) Conversation() *Conversation { return m.s.conversation }
func (m *Mutable) Feedback() *chat.FeedbackState { return &m.s.feedback }
func (m *Mutable) State() State { return m.s.state }
func (m *Mutable) SetState(state State) { m.s.state = state }
func (m *Mutable) Meta() chat.Session { return m.s.meta }
