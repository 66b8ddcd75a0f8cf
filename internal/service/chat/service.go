package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/model/tutor"
)

var (
	ErrTutorNotFound   = errors.New("tutor not found")
	ErrSessionNotFound = errors.New("session not found")
)

// Service keeps the live sessions of this process. Nothing outlives the
// process and nothing is shared between sessions.
type Service struct {
	tutors tutor.Store

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates an empty session registry.
func NewService(tutors tutor.Store) *Service {
	return &Service{
		tutors:   tutors,
		sessions: make(map[string]*Session),
	}
}

// CreateSession starts a conversation with the given tutor; an empty id
// selects the default tutor.
func (s *Service) CreateSession(_ context.Context, tutorID string) (*Session, error) {
	profile, ok := s.tutors.FindByID(tutorID)
	if !ok {
		return nil, ErrTutorNotFound
	}

	session := newSession(chat.Session{
		ID:        uuid.NewString(),
		TutorID:   profile.ID,
		CreatedAt: time.Now().UTC(),
	}, profile.WelcomeMessage)

	s.mu.Lock()
	s.sessions[session.meta.ID] = session
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a live session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// EndSession discards a session and its conversation.
func (s *Service) EndSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ReapIdle discards sessions with no activity since before cutoff and returns
// how many were removed.
func (s *Service) ReapIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor reaps sessions idle for longer than ttl until ctx is done.
func (s *Service) RunJanitor(ctx context.Context, ttl time.Duration, onReap func(removed int)) {
	if ttl <= 0 {
		return
	}

	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := s.ReapIdle(now.Add(-ttl)); removed > 0 && onReap != nil {
				onReap(removed)
			}
		}
	}
}
