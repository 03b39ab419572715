package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/inkrhythm/internal/present"
	"github.com/lehigh-university-libraries/inkrhythm/internal/workflow"
)

// Tab is everything kept for one browser tab
type Tab struct {
	ID         string                `json:"id"`
	Controller *workflow.Controller  `json:"-"`
	Stickers   *present.StickerBoard `json:"-"`
	CopyAck    *present.CopyAck      `json:"-"`
	CreatedAt  time.Time             `json:"created_at"`
}

// Backend is what a tab's controller and sticker board call out to
type Backend interface {
	workflow.Analyzer
	present.Suggester
}

// NewTab starts a fresh session in the home view
func NewTab(ctx context.Context, backend Backend, copyDelay time.Duration) *Tab {
	return &Tab{
		ID:         uuid.NewString(),
		Controller: workflow.New(ctx, backend),
		Stickers:   present.NewStickerBoard(ctx, backend),
		CopyAck:    present.NewCopyAck(copyDelay),
		CreatedAt:  time.Now(),
	}
}

type SessionStore struct {
	sessions map[string]*Tab
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Tab),
	}
}

func (s *SessionStore) Get(sessionID string) (*Tab, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(sessionID string, session *Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

func (s *SessionStore) GetAll() map[string]*Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*Tab, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tab, ok := s.sessions[sessionID]; ok {
		tab.CopyAck.Stop()
		delete(s.sessions, sessionID)
	}
}

// Prune drops tabs idle for longer than maxIdle and returns how many were removed.
// A tab with an analysis in flight is never idle.
func (s *SessionStore) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, tab := range s.sessions {
		if tab.Controller.Snapshot().IsAnalyzing {
			continue
		}
		if tab.Controller.LastActive().Before(cutoff) {
			tab.CopyAck.Stop()
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
