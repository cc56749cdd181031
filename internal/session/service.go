package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/lumeoapp/lumeo/backend/internal/assets"
	"github.com/lumeoapp/lumeo/backend/internal/composer"
	"github.com/lumeoapp/lumeo/backend/internal/draft"
	"github.com/lumeoapp/lumeo/backend/internal/logger"
	"github.com/lumeoapp/lumeo/backend/internal/metrics"
	"go.uber.org/zap"
)

// Service is the in-memory registry of active composition sessions
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	previews *assets.PreviewStore
	store    draft.Store
}

// NewService creates the session registry backed by the given preview
// store and draft checkpoint store
func NewService(previews *assets.PreviewStore, store draft.Store) *Service {
	return &Service{
		sessions: make(map[string]*Session),
		previews: previews,
		store:    store,
	}
}

// Create starts a new composition session for a user. A previously
// checkpointed draft is restored if one exists, and periodic autosaving
// begins immediately.
func (svc *Service) Create(ctx context.Context, userID string) *Session {
	s := newSession(uuid.New().String(), userID, composer.NewManager(svc.previews), svc.store)

	restored := s.restoreDraft(ctx)
	s.autosaver.Start()

	svc.mu.Lock()
	svc.sessions[s.ID] = s
	svc.mu.Unlock()

	metrics.Get().SessionsStarted.Inc()
	logger.Log.Info("Composition session started",
		logger.WithSessionID(s.ID),
		zap.String("user_id", userID),
		zap.Bool("draft_restored", restored),
	)
	return s
}

// Get looks up an active session by ID
func (svc *Service) Get(sessionID string) (*Session, bool) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	s, ok := svc.sessions[sessionID]
	return s, ok
}

// Discard tears a session down and drops it from the registry
func (svc *Service) Discard(ctx context.Context, sessionID string) bool {
	svc.mu.Lock()
	s, ok := svc.sessions[sessionID]
	if ok {
		delete(svc.sessions, sessionID)
	}
	svc.mu.Unlock()

	if !ok {
		return false
	}
	s.Discard(ctx)
	logger.Log.Info("Composition session discarded", logger.WithSessionID(sessionID))
	return true
}

// Shutdown stops every session's autosaver; called on server shutdown
func (svc *Service) Shutdown() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	for _, s := range svc.sessions {
		s.autosaver.Stop()
	}
	svc.sessions = make(map[string]*Session)
}
