package orchestrator

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionExists is returned when an execution context for the given id is
// already registered. Restoration treats it as success.
var ErrSessionExists = errors.New("execution context already exists")

// SessionService manages the provider-side execution context that stage
// handlers run in, keyed by app name, user id, and session id. The real
// implementation lives with the agent runtime; the orchestrator only needs
// create semantics.
type SessionService interface {
	CreateSession(ctx context.Context, appName, userID, sessionID string) error
}

// MemorySessionService is an in-process SessionService.
type MemorySessionService struct {
	mu       sync.Mutex
	sessions map[string]struct{}
}

// NewMemorySessionService returns an empty in-process session service.
func NewMemorySessionService() *MemorySessionService {
	return &MemorySessionService{sessions: make(map[string]struct{})}
}

// CreateSession registers the execution context, returning ErrSessionExists
// on duplicates.
func (m *MemorySessionService) CreateSession(_ context.Context, appName, userID, sessionID string) error {
	key := appName + "/" + userID + "/" + sessionID
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[key]; ok {
		return ErrSessionExists
	}
	m.sessions[key] = struct{}{}
	return nil
}
