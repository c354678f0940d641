// Package orchestrator owns the mapping from session id to in-memory
// ProjectSession, mediates stage dispatch to named handlers, and restores
// sessions from storage after memory loss.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
	"github.com/sathyaincampus/software-engineering-agents/internal/storage"
)

// Execution-context namespace handed to the agent runtime.
const (
	AppName = "software_engineering_agents"
	UserID  = "user"
)

// StageHandler performs the generative call for one pipeline stage and
// returns the concatenated raw text of the response. Implementations may
// return provider errors whose messages the failure classifier
// pattern-matches on.
type StageHandler interface {
	Run(ctx context.Context, sessionID, prompt string) (string, error)
}

// StageHandlerFunc adapts a function to the StageHandler interface.
type StageHandlerFunc func(ctx context.Context, sessionID, prompt string) (string, error)

// Run implements StageHandler.
func (f StageHandlerFunc) Run(ctx context.Context, sessionID, prompt string) (string, error) {
	return f(ctx, sessionID, prompt)
}

// Orchestrator registers stage handlers and tracks live sessions. It is safe
// for concurrent use across different session ids; two concurrent dispatches
// for the same session id may interleave their artifact writes
// (single-writer-per-session is the caller's contract).
type Orchestrator struct {
	mu       sync.RWMutex
	sessions map[string]*ProjectSession
	handlers map[string]StageHandler

	store    *storage.Store
	contexts SessionService
	logger   zerolog.Logger
}

// New creates an Orchestrator with injected stores so tests can run isolated
// instances.
func New(store *storage.Store, contexts SessionService, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		sessions: make(map[string]*ProjectSession),
		handlers: make(map[string]StageHandler),
		store:    store,
		contexts: contexts,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}
}

// CreateSession allocates a fresh session id, initializes the external
// execution context for it, and registers the session in memory.
func (o *Orchestrator) CreateSession(ctx context.Context) (*ProjectSession, error) {
	sessionID := uuid.New().String()

	if err := o.contexts.CreateSession(ctx, AppName, UserID, sessionID); err != nil {
		return nil, fmt.Errorf("initializing execution context: %w", err)
	}

	session := newSession(sessionID, StatusInitialized, time.Now().UTC())

	o.mu.Lock()
	o.sessions[sessionID] = session
	o.mu.Unlock()

	o.logger.Info().Str("session_id", sessionID).Msg("session created")
	return session, nil
}

// GetSession returns the in-memory session, falling back to restoring it
// from storage. Returns nil when the session is unknown in both places.
func (o *Orchestrator) GetSession(ctx context.Context, sessionID string) (*ProjectSession, error) {
	o.mu.RLock()
	session, ok := o.sessions[sessionID]
	o.mu.RUnlock()
	if ok {
		return session, nil
	}
	return o.RestoreSession(ctx, sessionID)
}

// RestoreSession rebuilds a session from the on-disk project record. The
// execution context is re-initialized, tolerating "already exists". The
// restored session is tagged StatusRestored, never StatusInitialized.
// Returns nil when no project record exists.
func (o *Orchestrator) RestoreSession(ctx context.Context, sessionID string) (*ProjectSession, error) {
	summary, err := o.store.GetProjectSummary(sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading project record: %w", err)
	}
	if summary == nil {
		return nil, nil
	}

	if err := o.contexts.CreateSession(ctx, AppName, UserID, sessionID); err != nil && !errors.Is(err, ErrSessionExists) {
		// The execution context may have survived the restart; anything else
		// is a real initialization failure.
		return nil, fmt.Errorf("re-initializing execution context: %w", err)
	}

	createdAt := summary.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	session := newSession(sessionID, StatusRestored, createdAt)
	session.SetName(summary.ProjectName)
	for _, step := range summary.StepsCompleted {
		session.AddArtifact(step, step)
	}
	session.AddLog("Session restored from storage")

	o.mu.Lock()
	// A racing restore may have won; keep the registered one.
	if existing, ok := o.sessions[sessionID]; ok {
		o.mu.Unlock()
		return existing, nil
	}
	o.sessions[sessionID] = session
	o.mu.Unlock()

	o.logger.Info().
		Str("session_id", sessionID).
		Int("steps_completed", len(summary.StepsCompleted)).
		Msg("session restored")
	return session, nil
}

// RegisterHandler adds a named stage handler to the registry.
func (o *Orchestrator) RegisterHandler(name string, handler StageHandler) {
	o.mu.Lock()
	o.handlers[name] = handler
	o.mu.Unlock()
	o.logger.Info().Str("handler", name).Msg("stage handler registered")
}

// Handler looks up a registered stage handler.
func (o *Orchestrator) Handler(name string) (StageHandler, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	h, ok := o.handlers[name]
	return h, ok
}

// Dispatch resolves the session (restoring if needed), looks up the named
// handler, appends a dispatch log entry, and invokes the handler once.
func (o *Orchestrator) Dispatch(ctx context.Context, sessionID, name, prompt string) (string, error) {
	session, err := o.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", perrors.NotFound("session " + sessionID)
	}

	handler, ok := o.Handler(name)
	if !ok {
		return "", perrors.NotFound("handler " + name)
	}

	session.AddLog("Dispatching task to " + name)
	return handler.Run(ctx, sessionID, prompt)
}
