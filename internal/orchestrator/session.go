package orchestrator

import (
	"fmt"
	"sync"
	"time"
)

// Session statuses. A session is "initialized" when created fresh and
// "restored" when rebuilt from storage after memory loss; restoration never
// yields "initialized" again.
const (
	StatusInitialized = "initialized"
	StatusRestored    = "restored"
)

// Pipeline phases.
const (
	PhaseStrategy     = "strategy"
	PhaseArchitecture = "architecture"
	PhaseEngineering  = "engineering"
)

// ProjectSession is the in-memory representation of a running pipeline
// instance. It is safe for concurrent use; artifact-write ordering for one
// session remains the caller's responsibility.
type ProjectSession struct {
	mu          sync.Mutex
	sessionID   string
	projectName string
	status      string
	phase       string
	createdAt   time.Time
	artifacts   map[string]string
	logs        []string
}

// SessionView is the immutable snapshot exposed to callers and serialized
// over the API.
type SessionView struct {
	SessionID    string            `json:"session_id"`
	ProjectName  string            `json:"project_name"`
	Status       string            `json:"status"`
	CurrentPhase string            `json:"current_phase"`
	CreatedAt    time.Time         `json:"created_at"`
	Artifacts    map[string]string `json:"artifacts"`
	Logs         []string          `json:"logs"`
}

func newSession(sessionID, status string, createdAt time.Time) *ProjectSession {
	return &ProjectSession{
		sessionID:   sessionID,
		projectName: "Untitled Project",
		status:      status,
		phase:       PhaseStrategy,
		createdAt:   createdAt,
		artifacts:   map[string]string{},
	}
}

// ID returns the session identifier.
func (s *ProjectSession) ID() string { return s.sessionID }

// Status returns the coarse lifecycle tag.
func (s *ProjectSession) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus replaces the lifecycle tag.
func (s *ProjectSession) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Name returns the project label.
func (s *ProjectSession) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectName
}

// SetName updates the project label.
func (s *ProjectSession) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectName = name
}

// Phase returns the active pipeline phase.
func (s *ProjectSession) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SetPhase updates the active pipeline phase.
func (s *ProjectSession) SetPhase(phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

// AddArtifact records the storage path of a produced artifact.
func (s *ProjectSession) AddArtifact(name, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[name] = path
}

// AddLog appends a timestamped entry to the session's activity trail.
func (s *ProjectSession) AddLog(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), message))
}

// View returns a snapshot of the session state.
func (s *ProjectSession) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	artifacts := make(map[string]string, len(s.artifacts))
	for k, v := range s.artifacts {
		artifacts[k] = v
	}
	logs := make([]string, len(s.logs))
	copy(logs, s.logs)

	return SessionView{
		SessionID:    s.sessionID,
		ProjectName:  s.projectName,
		Status:       s.status,
		CurrentPhase: s.phase,
		CreatedAt:    s.createdAt,
		Artifacts:    artifacts,
		Logs:         logs,
	}
}
