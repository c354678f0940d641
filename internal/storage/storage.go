// Package storage is the durable record of a pipeline run. Every stage
// artifact, generated code file, and task status lives in one directory per
// session under the configured base dir:
//
//	<base>/<session_id>/metadata.json
//	<base>/<session_id>/<stage>.json | <stage>.md
//	<base>/<session_id>/code/<relative path>
//	<base>/<session_id>/task_statuses.json
package storage

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	metadataFile   = "metadata.json"
	taskStatusFile = "task_statuses.json"
	codeDirName    = "code"
)

// Metadata is the per-project record kept in metadata.json.
type Metadata struct {
	SessionID      string    `json:"session_id"`
	ProjectName    string    `json:"project_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	StepsCompleted []string  `json:"steps_completed"`
	LastUpdated    time.Time `json:"last_updated"`
}

// FileInfo describes one file in a project summary listing.
type FileInfo struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Summary is the full project view returned by GetProjectSummary.
type Summary struct {
	SessionID      string     `json:"session_id"`
	ProjectName    string     `json:"project_name"`
	CreatedAt      time.Time  `json:"created_at"`
	LastModified   time.Time  `json:"last_modified"`
	StepsCompleted []string   `json:"steps_completed"`
	Files          []FileInfo `json:"files"`
	TotalFiles     int        `json:"total_files"`
}

// ProjectInfo is one entry in the ListProjects result.
type ProjectInfo struct {
	SessionID      string    `json:"session_id"`
	ProjectName    string    `json:"project_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastModified   time.Time `json:"last_modified"`
	StepsCompleted []string  `json:"steps_completed"`
}

// Store persists project data on the local filesystem.
type Store struct {
	baseDir string
	logger  zerolog.Logger
}

// NewStore creates the base directory if needed and returns a Store.
func NewStore(baseDir string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir %s: %w", baseDir, err)
	}
	return &Store{
		baseDir: baseDir,
		logger:  logger.With().Str("component", "storage").Logger(),
	}, nil
}

// BaseDir returns the storage root.
func (s *Store) BaseDir() string { return s.baseDir }

// projectDir returns (and creates) the directory for a session.
func (s *Store) projectDir(sessionID string) (string, error) {
	if err := validateName(sessionID); err != nil {
		return "", fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	dir := filepath.Join(s.baseDir, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating project dir: %w", err)
	}
	return dir, nil
}

// SaveStep persists a stage's output. Structured values (anything but a
// string) are written as indented JSON; strings are written as markdown.
// The stage is recorded in steps_completed only after the artifact write
// succeeds, so a crash mid-write never shows up as a completed step.
// Returns the path of the written artifact.
func (s *Store) SaveStep(sessionID, stepName string, data any) (string, error) {
	if err := validateName(stepName); err != nil {
		return "", fmt.Errorf("invalid step name %q: %w", stepName, err)
	}
	dir, err := s.projectDir(sessionID)
	if err != nil {
		return "", err
	}

	var path string
	if text, ok := data.(string); ok {
		path = filepath.Join(dir, stepName+".md")
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return "", fmt.Errorf("writing step %s: %w", stepName, err)
		}
	} else {
		raw, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding step %s: %w", stepName, err)
		}
		path = filepath.Join(dir, stepName+".json")
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return "", fmt.Errorf("writing step %s: %w", stepName, err)
		}
	}

	if err := s.updateMetadata(sessionID, stepName); err != nil {
		return "", err
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Str("step", stepName).
		Str("path", path).
		Msg("step saved")
	return path, nil
}

// LoadStep reads a stage's output, trying the structured encoding first and
// falling back to markdown. Returns (nil, nil) when the step was never saved.
func (s *Store) LoadStep(sessionID, stepName string) (any, error) {
	if err := validateName(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	if err := validateName(stepName); err != nil {
		return nil, fmt.Errorf("invalid step name %q: %w", stepName, err)
	}
	dir := filepath.Join(s.baseDir, sessionID)

	jsonPath := filepath.Join(dir, stepName+".json")
	if raw, err := os.ReadFile(jsonPath); err == nil {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decoding step %s: %w", stepName, err)
		}
		return v, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading step %s: %w", stepName, err)
	}

	mdPath := filepath.Join(dir, stepName+".md")
	if raw, err := os.ReadFile(mdPath); err == nil {
		return string(raw), nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading step %s: %w", stepName, err)
	}

	return nil, nil
}

// SaveCodeFile writes a generated source file under the session's code/
// subtree, creating intermediate directories. Last write wins. Paths that
// would escape the code subtree are rejected.
func (s *Store) SaveCodeFile(sessionID, relativePath, content string) (string, error) {
	dir, err := s.projectDir(sessionID)
	if err != nil {
		return "", err
	}
	codeDir := filepath.Join(dir, codeDirName)

	cleaned := filepath.Clean(filepath.FromSlash(relativePath))
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || cleaned == ".." {
		return "", fmt.Errorf("code file path %q escapes the project code directory", relativePath)
	}

	fullPath := filepath.Join(codeDir, cleaned)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("creating code subdir: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing code file %s: %w", relativePath, err)
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Str("file", cleaned).
		Msg("code file saved")
	return fullPath, nil
}

// SaveTaskStatus upserts a single task's status. Unknown task ids are created
// on first write.
func (s *Store) SaveTaskStatus(sessionID, taskID, status string) error {
	dir, err := s.projectDir(sessionID)
	if err != nil {
		return err
	}

	statuses, err := s.LoadTaskStatuses(sessionID)
	if err != nil {
		return err
	}
	statuses[taskID] = status

	raw, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding task statuses: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, taskStatusFile), raw, 0o644); err != nil {
		return fmt.Errorf("writing task statuses: %w", err)
	}
	return nil
}

// LoadTaskStatuses returns the full task_id → status map. A project with no
// saved statuses yields an empty map.
func (s *Store) LoadTaskStatuses(sessionID string) (map[string]string, error) {
	if err := validateName(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	path := filepath.Join(s.baseDir, sessionID, taskStatusFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading task statuses: %w", err)
	}
	statuses := map[string]string{}
	if err := json.Unmarshal(raw, &statuses); err != nil {
		return nil, fmt.Errorf("decoding task statuses: %w", err)
	}
	return statuses, nil
}

// updateMetadata records step completion with read-modify-write semantics.
// Re-saving a step is idempotent: steps_completed stays duplicate-free.
func (s *Store) updateMetadata(sessionID, stepName string) error {
	dir := filepath.Join(s.baseDir, sessionID)
	path := filepath.Join(dir, metadataFile)

	meta, err := s.readMetadata(sessionID)
	if err != nil {
		return err
	}
	if meta == nil {
		meta = &Metadata{
			SessionID:      sessionID,
			CreatedAt:      time.Now().UTC(),
			StepsCompleted: []string{},
		}
	}

	found := false
	for _, st := range meta.StepsCompleted {
		if st == stepName {
			found = true
			break
		}
	}
	if !found {
		meta.StepsCompleted = append(meta.StepsCompleted, stepName)
	}
	meta.LastUpdated = time.Now().UTC()

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// SetProjectName stores the human label on the metadata record, creating the
// record if the project has no completed steps yet.
func (s *Store) SetProjectName(sessionID, name string) error {
	dir, err := s.projectDir(sessionID)
	if err != nil {
		return err
	}
	meta, err := s.readMetadata(sessionID)
	if err != nil {
		return err
	}
	if meta == nil {
		meta = &Metadata{
			SessionID:      sessionID,
			CreatedAt:      time.Now().UTC(),
			StepsCompleted: []string{},
		}
	}
	meta.ProjectName = name
	meta.LastUpdated = time.Now().UTC()

	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), raw, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

func (s *Store) readMetadata(sessionID string) (*Metadata, error) {
	if err := validateName(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	path := filepath.Join(s.baseDir, sessionID, metadataFile)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return &meta, nil
}

// GetProjectSummary returns the metadata plus a file listing, or nil if the
// project has no metadata record.
func (s *Store) GetProjectSummary(sessionID string) (*Summary, error) {
	meta, err := s.readMetadata(sessionID)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, nil
	}

	dir := filepath.Join(s.baseDir, sessionID)
	files := []FileInfo{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == metadataFile {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, FileInfo{
			Path:     filepath.ToSlash(rel),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing project files: %w", err)
	}

	steps := meta.StepsCompleted
	if steps == nil {
		steps = []string{}
	}
	return &Summary{
		SessionID:      meta.SessionID,
		ProjectName:    orDefault(meta.ProjectName, "Untitled Project"),
		CreatedAt:      meta.CreatedAt,
		LastModified:   meta.LastUpdated,
		StepsCompleted: steps,
		Files:          files,
		TotalFiles:     len(files),
	}, nil
}

// ExportProject bundles the project directory into <base>/<session_id>.zip.
// Returns ("", nil) when the project does not exist.
func (s *Store) ExportProject(sessionID string) (string, error) {
	if err := validateName(sessionID); err != nil {
		return "", fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}
	dir := filepath.Join(s.baseDir, sessionID)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", nil
	}

	zipPath := filepath.Join(s.baseDir, sessionID+".zip")
	f, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		zw.Close()
		return "", fmt.Errorf("archiving project: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalizing archive: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("archive", zipPath).
		Msg("project exported")
	return zipPath, nil
}

// ListProjects enumerates all projects with metadata, most recently modified
// first.
func (s *Store) ListProjects() ([]ProjectInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	projects := []ProjectInfo{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.readMetadata(e.Name())
		if err != nil {
			return nil, err
		}
		if meta == nil {
			continue
		}
		steps := meta.StepsCompleted
		if steps == nil {
			steps = []string{}
		}
		projects = append(projects, ProjectInfo{
			SessionID:      e.Name(),
			ProjectName:    meta.ProjectName,
			CreatedAt:      meta.CreatedAt,
			LastModified:   meta.LastUpdated,
			StepsCompleted: steps,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].LastModified.After(projects[j].LastModified)
	})
	return projects, nil
}

// validateName rejects identifiers that could address files outside the
// project tree.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("empty name")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("contains path separators")
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
