// Package pipeline runs one stage of the idea-to-shipped-project flow
// end to end: dispatch the stage's agent, retry recoverable failures,
// extract the result, and persist the artifact.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
	"github.com/sathyaincampus/software-engineering-agents/internal/extract"
	"github.com/sathyaincampus/software-engineering-agents/internal/metrics"
	"github.com/sathyaincampus/software-engineering-agents/internal/orchestrator"
	"github.com/sathyaincampus/software-engineering-agents/internal/retry"
	"github.com/sathyaincampus/software-engineering-agents/internal/storage"
)

// Output kinds. Structured stages parse the model output as JSON; document
// stages keep it as markdown; code stages parse JSON and additionally write
// the produced files under the session's code/ subtree.
const (
	KindStructured = "structured"
	KindDocument   = "document"
	KindCode       = "code"
)

// StageSpec describes one stage of the pipeline.
type StageSpec struct {
	Name    string
	Agent   string
	Phase   string
	Kind    string
	LogLine string
}

// Stages is the pipeline's stage table, in flow order.
var Stages = []StageSpec{
	{Name: "ideas", Agent: "idea_generator", Phase: orchestrator.PhaseStrategy, Kind: KindStructured, LogLine: "Generating ideas"},
	{Name: "prd", Agent: "product_requirements", Phase: orchestrator.PhaseStrategy, Kind: KindDocument, LogLine: "Generating PRD"},
	{Name: "user_stories", Agent: "product_requirements", Phase: orchestrator.PhaseStrategy, Kind: KindStructured, LogLine: "Generating user stories"},
	{Name: "requirement_analysis", Agent: "requirement_analysis", Phase: orchestrator.PhaseStrategy, Kind: KindStructured, LogLine: "Analyzing PRD"},
	{Name: "architecture", Agent: "software_architect", Phase: orchestrator.PhaseArchitecture, Kind: KindStructured, LogLine: "Designing architecture"},
	{Name: "ux_design", Agent: "ux_designer", Phase: orchestrator.PhaseArchitecture, Kind: KindStructured, LogLine: "Designing UX"},
	{Name: "sprint_plan", Agent: "engineering_manager", Phase: orchestrator.PhaseEngineering, Kind: KindStructured, LogLine: "Creating sprint plan"},
	{Name: "backend_code", Agent: "backend_dev", Phase: orchestrator.PhaseEngineering, Kind: KindCode, LogLine: "Writing backend code"},
	{Name: "frontend_code", Agent: "frontend_dev", Phase: orchestrator.PhaseEngineering, Kind: KindCode, LogLine: "Writing frontend code"},
	{Name: "code_review", Agent: "qa_agent", Phase: orchestrator.PhaseEngineering, Kind: KindStructured, LogLine: "Reviewing code"},
	{Name: "walkthrough", Agent: "qa_agent", Phase: orchestrator.PhaseEngineering, Kind: KindDocument, LogLine: "Writing walkthrough"},
	{Name: "debug", Agent: "backend_dev", Phase: orchestrator.PhaseEngineering, Kind: KindStructured, LogLine: "Debugging"},
}

// StageByName looks a stage up in the table.
func StageByName(name string) (StageSpec, bool) {
	for _, s := range Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageSpec{}, false
}

// Runner executes stages against an orchestrator and persists their output.
type Runner struct {
	orch      *orchestrator.Orchestrator
	store     *storage.Store
	extractor *extract.Extractor
	retryCfg  retry.Config
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewRunner wires a stage runner.
func NewRunner(orch *orchestrator.Orchestrator, store *storage.Store, extractor *extract.Extractor, retryCfg retry.Config, m *metrics.Metrics, logger zerolog.Logger) *Runner {
	return &Runner{
		orch:      orch,
		store:     store,
		extractor: extractor,
		retryCfg:  retryCfg,
		metrics:   m,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// RunStage runs one named stage for a session. Model and parse failures come
// back as an envelope value; only missing sessions/stages and storage
// failures are returned as errors.
func (r *Runner) RunStage(ctx context.Context, sessionID, stageName, prompt string) (any, *perrors.Envelope, error) {
	stage, ok := StageByName(stageName)
	if !ok {
		return nil, nil, perrors.NotFound("stage " + stageName)
	}

	session, err := r.orch.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, perrors.NotFound("session " + sessionID)
	}

	session.AddLog(stage.LogLine + "...")
	start := time.Now()

	result := retry.Do(ctx, r.retryCfg, r.logger, func(ctx context.Context) (string, error) {
		return r.orch.Dispatch(ctx, sessionID, stage.Agent, prompt)
	})
	r.observe(stage.Name, start, result.Success)
	if !result.Success {
		session.AddLog(stage.LogLine + " failed: " + result.Envelope.ErrorType)
		if r.metrics != nil {
			r.metrics.RecordRetry(result.Envelope.ErrorType)
		}
		return nil, result.Envelope, nil
	}

	var data any
	switch stage.Kind {
	case KindDocument:
		data = r.extractor.Document(result.Data)
	default:
		parsed, envelope := r.extractor.Structured(result.Data)
		if envelope != nil {
			session.AddLog(stage.LogLine + " failed: " + envelope.ErrorType)
			return nil, envelope, nil
		}
		if stage.Kind == KindCode {
			saved, envelope, err := r.persistCodeFiles(sessionID, parsed)
			if err != nil {
				return nil, nil, err
			}
			if envelope != nil {
				session.AddLog(stage.LogLine + " failed: " + envelope.ErrorType)
				return nil, envelope, nil
			}
			if record, ok := parsed.(map[string]any); ok {
				record["saved_paths"] = saved
			}
		}
		data = parsed
	}

	path, err := r.store.SaveStep(sessionID, stage.Name, data)
	if err != nil {
		if r.metrics != nil {
			r.metrics.RecordStorageOp("save_step", "error")
		}
		return nil, nil, err
	}
	if r.metrics != nil {
		r.metrics.RecordStorageOp("save_step", "ok")
	}

	session.SetPhase(stage.Phase)
	session.AddArtifact(stage.Name, path)
	session.AddLog(stage.LogLine + " complete")

	r.logger.Info().
		Str("session_id", sessionID).
		Str("stage", stage.Name).
		Str("path", path).
		Msg("stage complete")
	return data, nil, nil
}

// persistCodeFiles writes the file list of a code-stage result to the
// session's code tree. The result is expected to carry
// {"files": [{"path": ..., "content": ...}, ...]}; a result whose files
// entries are malformed comes back as a parse-failure envelope, matching
// how other unusable model output is reported. Returns the written paths.
func (r *Runner) persistCodeFiles(sessionID string, parsed any) ([]string, *perrors.Envelope, error) {
	record, ok := parsed.(map[string]any)
	if !ok {
		return nil, codeShapeEnvelope(), nil
	}
	rawFiles, ok := record["files"].([]any)
	if !ok {
		// No files key means nothing to write, not a failure.
		if _, present := record["files"]; !present {
			return []string{}, nil, nil
		}
		return nil, codeShapeEnvelope(), nil
	}

	files := make(map[string]string, len(rawFiles))
	for _, rf := range rawFiles {
		entry, ok := rf.(map[string]any)
		if !ok {
			return nil, codeShapeEnvelope(), nil
		}
		path, pok := entry["path"].(string)
		content, cok := entry["content"].(string)
		if !pok || !cok || path == "" {
			return nil, codeShapeEnvelope(), nil
		}
		files[path] = content
	}

	saved, err := r.SaveGeneratedCode(sessionID, files)
	if err != nil {
		return nil, nil, err
	}
	return saved, nil, nil
}

func codeShapeEnvelope() *perrors.Envelope {
	return &perrors.Envelope{
		Error:     "Code result did not contain a usable files list",
		ErrorType: perrors.TypeParseFailure,
	}
}

// SaveGeneratedCode persists files produced by an engineering stage under the
// session's code tree. It returns the written paths.
func (r *Runner) SaveGeneratedCode(sessionID string, files map[string]string) ([]string, error) {
	paths := make([]string, 0, len(files))
	for rel, content := range files {
		path, err := r.store.SaveCodeFile(sessionID, rel, content)
		if err != nil {
			if r.metrics != nil {
				r.metrics.RecordStorageOp("save_code", "error")
			}
			return paths, err
		}
		paths = append(paths, path)
	}
	if r.metrics != nil {
		r.metrics.RecordStorageOp("save_code", "ok")
	}
	return paths, nil
}

func (r *Runner) observe(stage string, start time.Time, success bool) {
	if r.metrics == nil {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	r.metrics.RecordStageRun(stage, status)
	r.metrics.ObserveStageDuration(stage, time.Since(start).Seconds())
}
