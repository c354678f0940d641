package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	perrors "github.com/sathyaincampus/software-engineering-agents/internal/errors"
	"github.com/sathyaincampus/software-engineering-agents/internal/health"
	"github.com/sathyaincampus/software-engineering-agents/internal/llm"
	"github.com/sathyaincampus/software-engineering-agents/internal/orchestrator"
	"github.com/sathyaincampus/software-engineering-agents/internal/pipeline"
	"github.com/sathyaincampus/software-engineering-agents/internal/storage"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	orch      *orchestrator.Orchestrator
	runner    *pipeline.Runner
	store     *storage.Store
	catalog   *llm.Catalog
	checker   *health.Checker
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(orch *orchestrator.Orchestrator, runner *pipeline.Runner, store *storage.Store, catalog *llm.Catalog, checker *health.Checker, logger zerolog.Logger) *Handlers {
	return &Handlers{
		orch:      orch,
		runner:    runner,
		store:     store,
		catalog:   catalog,
		checker:   checker,
		logger:    logger.With().Str("component", "handlers").Logger(),
		startTime: time.Now(),
	}
}

// StartSession handles POST /session/start.
func (h *Handlers) StartSession(c *fiber.Ctx) error {
	session, err := h.orch.CreateSession(c.Context())
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"session_create_failed", "Internal Server Error",
			err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(session.View())
}

// GetSession handles GET /session/:id.
func (h *Handlers) GetSession(c *fiber.Ctx) error {
	id := c.Params("id")
	session, err := h.orch.GetSession(c.Context(), id)
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"session_load_failed", "Internal Server Error",
			err.Error())
	}
	if session == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"session_not_found", "Not Found",
			"Session not found: "+id)
	}
	return c.JSON(session.View())
}

// RunAgent handles POST /api/v1/agents/:name/run. The path parameter is the
// stage name; failures from the model come back in the response body as an
// error envelope, not as an HTTP error.
func (h *Handlers) RunAgent(c *fiber.Ctx) error {
	stage := c.Params("name")

	var req RunAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.SessionID == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_session_id", "Bad Request",
			"session_id is required")
	}

	result, envelope, err := h.runner.RunStage(c.Context(), req.SessionID, stage, req.Prompt)
	if err != nil {
		if errors.Is(err, perrors.ErrNotFound) {
			return problemResponse(c, fiber.StatusNotFound,
				"not_found", "Not Found", err.Error())
		}
		return problemResponse(c, fiber.StatusInternalServerError,
			"stage_failed", "Internal Server Error", err.Error())
	}
	if envelope != nil {
		return c.JSON(envelope)
	}

	return c.JSON(RunAgentResponse{
		SessionID: req.SessionID,
		Stage:     stage,
		Result:    result,
	})
}

// ListProjects handles GET /api/v1/projects.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects, err := h.store.ListProjects()
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"list_failed", "Internal Server Error", err.Error())
	}
	if projects == nil {
		projects = []storage.ProjectInfo{}
	}
	return c.JSON(fiber.Map{"projects": projects})
}

// GetProject handles GET /api/v1/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	id := c.Params("id")
	summary, err := h.store.GetProjectSummary(id)
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"summary_failed", "Internal Server Error", err.Error())
	}
	if summary == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"Project not found: "+id)
	}
	return c.JSON(summary)
}

// ExportProject handles GET /api/v1/projects/:id/export.
func (h *Handlers) ExportProject(c *fiber.Ctx) error {
	id := c.Params("id")
	zipPath, err := h.store.ExportProject(id)
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"export_failed", "Internal Server Error", err.Error())
	}
	if zipPath == "" {
		return problemResponse(c, fiber.StatusNotFound,
			"project_not_found", "Not Found",
			"Project not found: "+id)
	}
	return c.Download(zipPath, id+".zip")
}

// GetProjectStep handles GET /api/v1/projects/:id/steps/:step.
func (h *Handlers) GetProjectStep(c *fiber.Ctx) error {
	id := c.Params("id")
	step := c.Params("step")

	data, err := h.store.LoadStep(id, step)
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"step_load_failed", "Internal Server Error", err.Error())
	}
	if data == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"step_not_found", "Not Found",
			"Step not found: "+step)
	}
	return c.JSON(fiber.Map{"step": step, "data": data})
}

// SetTaskStatus handles PUT /api/v1/projects/:id/tasks/:taskID.
func (h *Handlers) SetTaskStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	taskID := c.Params("taskID")

	var req SetTaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Status == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_status", "Bad Request",
			"status is required")
	}

	if err := h.store.SaveTaskStatus(id, taskID, req.Status); err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"task_status_failed", "Internal Server Error", err.Error())
	}
	return c.JSON(fiber.Map{"ok": true})
}

// GetTaskStatuses handles GET /api/v1/projects/:id/tasks.
func (h *Handlers) GetTaskStatuses(c *fiber.Ctx) error {
	id := c.Params("id")
	statuses, err := h.store.LoadTaskStatuses(id)
	if err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"task_status_failed", "Internal Server Error", err.Error())
	}
	return c.JSON(fiber.Map{"tasks": statuses})
}

// RenameProject handles PUT /api/v1/projects/:id/name.
func (h *Handlers) RenameProject(c *fiber.Ctx) error {
	id := c.Params("id")

	var req RenameProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}
	if req.Name == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_name", "Bad Request",
			"name is required")
	}

	if err := h.store.SetProjectName(id, req.Name); err != nil {
		return problemResponse(c, fiber.StatusInternalServerError,
			"rename_failed", "Internal Server Error", err.Error())
	}

	if session, _ := h.orch.GetSession(c.Context(), id); session != nil {
		session.SetName(req.Name)
	}
	return c.JSON(fiber.Map{"ok": true, "name": req.Name})
}

// ListModels handles GET /api/v1/models.
func (h *Handlers) ListModels(c *fiber.Ctx) error {
	provider := c.Query("provider", "google")
	models := h.catalog.Models(provider)
	if models == nil {
		models = []llm.ModelInfo{}
	}
	return c.JSON(fiber.Map{"provider": provider, "models": models})
}

// Liveness handles GET /healthz.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	if !h.checker.IsReady(c.Context()) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "not_ready",
		})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// HealthDetail handles GET /api/v1/health.
func (h *Handlers) HealthDetail(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())

	checks := make(map[string]string, len(results))
	overall := "ok"
	for name, status := range results {
		checks[name] = string(status)
		if status == health.StatusDown {
			overall = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}
