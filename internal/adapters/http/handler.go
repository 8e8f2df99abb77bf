package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/melih/slipway/internal/core/domain"
	"github.com/melih/slipway/internal/core/ports"
	"github.com/melih/slipway/internal/core/selector"
)

// Executor runs a pipeline. Satisfied by pipeline.Orchestrator.
type Executor interface {
	Execute(ctx context.Context, mode domain.Mode, baseRef, tag string) (*domain.Run, error)
}

// PipelineHandler exposes pipeline runs and selection previews over HTTP.
type PipelineHandler struct {
	executor Executor
	diff     ports.DiffProvider
	catalog  domain.Catalog
	baseRef  string
	store    *RunStore
}

func NewPipelineHandler(executor Executor, diff ports.DiffProvider, catalog domain.Catalog, baseRef string, store *RunStore) *PipelineHandler {
	return &PipelineHandler{
		executor: executor,
		diff:     diff,
		catalog:  catalog,
		baseRef:  baseRef,
		store:    store,
	}
}

type triggerRunRequest struct {
	Mode    string `json:"mode"`
	BaseRef string `json:"base_ref"`
	Tag     string `json:"tag"`
}

// TriggerRun starts a pipeline run and blocks until it completes. The
// run's status field distinguishes "no-work" from success and failure;
// all three are reported with 200.
func (h *PipelineHandler) TriggerRun(c *fiber.Ctx) error {
	var req triggerRunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Mode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Mode is required (all, none, auto or a service name)",
		})
	}

	run, err := h.executor.Execute(c.Context(), domain.ParseMode(req.Mode), req.BaseRef, req.Tag)
	if err != nil {
		var unknown *selector.UnknownServiceError
		if errors.As(err, &unknown) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": unknown.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.store.Add(run)
	return c.JSON(run)
}

// GetRun reports one stored run.
func (h *PipelineHandler) GetRun(c *fiber.Ctx) error {
	run, ok := h.store.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Run not found",
		})
	}
	return c.JSON(run)
}

// ListRuns reports all stored runs, most recent first.
func (h *PipelineHandler) ListRuns(c *fiber.Ctx) error {
	return c.JSON(h.store.List())
}

// ListServices reports the service catalog.
func (h *PipelineHandler) ListServices(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"services":    h.catalog.Services,
		"source_root": h.catalog.SourceRoot,
	})
}

type previewRequest struct {
	Mode    string `json:"mode"`
	BaseRef string `json:"base_ref"`
}

// PreviewSelection resolves a selection without running any stage, so
// operators can see what a run would do.
func (h *PipelineHandler) PreviewSelection(c *fiber.Ctx) error {
	var req previewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Mode == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Mode is required (all, none, auto or a service name)",
		})
	}
	mode := domain.ParseMode(req.Mode)

	var changed []string
	if mode.Kind == domain.ModeAuto {
		baseRef := req.BaseRef
		if baseRef == "" {
			baseRef = h.baseRef
		}
		paths, err := h.diff.ChangedPaths(c.Context(), baseRef)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		changed = paths
	}

	services, err := selector.Select(mode, h.catalog, changed)
	if err != nil {
		var unknown *selector.UnknownServiceError
		if errors.As(err, &unknown) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": unknown.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"mode":     mode.String(),
		"services": services,
		"no_work":  len(services) == 0,
	})
}
