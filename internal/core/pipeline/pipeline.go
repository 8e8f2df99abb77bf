// Package pipeline sequences the per-service stages of a run: build,
// scan, push, cleanup. Stages run one service at a time, in selection
// order; the first failing stage aborts the whole run.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/melih/slipway/internal/config"
	"github.com/melih/slipway/internal/core/domain"
	"github.com/melih/slipway/internal/core/ports"
	"github.com/melih/slipway/internal/core/selector"
)

// Orchestrator drives pipeline runs against the injected collaborators.
type Orchestrator struct {
	cfg       *config.Config
	workDir   string
	diff      ports.DiffProvider
	builder   ports.ImageBuilder
	scanner   ports.ScanRunner
	publisher ports.ImagePublisher
}

// New wires an orchestrator. workDir is the repository checkout that
// contains the configured source root.
func New(cfg *config.Config, workDir string, diff ports.DiffProvider, builder ports.ImageBuilder, scanner ports.ScanRunner, publisher ports.ImagePublisher) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		workDir:   workDir,
		diff:      diff,
		builder:   builder,
		scanner:   scanner,
		publisher: publisher,
	}
}

// Execute performs one pipeline run. Selection errors (an explicit mode
// naming an uncataloged service) are returned before any stage runs.
// Stage failures are recorded on the returned run, which then carries
// RunFailed status; they are not Go errors.
//
// An empty selection finishes the run with RunNoWork. Automation treats
// that as a successful no-op.
func (o *Orchestrator) Execute(ctx context.Context, mode domain.Mode, baseRef, tag string) (*domain.Run, error) {
	if baseRef == "" {
		baseRef = o.cfg.BaseRef
	}

	run := &domain.Run{
		ID:        uuid.NewString(),
		Mode:      mode.String(),
		Tag:       tag,
		Status:    domain.RunRunning,
		StartedAt: time.Now().UTC(),
	}
	if run.Tag == "" {
		run.Tag = run.ID[:8]
	}
	if mode.Kind == domain.ModeAuto {
		run.BaseRef = baseRef
	}

	logger := log.WithFields(log.Fields{"run": run.ID, "mode": run.Mode})

	var changed []string
	if mode.Kind == domain.ModeAuto {
		paths, err := o.diff.ChangedPaths(ctx, baseRef)
		if err != nil {
			return nil, fmt.Errorf("resolve changed paths: %w", err)
		}
		changed = paths
	}

	services, err := selector.Select(mode, o.cfg.Catalog(), changed)
	if err != nil {
		return nil, err
	}
	run.Services = services

	if len(services) == 0 {
		run.Status = domain.RunNoWork
		run.FinishedAt = time.Now().UTC()
		logger.Info("no services selected, nothing to do")
		return run, nil
	}
	logger.WithField("services", services).Info("services selected")

	var built []string
	for _, svc := range services {
		ref := o.cfg.ImageRef(svc, run.Tag)
		dir := filepath.Join(o.workDir, o.cfg.SourceRoot, svc)
		slog := logger.WithFields(log.Fields{"service": svc, "image": ref})

		slog.Info("building image")
		if err := o.builder.BuildImage(ctx, dir, ref); err != nil {
			o.failStage(run, domain.StageResult{Service: svc, Stage: domain.StageBuild, Detail: err.Error()})
			o.cleanup(ctx, run, built, logger)
			return run, nil
		}
		built = append(built, ref)
		run.Stages = append(run.Stages, domain.StageResult{Service: svc, Stage: domain.StageBuild, Passed: true})

		if !o.runScans(ctx, run, svc, dir, slog) {
			o.cleanup(ctx, run, built, logger)
			return run, nil
		}

		slog.Info("pushing image")
		if err := o.publisher.PushImage(ctx, ref); err != nil {
			o.failStage(run, domain.StageResult{Service: svc, Stage: domain.StagePush, Detail: err.Error()})
			o.cleanup(ctx, run, built, logger)
			return run, nil
		}
		run.Stages = append(run.Stages, domain.StageResult{Service: svc, Stage: domain.StagePush, Passed: true})

		// Local image is no longer needed once pushed. A failed removal
		// leaves garbage behind but does not fail the run.
		res := domain.StageResult{Service: svc, Stage: domain.StageCleanup, Passed: true}
		if err := o.publisher.RemoveImage(ctx, ref); err != nil {
			slog.WithError(err).Warn("image cleanup failed")
			res.Passed = false
			res.Detail = err.Error()
		}
		run.Stages = append(run.Stages, res)
		built = built[:len(built)-1]
	}

	run.Status = domain.RunSucceeded
	run.FinishedAt = time.Now().UTC()
	logger.Info("run succeeded")
	return run, nil
}

// runScans executes every configured scan for one service. Returns false
// if a scan found something or could not run, failing the run.
func (o *Orchestrator) runScans(ctx context.Context, run *domain.Run, svc, dir string, slog *log.Entry) bool {
	for _, spec := range o.cfg.ScanSpecs() {
		slog.WithField("scanner", spec.Name).Info("scanning")
		code, err := o.scanner.RunScan(ctx, spec, dir)
		if err != nil {
			o.failStage(run, domain.StageResult{
				Service: svc, Stage: domain.StageScan, Scanner: spec.Name, Detail: err.Error(),
			})
			return false
		}
		if code != 0 {
			o.failStage(run, domain.StageResult{
				Service: svc, Stage: domain.StageScan, Scanner: spec.Name,
				Detail: fmt.Sprintf("%s exited with code %d", spec.Name, code),
			})
			return false
		}
		run.Stages = append(run.Stages, domain.StageResult{
			Service: svc, Stage: domain.StageScan, Scanner: spec.Name, Passed: true,
		})
	}
	return true
}

func (o *Orchestrator) failStage(run *domain.Run, res domain.StageResult) {
	res.Passed = false
	run.Stages = append(run.Stages, res)
	run.Status = domain.RunFailed
	run.Error = fmt.Sprintf("%s/%s: %s", res.Service, res.Stage, res.Detail)
	run.FinishedAt = time.Now().UTC()
	log.WithFields(log.Fields{
		"run":     run.ID,
		"service": res.Service,
		"stage":   res.Stage,
	}).Error(res.Detail)
}

// cleanup removes images built during an aborted run.
func (o *Orchestrator) cleanup(ctx context.Context, run *domain.Run, built []string, logger *log.Entry) {
	for _, ref := range built {
		if err := o.publisher.RemoveImage(ctx, ref); err != nil {
			logger.WithError(err).WithField("image", ref).Warn("image cleanup failed")
		}
	}
}
