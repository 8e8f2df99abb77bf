package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melih/slipway/internal/config"
	"github.com/melih/slipway/internal/core/domain"
)

// callLog records collaborator invocations in order, shared by all fakes
// so stage sequencing can be asserted.
type callLog struct {
	events []string
}

func (l *callLog) add(format string, args ...any) {
	l.events = append(l.events, fmt.Sprintf(format, args...))
}

type fakeDiff struct {
	log     *callLog
	paths   []string
	err     error
	baseRef string
}

func (f *fakeDiff) ChangedPaths(_ context.Context, baseRef string) ([]string, error) {
	f.baseRef = baseRef
	f.log.add("diff %s", baseRef)
	return f.paths, f.err
}

type fakeBuilder struct {
	log     *callLog
	failRef string
}

func (f *fakeBuilder) BuildImage(_ context.Context, dir, ref string) error {
	f.log.add("build %s", ref)
	if ref == f.failRef {
		return errors.New("dockerfile missing")
	}
	return nil
}

type fakeScanner struct {
	log      *callLog
	exitCode map[string]int // keyed by "<scanner>/<dir>"
	err      error
}

func (f *fakeScanner) RunScan(_ context.Context, spec domain.ScanSpec, dir string) (int, error) {
	f.log.add("scan %s %s", spec.Name, dir)
	if f.err != nil {
		return 0, f.err
	}
	return f.exitCode[spec.Name+"/"+dir], nil
}

type fakePublisher struct {
	log     *callLog
	pushErr error
	removed []string
}

func (f *fakePublisher) PushImage(_ context.Context, ref string) error {
	f.log.add("push %s", ref)
	return f.pushErr
}

func (f *fakePublisher) RemoveImage(_ context.Context, ref string) error {
	f.log.add("remove %s", ref)
	f.removed = append(f.removed, ref)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Services:   []string{"adservice", "frontend"},
		SourceRoot: "src",
		BaseRef:    "origin/main",
		Registry:   config.RegistryConfig{Host: "reg.local", Namespace: "shop"},
		Scans: []config.ScanConfig{
			{Name: "gitleaks", Image: "zricethezav/gitleaks:latest"},
			{Name: "trivy", Image: "aquasec/trivy:latest"},
		},
	}
}

type harness struct {
	log       *callLog
	diff      *fakeDiff
	builder   *fakeBuilder
	scanner   *fakeScanner
	publisher *fakePublisher
	orc       *Orchestrator
}

func newHarness(cfg *config.Config) *harness {
	l := &callLog{}
	h := &harness{
		log:       l,
		diff:      &fakeDiff{log: l},
		builder:   &fakeBuilder{log: l},
		scanner:   &fakeScanner{log: l, exitCode: map[string]int{}},
		publisher: &fakePublisher{log: l},
	}
	h.orc = New(cfg, "/work", h.diff, h.builder, h.scanner, h.publisher)
	return h
}

func TestExecute_AllModeRunsEveryStageInOrder(t *testing.T) {
	h := newHarness(testConfig())

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("all"), "", "b7")
	require.NoError(t, err)

	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Equal(t, []string{"adservice", "frontend"}, run.Services)
	assert.Equal(t, []string{
		"build reg.local/shop/adservice:b7",
		"scan gitleaks /work/src/adservice",
		"scan trivy /work/src/adservice",
		"push reg.local/shop/adservice:b7",
		"remove reg.local/shop/adservice:b7",
		"build reg.local/shop/frontend:b7",
		"scan gitleaks /work/src/frontend",
		"scan trivy /work/src/frontend",
		"push reg.local/shop/frontend:b7",
		"remove reg.local/shop/frontend:b7",
	}, h.log.events)

	// build, 2 scans, push, cleanup per service
	assert.Len(t, run.Stages, 10)
	for _, st := range run.Stages {
		assert.True(t, st.Passed, "stage %s/%s", st.Service, st.Stage)
	}
}

func TestExecute_NoneModeIsNoWork(t *testing.T) {
	h := newHarness(testConfig())

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("none"), "", "b7")
	require.NoError(t, err)

	assert.Equal(t, domain.RunNoWork, run.Status)
	assert.Empty(t, run.Services)
	assert.Empty(t, h.log.events, "no collaborator may be touched")
}

func TestExecute_ExplicitUnknownFailsBeforeSideEffects(t *testing.T) {
	h := newHarness(testConfig())

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("chckout"), "", "b7")
	require.Error(t, err)
	assert.Nil(t, run)
	assert.Empty(t, h.log.events)
}

func TestExecute_AutoSelectsFromDiff(t *testing.T) {
	h := newHarness(testConfig())
	h.diff.paths = []string{"src/frontend/app.go", "docs/readme.md"}

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("auto"), "origin/release", "b7")
	require.NoError(t, err)

	assert.Equal(t, "origin/release", h.diff.baseRef)
	assert.Equal(t, []string{"frontend"}, run.Services)
	assert.Equal(t, domain.RunSucceeded, run.Status)
}

func TestExecute_AutoDefaultsBaseRefFromConfig(t *testing.T) {
	h := newHarness(testConfig())

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("auto"), "", "b7")
	require.NoError(t, err)

	assert.Equal(t, "origin/main", h.diff.baseRef)
	assert.Equal(t, domain.RunNoWork, run.Status)
}

func TestExecute_AutoEmptyDiffIsNoWorkNotError(t *testing.T) {
	h := newHarness(testConfig())
	h.diff.paths = nil

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("auto"), "", "b7")
	require.NoError(t, err)
	assert.Equal(t, domain.RunNoWork, run.Status)
	assert.Equal(t, []string{"diff origin/main"}, h.log.events)
}

func TestExecute_DiffErrorSurfaces(t *testing.T) {
	h := newHarness(testConfig())
	h.diff.err = errors.New("not a repository")

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("auto"), "", "b7")
	require.Error(t, err)
	assert.Nil(t, run)
}

func TestExecute_BuildFailureAbortsRun(t *testing.T) {
	h := newHarness(testConfig())
	h.builder.failRef = "reg.local/shop/adservice:b7"

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("all"), "", "b7")
	require.NoError(t, err)

	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Error, "adservice/build")
	// frontend never starts: fail-fast at run granularity
	assert.Equal(t, []string{"build reg.local/shop/adservice:b7"}, h.log.events)
}

func TestExecute_ScanFindingFailsRunAndCleansUp(t *testing.T) {
	h := newHarness(testConfig())
	h.scanner.exitCode["trivy//work/src/frontend"] = 1

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("all"), "", "b7")
	require.NoError(t, err)

	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Error, "frontend/scan")
	// adservice made it through; frontend's built image is removed on
	// the way out and never pushed.
	assert.NotContains(t, h.log.events, "push reg.local/shop/frontend:b7")
	assert.Contains(t, h.publisher.removed, "reg.local/shop/frontend:b7")

	var scanResult *domain.StageResult
	for i := range run.Stages {
		if run.Stages[i].Stage == domain.StageScan && !run.Stages[i].Passed {
			scanResult = &run.Stages[i]
		}
	}
	require.NotNil(t, scanResult)
	assert.Equal(t, "trivy", scanResult.Scanner)
	assert.Contains(t, scanResult.Detail, "exited with code 1")
}

func TestExecute_ScannerErrorFailsRun(t *testing.T) {
	h := newHarness(testConfig())
	h.scanner.err = errors.New("daemon unreachable")

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("all"), "", "b7")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
}

func TestExecute_PushFailureAbortsRun(t *testing.T) {
	h := newHarness(testConfig())
	h.publisher.pushErr = errors.New("registry unavailable")

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("all"), "", "b7")
	require.NoError(t, err)

	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Error, "adservice/push")
	assert.Contains(t, h.publisher.removed, "reg.local/shop/adservice:b7")
}

func TestExecute_GeneratesTagWhenUnset(t *testing.T) {
	h := newHarness(testConfig())

	run, err := h.orc.Execute(context.Background(), domain.ParseMode("none"), "", "")
	require.NoError(t, err)
	assert.Len(t, run.Tag, 8)
	assert.Equal(t, run.ID[:8], run.Tag)
}
