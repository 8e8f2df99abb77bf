package domain

import "time"

// RunStatus is the terminal (or in-flight) state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	// RunNoWork means the selection came up empty. This is a successful
	// no-op, reported distinctly so automation does not treat it as a
	// failure.
	RunNoWork RunStatus = "no-work"
	RunFailed RunStatus = "failed"
)

// Stage names the pipeline phases executed per service.
type Stage string

const (
	StageBuild   Stage = "build"
	StageScan    Stage = "scan"
	StagePush    Stage = "push"
	StageCleanup Stage = "cleanup"
)

// StageResult records the outcome of one stage for one service.
// Scanner is set only for scan stages.
type StageResult struct {
	Service string `json:"service"`
	Stage   Stage  `json:"stage"`
	Scanner string `json:"scanner,omitempty"`
	Passed  bool   `json:"passed"`
	Detail  string `json:"detail,omitempty"`
}

// Run is one pipeline invocation. Services and Stages are derived once
// per run and never mutated after the run finishes.
type Run struct {
	ID         string        `json:"id"`
	Mode       string        `json:"mode"`
	BaseRef    string        `json:"base_ref,omitempty"`
	Tag        string        `json:"tag"`
	Services   []string      `json:"services"`
	Stages     []StageResult `json:"stages"`
	Status     RunStatus     `json:"status"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}
