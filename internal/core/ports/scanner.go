package ports

import (
	"context"

	"github.com/melih/slipway/internal/core/domain"
)

// ScanRunner executes one configured security scan against a service
// directory and reports the tool's exit code. A non-zero exit code is a
// finding, not a Go error; errors are reserved for the runner itself
// failing (image missing, daemon unreachable).
type ScanRunner interface {
	RunScan(ctx context.Context, spec domain.ScanSpec, dir string) (int, error)
}
