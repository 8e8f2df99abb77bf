package ports

import "context"

// DiffProvider supplies the changed file paths feeding auto-mode
// selection. Implementations return paths relative to the repository
// root, limited to the configured source root.
//
// An unresolvable base reference is not an error: the provider returns
// an empty set and the run ends as a no-op.
type DiffProvider interface {
	ChangedPaths(ctx context.Context, baseRef string) ([]string, error)
}
