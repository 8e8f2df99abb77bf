// Package selector decides which services a pipeline run processes.
//
// Selection is a pure function: the version-control diff that feeds auto
// mode is retrieved by a collaborator, never here.
package selector

import (
	"fmt"
	"strings"

	"github.com/melih/slipway/internal/core/domain"
)

// UnknownServiceError reports an explicit mode naming a service that is
// not in the catalog. It is surfaced before any build, scan or push side
// effect happens.
type UnknownServiceError struct {
	Service string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q: not in catalog", e.Service)
}

// Select resolves mode against the catalog into the ordered list of
// services to process. changed is consulted only in auto mode and may be
// nil otherwise.
//
// Auto mode derives one candidate per changed path: the segment directly
// under the catalog's source root. Paths outside the root, or directly
// under it without a deeper component, yield no candidate. Candidates not
// in the catalog are dropped silently. The result keeps catalog order,
// not diff order, so repeated runs over the same diff are deterministic.
// An empty auto result means "no work to do" and is not an error.
func Select(mode domain.Mode, catalog domain.Catalog, changed []string) ([]string, error) {
	switch mode.Kind {
	case domain.ModeAll:
		out := make([]string, len(catalog.Services))
		copy(out, catalog.Services)
		return out, nil

	case domain.ModeNone:
		return nil, nil

	case domain.ModeExplicit:
		if !catalog.Has(mode.Service) {
			return nil, &UnknownServiceError{Service: mode.Service}
		}
		return []string{mode.Service}, nil

	case domain.ModeAuto:
		candidates := make(map[string]struct{}, len(changed))
		for _, p := range changed {
			if seg, ok := serviceSegment(catalog.SourceRoot, p); ok {
				candidates[seg] = struct{}{}
			}
		}
		var out []string
		for _, s := range catalog.Services {
			if _, ok := candidates[s]; ok {
				out = append(out, s)
			}
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported selection mode %v", mode.Kind)
	}
}

// serviceSegment extracts the candidate service name from a changed path
// of the form <root>/<service>/<rest>. Anything shallower is not a
// service change.
func serviceSegment(root, path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, root+"/")
	if !ok {
		return "", false
	}
	seg, deeper, ok := strings.Cut(rest, "/")
	if !ok || seg == "" || deeper == "" {
		return "", false
	}
	return seg, true
}
