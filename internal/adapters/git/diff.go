// Package git provides the version-control diff collaborator backed by
// go-git. It is the only place the pipeline touches a repository.
package git

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	log "github.com/sirupsen/logrus"
)

// DiffProvider lists the files changed between a base reference and HEAD,
// limited to the configured source root.
type DiffProvider struct {
	repoPath   string
	sourceRoot string
}

// NewDiffProvider creates a provider over the repository at repoPath.
func NewDiffProvider(repoPath, sourceRoot string) *DiffProvider {
	return &DiffProvider{repoPath: repoPath, sourceRoot: sourceRoot}
}

// ChangedPaths returns the repository-relative paths under the source
// root that differ between baseRef and HEAD. An unresolvable base
// reference yields an empty set, never an error: a run with no resolvable
// base simply has no work to do.
func (p *DiffProvider) ChangedPaths(ctx context.Context, baseRef string) ([]string, error) {
	repo, err := gogit.PlainOpen(p.repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", p.repoPath, err)
	}

	baseHash, err := repo.ResolveRevision(plumbing.Revision(baseRef))
	if err != nil {
		log.WithFields(log.Fields{"base": baseRef, "repo": p.repoPath}).
			Warn("base reference not resolvable, treating diff as empty")
		return nil, nil
	}

	headRef, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	baseTree, err := treeAt(repo, *baseHash)
	if err != nil {
		return nil, err
	}
	headTree, err := treeAt(repo, headRef.Hash())
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeContext(ctx, baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("diff %s..HEAD: %w", baseRef, err)
	}

	prefix := p.sourceRoot + "/"
	seen := make(map[string]struct{})
	for _, change := range changes {
		// A rename touches both sides; collect each.
		for _, name := range []string{change.From.Name, change.To.Name} {
			if name == "" || !strings.HasPrefix(name, prefix) {
				continue
			}
			seen[name] = struct{}{}
		}
	}

	paths := make([]string, 0, len(seen))
	for name := range seen {
		paths = append(paths, name)
	}
	sort.Strings(paths)
	return paths, nil
}

func treeAt(repo *gogit.Repository, hash plumbing.Hash) (*object.Tree, error) {
	commit, err := repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("load tree of %s: %w", hash, err)
	}
	return tree, nil
}
