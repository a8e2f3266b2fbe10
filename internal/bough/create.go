package bough

import (
	"fmt"
	"strings"
)

// CreateMode selects how the base of a new branch is chosen.
type CreateMode int

const (
	// CreateFromDefault bases the new branch on the remote's default
	// integration branch.
	CreateFromDefault CreateMode = iota
	// CreateFromLocal bases the new branch on an existing local branch.
	CreateFromLocal
	// CreateCloneRemote materializes a remote branch as a local branch of
	// the same (prefix-stripped) name.
	CreateCloneRemote
)

// CreateResult describes the materialized branch.
type CreateResult struct {
	Branch string
	Path   string
}

// CreateBranch runs one of the three interactive creation modes. All of
// them converge on a single mutating step in CreateBranchNamed.
func (e *Engine) CreateBranch(repo RepoContext, mode CreateMode) (CreateResult, error) {
	if err := repo.Revalidate(e.git); err != nil {
		return CreateResult{}, err
	}

	var base, name string
	var err error
	switch mode {
	case CreateFromDefault:
		base, name, err = e.createInputsFromDefault(repo)
	case CreateFromLocal:
		base, name, err = e.createInputsFromLocal(repo)
	case CreateCloneRemote:
		base, name, err = e.createInputsCloneRemote(repo)
	default:
		return CreateResult{}, fmt.Errorf("unknown create mode %d", mode)
	}
	if err != nil {
		return CreateResult{}, err
	}

	result, err := e.CreateBranchNamed(repo, name, base)
	if err != nil {
		return CreateResult{}, err
	}
	if e.host != nil {
		if err := e.host.OpenDirectory(result.Path); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (e *Engine) createInputsFromDefault(repo RepoContext) (base, name string, err error) {
	if _, err := e.git.Run(repo.Root, "fetch", e.remote()); err != nil {
		return "", "", err
	}
	def, err := e.DefaultIntegrationBranch(repo.Root)
	if err != nil {
		return "", "", err
	}
	base = def
	if e.remoteRefExists(repo.Root, e.remote(), def) {
		base = e.remote() + "/" + def
	}
	name, err = e.prompt.Input(fmt.Sprintf("New branch from %s", base), "")
	if err != nil {
		return "", "", err
	}
	return base, name, nil
}

func (e *Engine) createInputsFromLocal(repo RepoContext) (base, name string, err error) {
	branches, err := e.LocalBranches(repo.Root)
	if err != nil {
		return "", "", err
	}
	if len(branches) == 0 {
		return "", "", &PreconditionError{Op: "create branch", Reason: "no local branches to base on"}
	}
	idx, err := e.prompt.Select("Base branch", branches)
	if err != nil {
		return "", "", err
	}
	base = branches[idx]
	name, err = e.prompt.Input(fmt.Sprintf("New branch from %s", base), "")
	if err != nil {
		return "", "", err
	}
	return base, name, nil
}

func (e *Engine) createInputsCloneRemote(repo RepoContext) (base, name string, err error) {
	if _, err := e.git.Run(repo.Root, "fetch", e.remote()); err != nil {
		return "", "", err
	}
	branches, err := e.RemoteBranches(repo.Root)
	if err != nil {
		return "", "", err
	}
	if len(branches) == 0 {
		return "", "", &PreconditionError{Op: "clone remote branch", Reason: "no remote branches found"}
	}
	idx, err := e.prompt.Select("Remote branch", branches)
	if err != nil {
		return "", "", err
	}
	base = branches[idx]
	name, err = e.prompt.Input("Local branch name", stripRemotePrefix(base))
	if err != nil {
		return "", "", err
	}
	return base, name, nil
}

// stripRemotePrefix drops the leading remote segment of a remote-tracking
// branch name: origin/feature/x becomes feature/x.
func stripRemotePrefix(ref string) string {
	if idx := strings.Index(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

// CreateBranchNamed atomically creates branch name at base and checks it
// out into a fresh worktree directory in one git operation. The branch is
// never created without its worktree: a half-created branch would be the
// less convenient in-place-checkout case for the switch workflow. The
// name is validated before git is invoked at all; everything git rejects
// (name collision, path in use, bad base) is surfaced verbatim, no retry.
func (e *Engine) CreateBranchNamed(repo RepoContext, name, base string) (CreateResult, error) {
	if err := ValidateBranchName(name); err != nil {
		return CreateResult{}, err
	}
	if strings.TrimSpace(base) == "" {
		return CreateResult{}, fmt.Errorf("base ref is required")
	}
	path, err := WorktreePathFor(repo.Root, name)
	if err != nil {
		return CreateResult{}, err
	}
	if _, err := e.git.Run(repo.Root, "worktree", "add", "-b", name, path, base); err != nil {
		return CreateResult{}, err
	}
	e.events.StateChanged()
	return CreateResult{Branch: name, Path: path}, nil
}
