package bough

import (
	"fmt"
	"strings"
)

// RemoveFailure records why one branch of a batch could not be removed.
type RemoveFailure struct {
	Branch string
	Reason string
}

// RemoveReport aggregates a batch removal: completed items stay reported
// as successes even when other items failed.
type RemoveReport struct {
	Succeeded []string
	Failed    []RemoveFailure
}

// Partial reports whether some, but not all, items failed.
func (r RemoveReport) Partial() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) > 0
}

// RemovalCandidates lists branches eligible for removal: every local
// branch except the one checked out in currentDir. The current branch is
// excluded before the user ever sees it as an option.
func (e *Engine) RemovalCandidates(repo RepoContext, currentDir string) ([]string, error) {
	branches, err := e.LocalBranches(repo.Root)
	if err != nil {
		return nil, err
	}
	current := e.CurrentBranch(absPath(currentDir))
	var candidates []string
	for _, branch := range branches {
		if branch == current {
			continue
		}
		candidates = append(candidates, branch)
	}
	return candidates, nil
}

// RemoveBranches retires each selected branch independently: forced
// worktree removal first (discarding whatever uncommitted state the
// directory holds), then the local branch ref, then — only when asked —
// the remote branch, where a missing remote ref is non-fatal cleanup
// noise. One locked or in-use item never blocks the rest of the batch;
// all failures are collected with their reasons.
func (e *Engine) RemoveBranches(repo RepoContext, branches []string, deleteRemote bool) (RemoveReport, error) {
	if err := repo.Revalidate(e.git); err != nil {
		return RemoveReport{}, err
	}

	report := RemoveReport{}
	for _, branch := range branches {
		if err := e.removeOne(repo, branch, deleteRemote); err != nil {
			report.Failed = append(report.Failed, RemoveFailure{Branch: branch, Reason: err.Error()})
			continue
		}
		report.Succeeded = append(report.Succeeded, branch)
	}
	if len(report.Succeeded) > 0 {
		e.events.StateChanged()
	}
	return report, nil
}

func (e *Engine) removeOne(repo RepoContext, branch string, deleteRemote bool) error {
	wt, ok, err := e.WorktreeFor(repo.Root, branch)
	if err != nil {
		return err
	}
	if ok {
		if _, err := e.git.Run(repo.Root, "worktree", "remove", "--force", wt.Path); err != nil {
			return err
		}
	}
	if _, err := e.git.Run(repo.Root, "branch", "-D", branch); err != nil {
		return err
	}
	if deleteRemote {
		if _, err := e.git.Run(repo.Root, "push", e.remote(), "--delete", branch); err != nil {
			if !isMissingRemoteRef(err) {
				return err
			}
			debugLogf("remove branch=%q: remote branch absent, skipping remote delete", branch)
		}
	}
	return nil
}

// isMissingRemoteRef matches git's "remote ref does not exist" push
// failure. Deleting a remote branch that is already gone is best-effort
// cleanup, not an error.
func isMissingRemoteRef(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "remote ref does not exist") ||
		strings.Contains(msg, "unable to delete") && strings.Contains(msg, "not found")
}

// ConfirmRemoval spells out the destructive part before anything runs:
// forced worktree removal discards uncommitted work in those directories.
func (e *Engine) ConfirmRemoval(repo RepoContext, branches []string, deleteRemote bool) (bool, error) {
	withWorktrees := 0
	for _, branch := range branches {
		if _, ok, err := e.WorktreeFor(repo.Root, branch); err == nil && ok {
			withWorktrees++
		}
	}
	title := fmt.Sprintf("Delete %d branch(es)?", len(branches))
	if withWorktrees > 0 {
		title = fmt.Sprintf("Delete %d branch(es)? %d worktree director(ies) will be force-removed, discarding any uncommitted changes.", len(branches), withWorktrees)
	}
	if deleteRemote {
		title += " Remote branches will be deleted too."
	}
	return e.prompt.Confirm(title, "Delete", "Cancel")
}
