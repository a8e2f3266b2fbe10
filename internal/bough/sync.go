package bough

import (
	"errors"
	"fmt"
	"strings"
)

// SyncState describes where a directory stands in the merge protocol. It
// is derived on demand from the directory's on-disk condition (MERGE_HEAD
// plus unresolved conflict files) and never persisted: the gap between a
// conflicted merge and its resolution can span new windows, editing time,
// or a process restart, and only on-disk state survives that.
type SyncState int

const (
	// SyncIdle: no merge in progress.
	SyncIdle SyncState = iota
	// SyncMerging: transient, observed only mid-call right after a clean
	// merge before the result is reported.
	SyncMerging
	// SyncConflicted: merge in progress with unresolved conflict files.
	SyncConflicted
	// SyncReadyToFinalize: merge in progress, every conflict resolved.
	SyncReadyToFinalize
)

func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncMerging:
		return "merging"
	case SyncConflicted:
		return "conflicted"
	case SyncReadyToFinalize:
		return "ready-to-finalize"
	default:
		return fmt.Sprintf("SyncState(%d)", int(s))
	}
}

// SyncResult reports the outcome of a Sync or Resync call. Dir is the
// directory the merge ran in; the caller passes it back into Resync to
// finalize a conflicted merge, rather than the engine inferring the
// target from ambient working-directory state.
type SyncResult struct {
	State         SyncState
	Branch        string
	Dir           string
	ConflictFiles []string
	// Aborted distinguishes "idle because the merge was abandoned" from
	// "idle because the merge completed".
	Aborted bool
}

// SyncStateFor derives the current state of dir from git alone.
func (e *Engine) SyncStateFor(dir string) (SyncState, []string, error) {
	merging, err := e.MergeInProgress(dir)
	if err != nil {
		return SyncIdle, nil, err
	}
	if !merging {
		return SyncIdle, nil, nil
	}
	conflicts, err := e.ConflictFiles(dir)
	if err != nil {
		return SyncConflicted, nil, err
	}
	if len(conflicts) > 0 {
		return SyncConflicted, conflicts, nil
	}
	return SyncReadyToFinalize, nil, nil
}

// Sync brings branch up to date with the default integration branch:
// fetch, resolve the integration branch, resolve the directory the merge
// must run in, merge with the default message. A clean merge is committed
// by git itself and the state returns to idle. A conflicting merge leaves
// the directory conflicted on disk and offers exactly two ways out: open
// the directory for manual resolution (the merge stays in progress;
// Resync finishes it later) or abort the merge entirely. A dismissed
// prompt leaves the directory conflicted — that is deliberate, the user
// resumes later.
func (e *Engine) Sync(repo RepoContext, branch string) (SyncResult, error) {
	if err := ValidateBranchName(branch); err != nil {
		return SyncResult{}, err
	}
	if err := repo.Revalidate(e.git); err != nil {
		return SyncResult{}, err
	}

	if _, err := e.git.Run(repo.Root, "fetch", e.remote()); err != nil {
		return SyncResult{}, err
	}
	integration, err := e.DefaultIntegrationBranch(repo.Root)
	if err != nil {
		return SyncResult{}, err
	}
	mergeRef := integration
	if e.remoteRefExists(repo.Root, e.remote(), integration) {
		mergeRef = e.remote() + "/" + integration
	}

	dir, err := e.resolveSyncDir(repo, branch)
	if err != nil {
		return SyncResult{}, err
	}
	result := SyncResult{Branch: branch, Dir: dir}

	_, mergeErr := e.git.Run(dir, "merge", "--no-edit", mergeRef)
	if mergeErr == nil {
		// Merge committed by git; state resolves straight back to idle.
		result.State = SyncIdle
		e.events.StateChanged()
		return result, nil
	}

	conflicts, err := e.ConflictFiles(dir)
	if err != nil {
		return result, err
	}
	if len(conflicts) == 0 {
		// Merge failed for a reason other than conflicts; git's own
		// diagnostics go to the caller untouched.
		return result, mergeErr
	}

	result.State = SyncConflicted
	result.ConflictFiles = conflicts

	idx, err := e.prompt.Select(
		fmt.Sprintf("Merge of %s into %s has %d conflicted file(s)", mergeRef, branch, len(conflicts)),
		[]string{fmt.Sprintf("Open %s to resolve", dir), "Abort merge"},
	)
	if errors.Is(err, ErrCancelled) {
		// Dismissed: the directory stays conflicted until resync.
		return result, nil
	}
	if err != nil {
		return result, err
	}
	switch idx {
	case 0:
		if err := e.host.OpenDirectory(dir); err != nil {
			return result, err
		}
		return result, nil
	default:
		if _, err := e.git.Run(dir, "merge", "--abort"); err != nil {
			return result, err
		}
		result.State = SyncIdle
		result.ConflictFiles = nil
		result.Aborted = true
		e.events.StateChanged()
		return result, nil
	}
}

// resolveSyncDir picks the directory the merge must run in: the branch's
// dedicated worktree when it has one, otherwise the primary directory. A
// worktree checked out to a different branch than expected is a hard
// mismatch — a worktree's branch is never changed out from under it. The
// primary directory is simply switched to the requested branch first.
func (e *Engine) resolveSyncDir(repo RepoContext, branch string) (string, error) {
	wt, ok, err := e.WorktreeFor(repo.Root, branch)
	if err != nil {
		return "", err
	}
	if ok {
		if current := e.CurrentBranch(wt.Path); current != branch {
			return "", fmt.Errorf("worktree %s is on branch %q, expected %q", wt.Path, current, branch)
		}
		return wt.Path, nil
	}
	if current := e.CurrentBranch(repo.Root); current != branch {
		if _, err := e.git.Run(repo.Root, "checkout", branch); err != nil {
			return "", err
		}
	}
	return repo.Root, nil
}

// Resync finalizes a previously conflicted merge in dir. The caller
// supplies the directory Sync reported; nothing is inferred from ambient
// state. No merge in progress is a no-op. Remaining conflicts are a hard
// precondition: the merge is never partially committed, and every
// unresolved file is reported by name.
func (e *Engine) Resync(dir string) (SyncResult, error) {
	dir = absPath(dir)
	result := SyncResult{Dir: dir}

	state, conflicts, err := e.SyncStateFor(dir)
	if err != nil {
		return result, err
	}
	result.State = state
	result.ConflictFiles = conflicts

	switch state {
	case SyncIdle:
		// Nothing to finalize; zero mutating calls.
		return result, nil
	case SyncConflicted:
		return result, &PreconditionError{
			Op:     "resync",
			Reason: fmt.Sprintf("unresolved conflicts remain in: %s", strings.Join(conflicts, ", ")),
		}
	}

	if _, err := e.git.Run(dir, "add", "-A"); err != nil {
		return result, err
	}
	if _, err := e.git.Run(dir, "commit", "--no-edit"); err != nil {
		return result, err
	}
	result.State = SyncIdle
	result.Branch = e.CurrentBranch(dir)
	e.events.StateChanged()
	return result, nil
}
