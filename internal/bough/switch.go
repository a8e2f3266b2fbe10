package bough

import (
	"fmt"
)

// switchChoice is one selectable entry: a worktree (Dir set) or a local
// branch without a dedicated directory.
type switchChoice struct {
	Branch string
	Dir    string
}

// SwitchBranch presents the union of worktrees and bare local branches
// and routes the selection: a worktree elsewhere is opened as a new
// workspace (it is already checked out there), a bare branch is checked
// out in place. Checking out over uncommitted work is a blocking
// precondition with exactly two resolutions: stash and proceed, or abort.
func (e *Engine) SwitchBranch(repo RepoContext, currentDir string) error {
	if err := repo.Revalidate(e.git); err != nil {
		return err
	}

	choices, err := e.switchChoices(repo)
	if err != nil {
		return err
	}
	if len(choices) == 0 {
		return &PreconditionError{Op: "switch branch", Reason: "no branches available"}
	}

	labels := make([]string, len(choices))
	for i, choice := range choices {
		if choice.Dir != "" {
			labels[i] = fmt.Sprintf("%s — %s", choice.Branch, choice.Dir)
		} else {
			labels[i] = choice.Branch
		}
	}
	idx, err := e.prompt.Select("Switch to branch", labels)
	if err != nil {
		return err
	}
	choice := choices[idx]

	currentDir = absPath(currentDir)
	current := e.CurrentBranch(currentDir)

	// Already there: success without touching git again.
	if choice.Branch == current && (choice.Dir == "" || choice.Dir == currentDir) {
		return nil
	}

	if choice.Dir != "" && choice.Dir != currentDir {
		// The branch lives in its own directory; no checkout involved.
		return e.host.OpenDirectory(choice.Dir)
	}

	return e.checkoutInPlace(currentDir, choice.Branch)
}

// switchChoices builds the selection set: every worktree, the primary
// directory included, plus every local branch with no worktree anywhere.
func (e *Engine) switchChoices(repo RepoContext) ([]switchChoice, error) {
	worktrees, err := e.Worktrees(repo.Root)
	if err != nil {
		return nil, err
	}
	branches, err := e.LocalBranches(repo.Root)
	if err != nil {
		return nil, err
	}

	checkedOut := map[string]string{}
	var choices []switchChoice
	for _, wt := range worktrees {
		if wt.Branch == "" {
			continue
		}
		checkedOut[wt.Branch] = wt.Path
		choices = append(choices, switchChoice{Branch: wt.Branch, Dir: wt.Path})
	}
	for _, branch := range branches {
		if _, ok := checkedOut[branch]; ok {
			continue
		}
		choices = append(choices, switchChoice{Branch: branch})
	}
	return choices, nil
}

// checkoutInPlace switches dir to branch, guarding uncommitted work.
func (e *Engine) checkoutInPlace(dir, branch string) error {
	dirty, err := e.Dirty(dir)
	if err != nil {
		return err
	}
	if dirty {
		idx, err := e.prompt.Select(
			fmt.Sprintf("Uncommitted changes in %s", dir),
			[]string{"Stash changes and switch", "Cancel"},
		)
		if err != nil {
			return err
		}
		if idx != 0 {
			return ErrCancelled
		}
		message := fmt.Sprintf("bough: switch to %s", branch)
		if _, err := e.git.Run(dir, "stash", "push", "-m", message); err != nil {
			return err
		}
	}

	if _, err := e.git.Run(dir, "checkout", branch); err != nil {
		return err
	}
	e.events.StateChanged()
	return nil
}
