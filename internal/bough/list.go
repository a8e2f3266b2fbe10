package bough

import (
	"fmt"
	"os/exec"

	"github.com/mattn/go-runewidth"
)

// ListRow is one line of the worktree listing: a read-only projection of
// state the reader queries expose.
type ListRow struct {
	Branch  string `json:"branch"`
	Path    string `json:"path"`
	Primary bool   `json:"primary"`
	Current bool   `json:"current"`
	Dirty   bool   `json:"dirty"`
	Ahead   int    `json:"ahead"`
	Behind  int    `json:"behind"`
}

// listRows assembles the listing for every worktree of the repository.
// Ahead/behind counts are relative to each branch's upstream and default
// to zero when no upstream exists.
func (e *Engine) listRows(repo RepoContext, currentDir string) ([]ListRow, error) {
	worktrees, err := e.Worktrees(repo.Root)
	if err != nil {
		return nil, err
	}
	currentDir = absPath(currentDir)

	rows := make([]ListRow, 0, len(worktrees))
	for _, wt := range worktrees {
		row := ListRow{
			Branch:  wt.Branch,
			Path:    wt.Path,
			Primary: wt.Primary,
			Current: wt.Path == currentDir,
		}
		if dirty, err := e.Dirty(wt.Path); err == nil {
			row.Dirty = dirty
		}
		if wt.Branch != "" && e.UpstreamExists(wt.Path, wt.Branch) {
			upstream := e.remote() + "/" + wt.Branch
			if ahead, behind, err := e.AheadBehind(wt.Path, upstream); err == nil {
				row.Ahead = ahead
				row.Behind = behind
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// truncateCell trims a table cell to the given display width.
func truncateCell(value string, width int) string {
	if runewidth.StringWidth(value) <= width {
		return value
	}
	return runewidth.Truncate(value, width, "…")
}

// DoctorReport summarizes an environment sanity check.
type DoctorReport struct {
	Lines    []string
	ExitCode int
}

// Doctor checks the tools and repository wiring bough depends on.
func (e *Engine) Doctor() DoctorReport {
	report := DoctorReport{Lines: []string{}}

	if _, err := exec.LookPath("git"); err == nil {
		report.Lines = append(report.Lines, "ok   git")
	} else {
		report.Lines = append(report.Lines, "miss git")
		report.ExitCode = 1
	}

	repo, _, err := requireRepoHere(e)
	if err != nil {
		report.Lines = append(report.Lines, "warn not inside a git repository; skipped worktree checks")
		return report
	}

	worktrees, err := e.Worktrees(repo.Root)
	if err != nil {
		report.Lines = append(report.Lines, fmt.Sprintf("warn unable to list worktrees: %v", err))
		return report
	}
	bad := false
	for _, wt := range worktrees {
		if wt.Branch != "" && !e.BranchExists(repo.Root, wt.Branch) {
			report.Lines = append(report.Lines, fmt.Sprintf("warn branch missing for worktree %s: %s", wt.Path, wt.Branch))
			bad = true
		}
		if state, conflicts, err := e.SyncStateFor(wt.Path); err == nil && state == SyncConflicted {
			report.Lines = append(report.Lines, fmt.Sprintf("warn unresolved merge in %s (%d conflicted files)", wt.Path, len(conflicts)))
		}
	}
	if !bad {
		report.Lines = append(report.Lines, "ok   worktree metadata")
	}
	if _, err := e.DefaultIntegrationBranch(repo.Root); err != nil {
		report.Lines = append(report.Lines, fmt.Sprintf("warn %v", err))
	} else {
		report.Lines = append(report.Lines, "ok   default integration branch")
	}
	return report
}
