package bough

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// RepoContext carries a validated repository root. Validity is checked on
// use, not on store: the root can be deleted or moved between calls, so
// every workflow revalidates before its first mutating step.
type RepoContext struct {
	Root string
}

// RequireRepo resolves dir to its git top level and returns the context.
func RequireRepo(git Runner, dir string) (RepoContext, error) {
	out, err := git.Run(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoContext{}, ErrNotGitRepo
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return RepoContext{}, ErrNotGitRepo
	}
	return RepoContext{Root: absPath(root)}, nil
}

// Revalidate confirms the cached root still resolves to the same top
// level. Workflows call this before mutating; a stale root is dropped as
// an error rather than trusted.
func (rc RepoContext) Revalidate(git Runner) error {
	fresh, err := RequireRepo(git, rc.Root)
	if err != nil {
		return fmt.Errorf("repository root %s is no longer valid: %w", rc.Root, err)
	}
	if fresh.Root != rc.Root {
		return fmt.Errorf("repository root moved: expected %s, resolved %s", rc.Root, fresh.Root)
	}
	return nil
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return filepath.Clean(abs)
}

// Worktree pairs a working directory with its checked-out branch. Primary
// marks the repository's main directory, which is listed like any other
// worktree but can never be removed.
type Worktree struct {
	Path    string `json:"path"`
	Branch  string `json:"branch"`
	Primary bool   `json:"primary"`
}

// StatusFile is one entry of the working-tree status.
type StatusFile struct {
	Path  string
	Code  string // two-character porcelain code, e.g. " M", "A ", "??"
	Kind  string // modified, added, deleted, renamed, copied, untracked
	Dirty bool
}

// CurrentBranch resolves the branch checked out in dir. Detached HEAD
// resolves to the empty string.
func (e *Engine) CurrentBranch(dir string) string {
	out, err := e.git.Run(dir, "symbolic-ref", "--quiet", "--short", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// LocalBranches lists the repository's local branch names.
func (e *Engine) LocalBranches(root string) ([]string, error) {
	out, err := e.git.Run(root, "branch", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RemoteBranches lists remote-tracking branch names (remote prefix kept),
// skipping the symbolic HEAD entry.
func (e *Engine) RemoteBranches(root string) ([]string, error) {
	out, err := e.git.Run(root, "branch", "-r", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, ref := range splitLines(out) {
		if strings.Contains(ref, "HEAD") {
			continue
		}
		branches = append(branches, ref)
	}
	return branches, nil
}

// BranchExists reports whether a local branch exists.
func (e *Engine) BranchExists(root, branch string) bool {
	_, err := e.git.Run(root, "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// remoteRefExists reports whether the remote-tracking ref for branch is
// known locally.
func (e *Engine) remoteRefExists(root, remote, branch string) bool {
	_, err := e.git.Run(root, "show-ref", "--verify", "--quiet", "refs/remotes/"+remote+"/"+branch)
	return err == nil
}

// UpstreamExists reports whether branch has a known upstream tracking ref.
func (e *Engine) UpstreamExists(dir, branch string) bool {
	return e.remoteRefExists(dir, e.remote(), branch)
}

// Worktrees lists every working directory of the repository, the primary
// directory first, parsed from the porcelain worktree listing.
func (e *Engine) Worktrees(root string) ([]Worktree, error) {
	out, err := e.git.Run(root, "worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	items := parseWorktreeList(out)
	for i := range items {
		items[i].Path = absPath(items[i].Path)
		items[i].Primary = i == 0
	}
	return items, nil
}

// parseWorktreeList decodes `git worktree list --porcelain` output.
func parseWorktreeList(out string) []Worktree {
	var items []Worktree
	var cur Worktree

	flush := func() {
		if cur.Path != "" {
			items = append(items, cur)
		}
		cur = Worktree{}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		switch {
		case strings.HasPrefix(line, "worktree "):
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "branch refs/heads/"):
			cur.Branch = strings.TrimPrefix(line, "branch refs/heads/")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(line, "branch ")
		}
	}
	flush()
	return items
}

// WorktreeFor returns the worktree checked out to branch, if any. The
// primary directory counts: a branch checked out there has no dedicated
// directory of its own.
func (e *Engine) WorktreeFor(root, branch string) (Worktree, bool, error) {
	items, err := e.Worktrees(root)
	if err != nil {
		return Worktree{}, false, err
	}
	for _, item := range items {
		if !item.Primary && item.Branch == branch {
			return item, true, nil
		}
	}
	return Worktree{}, false, nil
}

// DefaultIntegrationBranch resolves the remote's default branch: the
// symbolic HEAD of the remote when known, otherwise the first conventional
// candidate that exists (main, then master). Resolved fresh on every call,
// never cached.
func (e *Engine) DefaultIntegrationBranch(root string) (string, error) {
	remote := e.remote()
	out, err := e.git.Run(root, "symbolic-ref", "--short", "refs/remotes/"+remote+"/HEAD")
	if err == nil {
		ref := strings.TrimSpace(out)
		if name := strings.TrimPrefix(ref, remote+"/"); name != "" && name != ref {
			return name, nil
		}
		if ref != "" {
			return ref, nil
		}
	}
	for _, candidate := range []string{"main", "master"} {
		if e.remoteRefExists(root, remote, candidate) || e.BranchExists(root, candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unable to resolve the default integration branch for remote %q", remote)
}

// StatusFiles lists the per-file working-tree status of dir.
func (e *Engine) StatusFiles(dir string) ([]StatusFile, error) {
	out, err := e.git.Run(dir, "status", "--porcelain", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	var files []StatusFile
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])
		if idx := strings.LastIndex(path, " -> "); idx >= 0 {
			path = strings.TrimSpace(path[idx+4:])
		}
		if path == "" {
			continue
		}
		files = append(files, StatusFile{
			Path:  path,
			Code:  code,
			Kind:  statusKind(code),
			Dirty: true,
		})
	}
	return files, nil
}

func statusKind(code string) string {
	if code == "??" {
		return "untracked"
	}
	state := code[0]
	if state == ' ' {
		state = code[1]
	}
	switch state {
	case 'M':
		return "modified"
	case 'A':
		return "added"
	case 'D':
		return "deleted"
	case 'R':
		return "renamed"
	case 'C':
		return "copied"
	default:
		return "modified"
	}
}

// Dirty reports whether dir has uncommitted modifications, untracked
// files included.
func (e *Engine) Dirty(dir string) (bool, error) {
	files, err := e.StatusFiles(dir)
	if err != nil {
		return false, err
	}
	return len(files) > 0, nil
}

// AheadBehind counts commits dir's HEAD has over upstream and vice versa.
func (e *Engine) AheadBehind(dir, upstream string) (ahead, behind int, err error) {
	out, err := e.git.Run(dir, "rev-list", "--left-right", "--count", upstream+"...HEAD")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	behind, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parse behind count %q: %w", fields[0], err)
	}
	ahead, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse ahead count %q: %w", fields[1], err)
	}
	return ahead, behind, nil
}

// ConflictFiles lists files with unresolved conflict markers in dir.
func (e *Engine) ConflictFiles(dir string) ([]string, error) {
	out, err := e.git.Run(dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// MergeInProgress reports whether a merge has been started but not
// concluded in dir. Exit code 1 from the probe means no MERGE_HEAD, which
// is an answer, not an error.
func (e *Engine) MergeInProgress(dir string) (bool, error) {
	_, err := e.git.Run(dir, "rev-parse", "-q", "--verify", "MERGE_HEAD")
	if err == nil {
		return true, nil
	}
	if isExitCode(err, 1) {
		return false, nil
	}
	return false, err
}

// UnpushedCommits lists one-line summaries of commits not yet on upstream.
func (e *Engine) UnpushedCommits(dir, upstream string) ([]string, error) {
	out, err := e.git.Run(dir, "log", "--oneline", upstream+"..HEAD")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
