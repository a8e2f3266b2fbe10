package bough

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"bough/internal/testrepos"
)

// syncHandler scripts a repository whose feature/login branch lives in a
// dedicated worktree and whose origin symbolic HEAD points at main.
func syncHandler(mergeErr error, conflicts string) func(dir string, args []string) (string, error) {
	listing := strings.Join([]string{
		"worktree /repo",
		"HEAD 1111111111111111111111111111111111111111",
		"branch refs/heads/main",
		"",
		"worktree /repo-worktrees/feature-login",
		"HEAD 2222222222222222222222222222222222222222",
		"branch refs/heads/feature/login",
		"",
	}, "\n")
	return func(dir string, args []string) (string, error) {
		switch strings.Join(args, " ") {
		case "rev-parse --show-toplevel":
			return "/repo", nil
		case "fetch origin":
			return "", nil
		case "symbolic-ref --short refs/remotes/origin/HEAD":
			return "origin/main", nil
		case "show-ref --verify --quiet refs/remotes/origin/main":
			return "", nil
		case "worktree list --porcelain":
			return listing, nil
		case "symbolic-ref --quiet --short HEAD":
			if dir == "/repo-worktrees/feature-login" {
				return "feature/login", nil
			}
			return "main", nil
		case "merge --no-edit origin/main":
			return "", mergeErr
		case "diff --name-only --diff-filter=U":
			return conflicts, nil
		default:
			return "", nil
		}
	}
}

func TestSyncCleanMerge(t *testing.T) {
	git := &fakeGit{handler: syncHandler(nil, "")}
	prompt := &fakePrompter{selectErr: errors.New("prompt must not be shown")}
	e := newFakeEngine(git, prompt, &fakeHost{})
	notified := countNotifications(e)

	res, err := e.Sync(RepoContext{Root: "/repo"}, "feature/login")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.State != SyncIdle || res.Aborted {
		t.Fatalf("expected clean idle result, got %+v", res)
	}
	if res.Dir != "/repo-worktrees/feature-login" {
		t.Fatalf("merge ran in wrong directory: %q", res.Dir)
	}
	if len(prompt.selectTitles) != 0 {
		t.Fatalf("clean merge must not prompt: %v", prompt.selectTitles)
	}
	if *notified != 1 {
		t.Fatalf("expected one notification, got %d", *notified)
	}
}

func TestSyncConflictAbort(t *testing.T) {
	mergeErr := &GitError{Args: []string{"merge"}, Stderr: "CONFLICT (content): Merge conflict in app.go", ExitCode: 1}
	git := &fakeGit{handler: syncHandler(mergeErr, "app.go\nlib/util.go\n")}
	prompt := &fakePrompter{selections: []int{1}} // Abort merge
	e := newFakeEngine(git, prompt, &fakeHost{})
	notified := countNotifications(e)

	res, err := e.Sync(RepoContext{Root: "/repo"}, "feature/login")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.State != SyncIdle {
		t.Fatalf("expected idle after abort, got %v", res.State)
	}
	if !res.Aborted {
		t.Fatalf("an abandoned merge must be reported as aborted: %+v", res)
	}
	if len(res.ConflictFiles) != 0 {
		t.Fatalf("aborted merge must not report conflicts: %v", res.ConflictFiles)
	}
	if !git.ran("merge --abort") {
		t.Fatalf("expected merge --abort, got %v", git.commands())
	}
	if *notified != 1 {
		t.Fatalf("expected one notification, got %d", *notified)
	}
}

func TestSyncConflictDismissedStaysConflicted(t *testing.T) {
	mergeErr := &GitError{Args: []string{"merge"}, Stderr: "CONFLICT", ExitCode: 1}
	git := &fakeGit{handler: syncHandler(mergeErr, "app.go\n")}
	prompt := &fakePrompter{selectErr: ErrCancelled}
	e := newFakeEngine(git, prompt, &fakeHost{})
	notified := countNotifications(e)

	res, err := e.Sync(RepoContext{Root: "/repo"}, "feature/login")
	if err != nil {
		t.Fatalf("dismissed prompt is not an error, got %v", err)
	}
	if res.State != SyncConflicted {
		t.Fatalf("expected conflicted, got %v", res.State)
	}
	if len(res.ConflictFiles) != 1 || res.ConflictFiles[0] != "app.go" {
		t.Fatalf("unexpected conflict files: %v", res.ConflictFiles)
	}
	if git.ran("merge --abort") {
		t.Fatalf("dismissal must not abort: %v", git.commands())
	}
	if *notified != 0 {
		t.Fatalf("conflicted state must not notify, got %d", *notified)
	}
}

func TestSyncPrompterFailurePropagates(t *testing.T) {
	mergeErr := &GitError{Args: []string{"merge"}, Stderr: "CONFLICT", ExitCode: 1}
	git := &fakeGit{handler: syncHandler(mergeErr, "app.go\n")}
	brokenTerm := errors.New("terminal unavailable")
	prompt := &fakePrompter{selectErr: brokenTerm}
	e := newFakeEngine(git, prompt, &fakeHost{})

	res, err := e.Sync(RepoContext{Root: "/repo"}, "feature/login")
	if !errors.Is(err, brokenTerm) {
		t.Fatalf("a prompter failure is not a dismissal, got %v", err)
	}
	if res.State != SyncConflicted {
		t.Fatalf("expected conflicted, got %v", res.State)
	}
	if git.ran("merge --abort") {
		t.Fatalf("prompter failure must not abort: %v", git.commands())
	}
}

func TestSyncConflictOpensDirectory(t *testing.T) {
	mergeErr := &GitError{Args: []string{"merge"}, Stderr: "CONFLICT", ExitCode: 1}
	git := &fakeGit{handler: syncHandler(mergeErr, "app.go\n")}
	prompt := &fakePrompter{selections: []int{0}} // open to resolve
	host := &fakeHost{}
	e := newFakeEngine(git, prompt, host)

	res, err := e.Sync(RepoContext{Root: "/repo"}, "feature/login")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.State != SyncConflicted {
		t.Fatalf("expected conflicted, got %v", res.State)
	}
	if len(host.opened) != 1 || host.opened[0] != res.Dir {
		t.Fatalf("expected the merge directory opened, got %v", host.opened)
	}
}

func TestSyncNonConflictMergeFailurePropagates(t *testing.T) {
	mergeErr := &GitError{Args: []string{"merge"}, Stderr: "fatal: refusing to merge unrelated histories", ExitCode: 128}
	git := &fakeGit{handler: syncHandler(mergeErr, "")}
	prompt := &fakePrompter{selectErr: errors.New("prompt must not be shown")}
	e := newFakeEngine(git, prompt, &fakeHost{})

	_, err := e.Sync(RepoContext{Root: "/repo"}, "feature/login")
	var gitErr *GitError
	if !errors.As(err, &gitErr) || !strings.Contains(gitErr.Stderr, "unrelated histories") {
		t.Fatalf("expected git's own diagnostics, got %v", err)
	}
}

func TestSyncWorktreeBranchMismatchIsHardError(t *testing.T) {
	base := syncHandler(nil, "")
	git := &fakeGit{handler: func(dir string, args []string) (string, error) {
		if strings.Join(args, " ") == "symbolic-ref --quiet --short HEAD" && dir == "/repo-worktrees/feature-login" {
			return "hotfix", nil
		}
		return base(dir, args)
	}}
	e := newFakeEngine(git, &fakePrompter{}, &fakeHost{})

	_, err := e.Sync(RepoContext{Root: "/repo"}, "feature/login")
	if err == nil || !strings.Contains(err.Error(), "expected") {
		t.Fatalf("expected branch mismatch error, got %v", err)
	}
	if git.ranPrefix("merge") {
		t.Fatalf("mismatch must stop before merging: %v", git.commands())
	}
}

func TestSyncPrimaryDirectorySwitchesFirst(t *testing.T) {
	// dev has no worktree; the primary directory is on main and must be
	// checked out to dev before the merge runs there.
	base := syncHandler(nil, "")
	git := &fakeGit{handler: base}
	e := newFakeEngine(git, &fakePrompter{}, &fakeHost{})

	res, err := e.Sync(RepoContext{Root: "/repo"}, "dev")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Dir != "/repo" {
		t.Fatalf("expected merge in the primary directory, got %q", res.Dir)
	}
	if !git.ran("checkout dev") {
		t.Fatalf("expected checkout before merge, got %v", git.commands())
	}
}

func TestSyncStateForDerivation(t *testing.T) {
	cases := []struct {
		name      string
		mergeHead error
		conflicts string
		want      SyncState
	}{
		{"idle", &GitError{ExitCode: 1}, "", SyncIdle},
		{"conflicted", nil, "app.go\n", SyncConflicted},
		{"ready", nil, "", SyncReadyToFinalize},
	}
	for _, tc := range cases {
		git := &fakeGit{handler: func(dir string, args []string) (string, error) {
			switch strings.Join(args, " ") {
			case "rev-parse -q --verify MERGE_HEAD":
				return "abc123", tc.mergeHead
			case "diff --name-only --diff-filter=U":
				return tc.conflicts, nil
			default:
				return "", nil
			}
		}}
		e := newFakeEngine(git, nil, nil)

		state, _, err := e.SyncStateFor("/wt")
		if err != nil {
			t.Fatalf("%s: SyncStateFor: %v", tc.name, err)
		}
		if state != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, state)
		}
	}
}

func TestResyncIdleIsNoOp(t *testing.T) {
	git := &fakeGit{handler: func(dir string, args []string) (string, error) {
		return "", &GitError{Args: args, ExitCode: 1}
	}}
	e := newFakeEngine(git, nil, nil)
	notified := countNotifications(e)

	res, err := e.Resync("/wt")
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if res.State != SyncIdle {
		t.Fatalf("expected idle, got %v", res.State)
	}
	if len(git.calls) != 1 {
		t.Fatalf("idle resync must probe once and stop, got %v", git.commands())
	}
	if *notified != 0 {
		t.Fatalf("idle resync must not notify, got %d", *notified)
	}
}

func TestResyncWithConflictsNamesEveryFile(t *testing.T) {
	git := &fakeGit{handler: func(dir string, args []string) (string, error) {
		switch strings.Join(args, " ") {
		case "rev-parse -q --verify MERGE_HEAD":
			return "abc123", nil
		case "diff --name-only --diff-filter=U":
			return "app.go\nlib/util.go\n", nil
		default:
			return "", nil
		}
	}}
	e := newFakeEngine(git, nil, nil)

	_, err := e.Resync("/wt")
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	for _, file := range []string{"app.go", "lib/util.go"} {
		if !strings.Contains(pre.Reason, file) {
			t.Fatalf("unresolved file %q not named in %q", file, pre.Reason)
		}
	}
	if git.ranPrefix("add") || git.ranPrefix("commit") {
		t.Fatalf("conflicted resync must not commit anything: %v", git.commands())
	}
}

func TestResyncFinalizesResolvedMerge(t *testing.T) {
	git := &fakeGit{handler: func(dir string, args []string) (string, error) {
		switch strings.Join(args, " ") {
		case "rev-parse -q --verify MERGE_HEAD":
			return "abc123", nil
		case "diff --name-only --diff-filter=U":
			return "", nil
		case "symbolic-ref --quiet --short HEAD":
			return "feature/login", nil
		default:
			return "", nil
		}
	}}
	e := newFakeEngine(git, nil, nil)
	notified := countNotifications(e)

	res, err := e.Resync("/wt")
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if res.State != SyncIdle {
		t.Fatalf("expected idle after finalize, got %v", res.State)
	}
	if res.Branch != "feature/login" {
		t.Fatalf("unexpected branch: %q", res.Branch)
	}
	if !git.ran("add -A") || !git.ran("commit --no-edit") {
		t.Fatalf("expected stage-all then commit, got %v", git.commands())
	}
	if *notified != 1 {
		t.Fatalf("expected one notification, got %d", *notified)
	}
}

func TestSyncStateString(t *testing.T) {
	cases := map[SyncState]string{
		SyncIdle:            "idle",
		SyncMerging:         "merging",
		SyncConflicted:      "conflicted",
		SyncReadyToFinalize: "ready-to-finalize",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}

// setupSyncScenario builds a clone with a feature worktree and an upstream
// main that moved after the branch was cut. Both sides edit README.md when
// conflicting is true; otherwise the feature edits a separate file.
func setupSyncScenario(t *testing.T, e *Engine, clone *testrepos.TempRepo, conflicting bool) (RepoContext, CreateResult) {
	t.Helper()
	git := NewGitRunner()

	ctx, err := RequireRepo(git, clone.Root)
	if err != nil {
		t.Fatalf("RequireRepo: %v", err)
	}
	res, err := e.CreateBranchNamed(ctx, "feature/topic", "main")
	if err != nil {
		t.Fatalf("CreateBranchNamed: %v", err)
	}

	clone.WriteFile(t, "README.md", "# upstream change\n")
	clone.Commit(t, "upstream edit")
	clone.RunGit(t, "push", "origin", "main")

	wt := &testrepos.TempRepo{Root: res.Path}
	if conflicting {
		wt.WriteFile(t, "README.md", "# feature change\n")
	} else {
		wt.WriteFile(t, "notes.txt", "feature notes\n")
	}
	wt.Commit(t, "feature edit")
	return ctx, res
}

func TestSyncCleanMergeIntegration(t *testing.T) {
	testrepos.RequireGit(t)
	_, clone := testrepos.Cloned(t)
	e := newFakeEngine(NewGitRunner(), &fakePrompter{selectErr: ErrCancelled}, &fakeHost{})
	ctx, res := setupSyncScenario(t, e, clone, false)

	out, err := e.Sync(ctx, "feature/topic")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if out.State != SyncIdle {
		t.Fatalf("expected idle, got %v", out.State)
	}
	merging, err := e.MergeInProgress(res.Path)
	if err != nil || merging {
		t.Fatalf("expected no merge in progress, got %v, %v", merging, err)
	}
	wt := &testrepos.TempRepo{Root: res.Path}
	if got := wt.RunGit(t, "show", "HEAD:README.md"); !strings.Contains(got, "upstream change") {
		t.Fatalf("upstream edit not merged, README is %q", got)
	}
}

func TestSyncConflictThenResyncIntegration(t *testing.T) {
	testrepos.RequireGit(t)
	_, clone := testrepos.Cloned(t)
	git := NewGitRunner()
	e := newFakeEngine(git, &fakePrompter{selectErr: ErrCancelled}, &fakeHost{})
	ctx, res := setupSyncScenario(t, e, clone, true)

	out, err := e.Sync(ctx, "feature/topic")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if out.State != SyncConflicted {
		t.Fatalf("expected conflicted, got %v", out.State)
	}
	found := false
	for _, file := range out.ConflictFiles {
		if file == "README.md" {
			found = true
		}
	}
	if !found {
		t.Fatalf("README.md missing from conflicts: %v", out.ConflictFiles)
	}

	// Finalizing with the conflict unresolved must refuse.
	_, err = e.Resync(out.Dir)
	var pre *PreconditionError
	if !errors.As(err, &pre) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}

	// Resolve and stage, then finalize.
	wt := &testrepos.TempRepo{Root: res.Path}
	wt.WriteFile(t, "README.md", "# merged change\n")
	wt.RunGit(t, "add", "README.md")
	before := wt.RunGit(t, "rev-list", "--count", "HEAD")

	final, err := e.Resync(out.Dir)
	if err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if final.State != SyncIdle {
		t.Fatalf("expected idle, got %v", final.State)
	}
	if final.Branch != "feature/topic" {
		t.Fatalf("unexpected branch: %q", final.Branch)
	}
	merging, err := e.MergeInProgress(res.Path)
	if err != nil || merging {
		t.Fatalf("merge must be concluded, got %v, %v", merging, err)
	}
	after := wt.RunGit(t, "rev-list", "--count", "HEAD")
	beforeCount, err := strconv.Atoi(strings.TrimSpace(before))
	if err != nil {
		t.Fatalf("parse commit count %q: %v", before, err)
	}
	afterCount, err := strconv.Atoi(strings.TrimSpace(after))
	if err != nil {
		t.Fatalf("parse commit count %q: %v", after, err)
	}
	if afterCount != beforeCount+1 {
		t.Fatalf("finalizing must produce exactly one merge commit, went %d -> %d", beforeCount, afterCount)
	}
}

func TestSyncConflictAbortIntegration(t *testing.T) {
	testrepos.RequireGit(t)
	_, clone := testrepos.Cloned(t)
	git := NewGitRunner()
	e := newFakeEngine(git, &fakePrompter{selections: []int{1}}, &fakeHost{})
	ctx, res := setupSyncScenario(t, e, clone, true)

	out, err := e.Sync(ctx, "feature/topic")
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if out.State != SyncIdle {
		t.Fatalf("expected idle after abort, got %v", out.State)
	}
	merging, err := e.MergeInProgress(res.Path)
	if err != nil || merging {
		t.Fatalf("aborted merge must leave no MERGE_HEAD, got %v, %v", merging, err)
	}
	wt := &testrepos.TempRepo{Root: res.Path}
	if got := wt.RunGit(t, "show", "HEAD:README.md"); !strings.Contains(got, "feature change") {
		t.Fatalf("abort must restore the branch content, README is %q", got)
	}
}
