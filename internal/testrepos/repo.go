// Package testrepos builds real scratch git repositories for tests.
package testrepos

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TempRepo is a temporary git repository rooted at Root.
type TempRepo struct {
	Root string
}

// New creates a repository with one commit on main.
func New(tb testing.TB) *TempRepo {
	tb.Helper()
	repo := &TempRepo{Root: tb.TempDir()}
	repo.RunGit(tb, "init", "--initial-branch=main")
	repo.RunGit(tb, "config", "user.name", "Bough Test")
	repo.RunGit(tb, "config", "user.email", "test@example.com")
	repo.WriteFile(tb, "README.md", "# temp repository\n")
	repo.RunGit(tb, "add", "README.md")
	repo.RunGit(tb, "commit", "-m", "initial commit")
	return repo
}

// Cloned builds an upstream (bare) repository seeded with one commit on
// main, plus a working clone whose origin points at it. The clone is what
// tests operate on; pushes land in the bare upstream.
func Cloned(tb testing.TB) (origin string, clone *TempRepo) {
	tb.Helper()
	seed := New(tb)

	origin = filepath.Join(tb.TempDir(), "origin.git")
	runGit(tb, seed.Root, "clone", "--bare", seed.Root, origin)

	cloneRoot := filepath.Join(tb.TempDir(), "clone")
	runGit(tb, filepath.Dir(cloneRoot), "clone", origin, cloneRoot)

	clone = &TempRepo{Root: cloneRoot}
	clone.RunGit(tb, "config", "user.name", "Bough Test")
	clone.RunGit(tb, "config", "user.email", "test@example.com")
	return origin, clone
}

// RunGit executes git in the repository and fails the test on error.
func (r *TempRepo) RunGit(tb testing.TB, args ...string) string {
	tb.Helper()
	return runGit(tb, r.Root, args...)
}

// WriteFile writes a file relative to the repository root.
func (r *TempRepo) WriteFile(tb testing.TB, rel, content string) {
	tb.Helper()
	path := filepath.Join(r.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatalf("create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write %s: %v", rel, err)
	}
}

// Commit stages everything and commits with the given message.
func (r *TempRepo) Commit(tb testing.TB, message string) {
	tb.Helper()
	r.RunGit(tb, "add", "-A")
	r.RunGit(tb, "commit", "-m", message)
}

// RequireGit skips the test when no git executable is available.
func RequireGit(tb testing.TB) {
	tb.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		tb.Skip("git is required for this test")
	}
}

func runGit(tb testing.TB, dir string, args ...string) string {
	tb.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		tb.Fatalf("git %s failed: %v: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimRight(string(out), "\n")
}
