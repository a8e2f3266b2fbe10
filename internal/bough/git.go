// Package bough orchestrates branch-per-worktree workflows on top of the
// git command line: creating branches into dedicated worktree directories,
// switching between them, keeping them synchronized with the default
// integration branch, and removing them again.
package bough

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes one version-control command in the given working
// directory and returns its captured stdout. All engine state is derived
// through this interface; tests substitute a fake.
type Runner interface {
	Run(dir string, args ...string) (string, error)
}

// GitError carries the failed command and git's own diagnostics. The
// stderr text is surfaced to the user verbatim; git's messages are
// descriptive enough that rewording them loses information.
type GitError struct {
	Args     []string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *GitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("git %s failed: %v", strings.Join(e.Args, " "), e.Err)
	}
	return fmt.Sprintf("git %s failed: %s", strings.Join(e.Args, " "), msg)
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// isExitCode reports whether err is a GitError with the given exit code.
// Probe commands (show-ref, rev-parse --verify) use exit code 1 to mean
// "absent", which is an answer rather than a failure.
func isExitCode(err error, code int) bool {
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		return false
	}
	return gitErr.ExitCode == code
}

type gitRunner struct{}

// NewGitRunner returns the production Runner backed by the git executable.
func NewGitRunner() Runner {
	return gitRunner{}
}

func (gitRunner) Run(dir string, args ...string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("git working directory is required")
	}
	if len(args) == 0 {
		return "", errors.New("git arguments are required")
	}

	start := time.Now()
	debugLogf("git start dir=%q args=%q", dir, strings.Join(args, " "))

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		trimmed := strings.TrimSpace(stderr.String())
		if len(trimmed) > 600 {
			trimmed = trimmed[:600] + "...(truncated)"
		}
		debugErrorf("git fail dur=%s dir=%q args=%q exit=%d err=%v out=%q", elapsed, dir, strings.Join(args, " "), exitCode, err, trimmed)
		return "", &GitError{
			Args:     args,
			Stderr:   strings.TrimSpace(stderr.String()),
			ExitCode: exitCode,
			Err:      err,
		}
	}

	debugLogf("git ok dur=%s dir=%q args=%q out_bytes=%d", elapsed, dir, strings.Join(args, " "), stdout.Len())
	return strings.TrimRight(stdout.String(), "\n"), nil
}
