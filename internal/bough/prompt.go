package bough

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a dismissed prompt. Workflows treat it as a silent
// no-op: whatever already executed stays as-is, nothing further runs, and
// the CLI reports nothing.
var ErrCancelled = errors.New("selection cancelled")

// ErrNotGitRepo is returned when a directory does not resolve to a git
// working tree top level.
var ErrNotGitRepo = errors.New("not inside a git repository")

// Prompter is the interactive surface the workflows drive. Implementations
// block until the user answers or dismisses; a dismissal is reported as
// ErrCancelled, never as a zero value.
type Prompter interface {
	// Select presents options and returns the chosen index.
	Select(title string, options []string) (int, error)
	// Confirm asks a yes/no question with explicit button labels.
	Confirm(title, yesLabel, noLabel string) (bool, error)
	// Input asks for free text, pre-filled with initial.
	Input(title, initial string) (string, error)
}

// Host is the surrounding application: it can present a directory as a new
// workspace (editor window, terminal session, whatever the host is).
type Host interface {
	OpenDirectory(path string) error
}

// PreconditionError reports a workflow halted before any mutation because
// a required condition did not hold (dirty working tree, unresolved
// conflicts, nothing to select).
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
