package bough

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const worktreeDirSuffix = "-worktrees"

// WorktreePathFor maps a repository root and branch name to the branch's
// dedicated worktree directory: a sibling of the root, under
// <basename(root)>-worktrees, one subdirectory per branch. Path separators
// in hierarchical branch names are flattened to hyphens so feature/x stays
// filesystem-safe. Branch names that sanitize to the same directory (for
// example feature/x and feature-x) collide; that is a known limitation.
func WorktreePathFor(repoRoot, branch string) (string, error) {
	if err := ValidateBranchName(branch); err != nil {
		return "", err
	}
	parent := filepath.Dir(repoRoot)
	container := filepath.Base(repoRoot) + worktreeDirSuffix
	return filepath.Join(parent, container, sanitizeBranchDir(branch)), nil
}

// sanitizeBranchDir flattens every path separator in the branch name.
func sanitizeBranchDir(branch string) string {
	dir := strings.ReplaceAll(branch, "/", "-")
	dir = strings.ReplaceAll(dir, "\\", "-")
	return dir
}

// ValidateBranchName rejects names that are empty, whitespace-only, or
// contain embedded whitespace. Nothing else is checked; anything beyond
// that is git's call and git's diagnostics are surfaced as-is.
func ValidateBranchName(branch string) error {
	if strings.TrimSpace(branch) == "" {
		return fmt.Errorf("branch name is required")
	}
	if strings.IndexFunc(branch, unicode.IsSpace) >= 0 {
		return fmt.Errorf("branch name %q must not contain whitespace", branch)
	}
	return nil
}
