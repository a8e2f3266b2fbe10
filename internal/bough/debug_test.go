package bough

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugLogTags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	t.Setenv("BOUGH_DEBUG_LOG", path)

	debugLogf("informational line %d", 1)
	debugErrorf("something failed exit=%d", 128)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", string(data))
	}
	if !strings.Contains(lines[0], " info ") || !strings.Contains(lines[0], "informational line 1") {
		t.Fatalf("unexpected info line: %q", lines[0])
	}
	if !strings.Contains(lines[1], " error ") || !strings.Contains(lines[1], "exit=128") {
		t.Fatalf("unexpected error line: %q", lines[1])
	}
}
