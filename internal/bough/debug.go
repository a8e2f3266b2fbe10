package bough

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Debug logging appends to a plain file rather than the terminal: the
// interactive surfaces own the screen, so diagnostics must live elsewhere.
// Set BOUGH_DEBUG_LOG to choose the file; it defaults to the temp dir.

var debugLogMu sync.Mutex

func debugLogFilePath() string {
	if v := strings.TrimSpace(os.Getenv("BOUGH_DEBUG_LOG")); v != "" {
		return v
	}
	return filepath.Join(os.TempDir(), "bough-debug.log")
}

// debugLogf records an informational line.
func debugLogf(format string, args ...any) {
	debugLogTagged("info", format, args...)
}

// debugErrorf records a failure line; grep for " error " when triaging.
func debugErrorf(format string, args ...any) {
	debugLogTagged("error", format, args...)
}

func debugLogTagged(tag, format string, args ...any) {
	path := debugLogFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}

	line := fmt.Sprintf("%s %s %s\n",
		time.Now().Format(time.RFC3339Nano), tag, fmt.Sprintf(format, args...))

	debugLogMu.Lock()
	defer debugLogMu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	_, _ = f.WriteString(line)
	_ = f.Close()
}
