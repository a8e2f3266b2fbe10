package bough

import (
	"errors"
	"os"
	"os/exec"
	"strings"
)

// editorHost opens directories as new workspaces by spawning the
// configured editor command. The process is started and left alone; the
// workflow does not wait for the editor to exit.
type editorHost struct {
	cfg Config
}

// NewEditorHost returns the default Host implementation.
func NewEditorHost(cfg Config) Host {
	return editorHost{cfg: cfg}
}

func (h editorHost) OpenDirectory(path string) error {
	command := h.editorCommand()
	if command == "" {
		return errors.New("no editor command configured; set editor_command or $EDITOR")
	}
	parts := strings.Fields(command)
	args := append(parts[1:], path)
	cmd := exec.Command(parts[0], args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	debugLogf("host open dir=%q command=%q pid=%d", path, command, cmd.Process.Pid)
	// The editor owns its own lifetime.
	go func() { _ = cmd.Wait() }()
	return nil
}

func (h editorHost) editorCommand() string {
	for _, candidate := range []string{
		h.cfg.EditorCommand,
		os.Getenv("BOUGH_EDITOR"),
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
	} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v
		}
	}
	return ""
}
