package bough

// Engine wires the workflows to their collaborators: the git Runner, the
// interactive Prompter, the surrounding Host, and the change Notifier.
// The engine itself holds no repository state; everything is re-read from
// git on each call so that externally interrupted workflows (new windows,
// editor restarts, long delays) resume correctly.
type Engine struct {
	git    Runner
	cfg    Config
	prompt Prompter
	host   Host
	events *Notifier
}

// NewEngine constructs an Engine. events may be shared with the host so
// its displays refresh after mutations.
func NewEngine(git Runner, cfg Config, prompt Prompter, host Host, events *Notifier) *Engine {
	if events == nil {
		events = NewNotifier()
	}
	return &Engine{git: git, cfg: cfg, prompt: prompt, host: host, events: events}
}

// Events exposes the notifier for observer registration.
func (e *Engine) Events() *Notifier {
	return e.events
}

func (e *Engine) remote() string {
	if e.cfg.DefaultRemote != "" {
		return e.cfg.DefaultRemote
	}
	return "origin"
}
