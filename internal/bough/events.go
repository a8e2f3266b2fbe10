package bough

import "sync"

// Token identifies one subscription so it can be removed later.
type Token int

// Notifier fans out repository-state-changed notifications to registered
// observers. Observers are read-only consumers (status displays, badges);
// they are invoked synchronously after a workflow completes a mutation and
// must re-read live state themselves rather than receive a payload.
type Notifier struct {
	mu   sync.Mutex
	next Token
	subs map[Token]func()
}

// NewNotifier returns an empty observer registry.
func NewNotifier() *Notifier {
	return &Notifier{subs: map[Token]func(){}}
}

// Subscribe registers fn and returns a token for Unsubscribe.
func (n *Notifier) Subscribe(fn func()) Token {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	tok := n.next
	n.subs[tok] = fn
	return tok
}

// Unsubscribe removes the subscription; unknown tokens are ignored.
func (n *Notifier) Unsubscribe(tok Token) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, tok)
}

// StateChanged notifies every observer that repository state has mutated.
func (n *Notifier) StateChanged() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
