package bough

import "testing"

func TestNotifierFanOut(t *testing.T) {
	n := NewNotifier()
	a, b := 0, 0
	tokA := n.Subscribe(func() { a++ })
	n.Subscribe(func() { b++ })

	n.StateChanged()
	if a != 1 || b != 1 {
		t.Fatalf("expected both observers notified, got a=%d b=%d", a, b)
	}

	n.Unsubscribe(tokA)
	n.StateChanged()
	if a != 1 || b != 2 {
		t.Fatalf("expected only the remaining observer notified, got a=%d b=%d", a, b)
	}

	// Unknown tokens are ignored.
	n.Unsubscribe(Token(999))
	n.StateChanged()
	if b != 3 {
		t.Fatalf("expected third notification, got b=%d", b)
	}
}

func TestNotifierObserverCanUnsubscribeItself(t *testing.T) {
	n := NewNotifier()
	count := 0
	var tok Token
	tok = n.Subscribe(func() {
		count++
		n.Unsubscribe(tok)
	})

	n.StateChanged()
	n.StateChanged()
	if count != 1 {
		t.Fatalf("expected a single delivery, got %d", count)
	}
}
