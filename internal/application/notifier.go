package application

import "sync"

type listenerEntry[S any] struct {
	id uint64
	fn func(S)
}

// notifier fans state snapshots out to subscribers in subscription order.
type notifier[S any] struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listenerEntry[S]
}

func (n *notifier[S]) subscribe(fn func(S)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listenerEntry[S]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, entry := range n.listeners {
				if entry.id == id {
					n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (n *notifier[S]) publish(state S, clone func(S) S) {
	n.mu.Lock()
	listeners := append([]listenerEntry[S](nil), n.listeners...)
	n.mu.Unlock()

	for _, entry := range listeners {
		entry.fn(clone(state))
	}
}

// stateCell owns a session state. Writers replace it wholesale through
// transition; readers always get deep copies.
type stateCell[S any] struct {
	mu        sync.Mutex
	state     S
	clone     func(S) S
	listeners notifier[S]
}

func newStateCell[S any](initial S, clone func(S) S) *stateCell[S] {
	return &stateCell[S]{state: initial, clone: clone}
}

func (c *stateCell[S]) snapshot() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clone(c.state)
}

// transition applies fn to a copy of the current state under the lock. When
// fn returns an error the state is left untouched and nobody is notified.
func (c *stateCell[S]) transition(fn func(current S) (S, error)) (S, error) {
	c.mu.Lock()
	next, err := fn(c.clone(c.state))
	if err != nil {
		c.mu.Unlock()
		var zero S
		return zero, err
	}
	c.state = next
	published := c.clone(next)
	c.mu.Unlock()

	c.listeners.publish(published, c.clone)
	return c.clone(published), nil
}

func (c *stateCell[S]) subscribe(fn func(S)) func() {
	return c.listeners.subscribe(fn)
}
