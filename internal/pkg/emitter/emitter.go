// Package emitter provides a small synchronous event emitter.
//
// An Emitter is an injected capability, not a global: each component that
// wants lifecycle or data events owns its own instance, so independent
// producers never observe each other's listeners.
package emitter

import "sync"

// Listener handles a single emitted event payload.
type Listener func(payload any)

type registration struct {
	id   uint64
	fn   Listener
	once bool
}

// Emitter dispatches named events to registered listeners.
//
// Dispatch is synchronous: Emit runs every listener in registration order
// before returning. All methods are safe for concurrent use.
type Emitter struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[string][]registration
}

// New constructs an empty Emitter.
func New() *Emitter {
	return &Emitter{listeners: make(map[string][]registration)}
}

// On registers a listener for event and returns its registration id.
func (e *Emitter) On(event string, fn Listener) uint64 {
	return e.register(event, fn, false)
}

// Once registers a listener that is removed after its first invocation.
func (e *Emitter) Once(event string, fn Listener) uint64 {
	return e.register(event, fn, true)
}

func (e *Emitter) register(event string, fn Listener, once bool) uint64 {
	if fn == nil {
		return 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.listeners[event] = append(e.listeners[event], registration{id: id, fn: fn, once: once})
	return id
}

// Off removes the listener registered under id for event.
func (e *Emitter) Off(event string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	regs := e.listeners[event]
	for i, reg := range regs {
		if reg.id == id {
			e.listeners[event] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Emit invokes every listener registered for event with payload.
func (e *Emitter) Emit(event string, payload any) {
	e.mu.Lock()
	regs := append([]registration{}, e.listeners[event]...)
	if len(regs) > 0 {
		kept := e.listeners[event][:0]
		for _, reg := range e.listeners[event] {
			if !reg.once {
				kept = append(kept, reg)
			}
		}
		e.listeners[event] = kept
	}
	e.mu.Unlock()

	for _, reg := range regs {
		reg.fn(payload)
	}
}

// ListenerCount reports how many listeners are registered for event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}
