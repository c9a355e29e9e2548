package emitter

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitInvokesListenersInOrder(t *testing.T) {
	e := New()

	var got []string
	e.On("event", func(payload any) { got = append(got, "first:"+payload.(string)) })
	e.On("event", func(payload any) { got = append(got, "second:"+payload.(string)) })

	e.Emit("event", "x")

	assert.Equal(t, []string{"first:x", "second:x"}, got)
}

func TestEmitUnknownEventIsNoop(t *testing.T) {
	e := New()
	assert.NotPanics(t, func() { e.Emit("nobody-listens", nil) })
}

func TestOnceFiresOnce(t *testing.T) {
	e := New()

	var calls int
	e.Once("event", func(any) { calls++ })

	e.Emit("event", nil)
	e.Emit("event", nil)

	assert.Equal(t, 1, calls)
	assert.Zero(t, e.ListenerCount("event"))
}

func TestOffRemovesListener(t *testing.T) {
	e := New()

	var calls int
	id := e.On("event", func(any) { calls++ })
	e.On("event", func(any) {})

	e.Off("event", id)
	e.Emit("event", nil)

	assert.Zero(t, calls)
	assert.Equal(t, 1, e.ListenerCount("event"))
}

func TestEmitIsSafeForConcurrentUse(t *testing.T) {
	e := New()

	var mu sync.Mutex
	var calls int
	e.On("event", func(any) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			for range 100 {
				e.Emit("event", nil)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1000, calls)
}

func TestIsolatedSinks(t *testing.T) {
	a := New()
	b := New()

	var aCalls int
	a.On("event", func(any) { aCalls++ })

	b.Emit("event", nil)
	assert.Zero(t, aCalls)
}
