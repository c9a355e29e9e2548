package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shandysiswandi/wireq/internal/pkg/goroutine"
	"github.com/shandysiswandi/wireq/internal/pkg/socket"
	"go.uber.org/atomic"
)

// Provider owns one publish and one subscribe socket for a named queue.
//
// Construction is synchronous and performs no I/O; Start spawns the bind
// task that gates readiness. Publish and Subscribe are safe to call at any
// point: before readiness they queue or defer, and replay once the publish
// socket is bound. All post-construction failures surface as EventError on
// the sink, never as returned errors.
type Provider struct {
	sink Emitter
	opts Options
	addr string

	pub     socket.Socket
	sub     socket.Socket
	routine *goroutine.Manager

	mu      sync.Mutex
	ready   bool
	pending []socket.Frame
	wantSub bool

	started *atomic.Bool
	closed  *atomic.Bool
	stop    chan struct{}
}

// New validates its inputs and creates both sockets via the factory.
//
// Validation order is sink, options, queueName, hostname, port; the first
// missing input determines the returned error. New never blocks on I/O.
func New(sink Emitter, opts *Options, factory socket.Factory) (*Provider, error) {
	if sink == nil {
		return nil, ErrMissingEmitter
	}
	if opts == nil {
		return nil, ErrMissingOptions
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, ErrMissingFactory
	}

	pub, err := factory.Create(socket.RolePub)
	if err != nil {
		return nil, fmt.Errorf("queue: create publish socket: %w", err)
	}
	sub, err := factory.Create(socket.RoleSub)
	if err != nil {
		return nil, fmt.Errorf("queue: create subscribe socket: %w", err)
	}

	return &Provider{
		sink:    sink,
		opts:    *opts,
		addr:    opts.address(),
		pub:     pub,
		sub:     sub,
		routine: goroutine.NewManager(4),
		started: atomic.NewBool(false),
		closed:  atomic.NewBool(false),
		stop:    make(chan struct{}),
	}, nil
}

// Start spawns the publish socket bind task. It is a no-op after the first
// call and after Unsubscribe.
//
// On bind success the provider emits EventReady, drains queued publishes in
// FIFO order, and honors a deferred Subscribe. On bind failure it emits
// EventError once and never becomes ready; there is no retry.
func (p *Provider) Start(ctx context.Context) {
	if p.closed.Load() || !p.started.CompareAndSwap(false, true) {
		return
	}

	p.routine.Go(ctx, "bind", func(ctx context.Context) error {
		if err := p.pub.Bind(p.addr); err != nil {
			p.sink.Emit(EventError, err)
			return nil
		}
		p.becomeReady(ctx)
		return nil
	})
}

// becomeReady runs the one-shot readiness transition on the bind goroutine.
//
// EventReady handlers run before the ready flag flips, so a publish issued
// inside a handler joins the pending queue and drains in order. The drain
// holds the provider lock, which keeps it atomic with respect to publishes
// arriving from other goroutines: they either land in the queue before the
// drain or hit the socket after it.
func (p *Provider) becomeReady(ctx context.Context) {
	p.sink.Emit(EventReady, nil)

	var sendErrs []error
	p.mu.Lock()
	for _, frame := range p.pending {
		if err := p.pub.Send(frame); err != nil {
			sendErrs = append(sendErrs, err)
		}
	}
	p.pending = nil
	p.ready = true
	wantSub := p.wantSub
	p.mu.Unlock()

	for _, err := range sendErrs {
		p.sink.Emit(EventError, err)
	}
	if wantSub {
		p.openSubscription(ctx)
	}
}

// Ready reports whether the publish socket bind has completed.
func (p *Provider) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ready
}

// Closed reports whether Unsubscribe has been called.
func (p *Provider) Closed() bool {
	return p.closed.Load()
}

// Publish sends message to the queue, fire and forget.
//
// Before readiness the encoded frame is appended to the pending queue;
// afterwards it goes straight to the publish socket. Encoding and send
// failures are emitted as EventError and never crash the caller. After
// Unsubscribe, Publish is a no-op.
func (p *Provider) Publish(message any) {
	if p.closed.Load() {
		return
	}

	payload, err := encodePayload(message)
	if err != nil {
		p.sink.Emit(EventError, err)
		return
	}
	frame := socket.Frame{Topic: p.opts.QueueName, Payload: payload}

	p.mu.Lock()
	if !p.ready {
		p.pending = append(p.pending, frame)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if err := p.pub.Send(frame); err != nil {
		p.sink.Emit(EventError, err)
	}
}

// Subscribe attaches the subscribe socket to the queue and re-emits each
// inbound frame as EventMessage.
//
// Before readiness the attach is deferred until the ready transition.
// Repeated calls re-issue connect and subscribe; deduplication is the
// caller's responsibility. After Unsubscribe, Subscribe is a no-op.
func (p *Provider) Subscribe() {
	if p.closed.Load() {
		return
	}

	p.mu.Lock()
	if !p.ready {
		p.wantSub = true
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.openSubscription(context.Background())
}

func (p *Provider) openSubscription(ctx context.Context) {
	if err := p.sub.Connect(p.addr); err != nil {
		p.sink.Emit(EventError, err)
		return
	}
	if err := p.sub.Subscribe(p.opts.QueueName); err != nil {
		p.sink.Emit(EventError, err)
		return
	}

	p.routine.Go(ctx, "receive", func(ctx context.Context) error {
		msgs := p.sub.Messages()
		for {
			select {
			case frame, ok := <-msgs:
				if !ok {
					return nil
				}
				p.sink.Emit(EventMessage, NewMessage(frame.Payload))
			case <-p.stop:
				return nil
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// Unsubscribe stops the inbound pump and closes the subscribe socket.
//
// The first call wins; every later call is a no-op, so exactly one
// listener-removal effect occurs no matter how often it is invoked. A
// closed provider cannot be reopened.
func (p *Provider) Unsubscribe() {
	if p.closed.Swap(true) {
		return
	}

	close(p.stop)
	if err := p.sub.Close(); err != nil {
		p.sink.Emit(EventError, err)
	}
}

// Close tears the provider down for process shutdown: it unsubscribes,
// closes the publish socket and waits for background tasks to finish.
func (p *Provider) Close() error {
	p.Unsubscribe()
	err := p.pub.Close()
	return errors.Join(err, p.routine.Wait())
}
