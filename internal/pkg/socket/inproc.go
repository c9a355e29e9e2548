package socket

import (
	"strings"
	"sync"
)

// inprocBuses maps endpoint addresses to their process-local hubs.
var inprocBuses = struct {
	sync.Mutex
	m map[string]*inprocBus
}{m: make(map[string]*inprocBus)}

func inprocBusFor(addr string) *inprocBus {
	inprocBuses.Lock()
	defer inprocBuses.Unlock()

	bus, ok := inprocBuses.m[addr]
	if !ok {
		bus = &inprocBus{}
		inprocBuses.m[addr] = bus
	}
	return bus
}

// inprocBus fans frames out to every attached subscriber.
type inprocBus struct {
	mu   sync.Mutex
	subs []*inprocSocket
}

func (b *inprocBus) attach(s *inprocSocket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if sub == s {
			return
		}
	}
	b.subs = append(b.subs, s)
}

func (b *inprocBus) detach(s *inprocSocket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == s {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *inprocBus) broadcast(frame Frame) {
	b.mu.Lock()
	subs := append([]*inprocSocket{}, b.subs...)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(frame)
	}
}

// InprocFactory creates process-local sockets.
//
// Sockets bound and connected to the same address exchange frames through an
// in-memory hub with ZeroMQ-style prefix topic filtering. Useful for single
// process wiring and tests.
type InprocFactory struct{}

// NewInprocFactory constructs an in-process socket factory.
func NewInprocFactory() *InprocFactory {
	return &InprocFactory{}
}

// Create returns a fresh in-process socket for the given role.
func (f *InprocFactory) Create(role Role) (Socket, error) {
	return &inprocSocket{
		role: role,
		msgs: make(chan Frame, 64),
	}, nil
}

type inprocSocket struct {
	role Role

	mu     sync.Mutex
	bus    *inprocBus
	topics []string
	msgs   chan Frame
	closed bool
}

// Bind attaches the publish side to the hub for addr.
func (s *inprocSocket) Bind(addr string) error {
	if s.role != RolePub {
		return ErrNotPublisher
	}
	if addr == "" {
		return ErrAddressRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.bus = inprocBusFor(addr)
	return nil
}

// Connect attaches the subscribe side to the hub for addr.
func (s *inprocSocket) Connect(addr string) error {
	if s.role != RoleSub {
		return ErrNotSubscriber
	}
	if addr == "" {
		return ErrAddressRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.bus = inprocBusFor(addr)
	return nil
}

// Subscribe adds a prefix filter and registers the socket with its hub.
func (s *inprocSocket) Subscribe(topic string) error {
	if s.role != RoleSub {
		return ErrNotSubscriber
	}
	if topic == "" {
		return ErrTopicRequired
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	bus := s.bus
	s.topics = append(s.topics, topic)
	s.mu.Unlock()

	if bus == nil {
		return ErrAddressRequired
	}
	bus.attach(s)
	return nil
}

// Send broadcasts the frame to every subscriber on the hub.
func (s *inprocSocket) Send(frame Frame) error {
	if s.role != RolePub {
		return ErrNotPublisher
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	bus := s.bus
	s.mu.Unlock()

	if bus == nil {
		return ErrAddressRequired
	}
	bus.broadcast(frame)
	return nil
}

// deliver enqueues the frame when it matches a subscribed prefix.
//
// A full inbox drops the frame, matching plain pub/sub backpressure.
func (s *inprocSocket) deliver(frame Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	for _, topic := range s.topics {
		if strings.HasPrefix(frame.Topic, topic) {
			select {
			case s.msgs <- frame:
			default:
			}
			return
		}
	}
}

// Messages returns the inbound frame stream.
func (s *inprocSocket) Messages() <-chan Frame {
	return s.msgs
}

// Close detaches from the hub and ends the frame stream.
func (s *inprocSocket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	bus := s.bus
	s.mu.Unlock()

	if bus != nil {
		bus.detach(s)
	}
	close(s.msgs)
	return nil
}
