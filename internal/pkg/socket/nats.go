package socket

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	// URL overrides the server address derived from Bind/Connect.
	URL string

	// Options are passed to the NATS client.
	Options []nats.Option
}

// NATSFactory creates NATS-backed sockets.
//
// NATS has no notion of binding a listener; both roles dial the broker, so
// Bind and Connect behave identically here.
type NATSFactory struct {
	cfg NATSConfig
}

// NewNATSFactory constructs a NATS socket factory.
func NewNATSFactory(cfg NATSConfig) *NATSFactory {
	return &NATSFactory{cfg: cfg}
}

// Create returns a fresh NATS socket for the given role.
func (f *NATSFactory) Create(role Role) (Socket, error) {
	switch role {
	case RolePub, RoleSub:
		return newNATSSocket(role, f.cfg), nil
	default:
		return nil, fmt.Errorf("pkgsocket: nats unknown role: %s", role)
	}
}

type natsSocket struct {
	role Role
	cfg  NATSConfig

	mu     sync.Mutex
	conn   *nats.Conn
	subs   []*nats.Subscription
	msgs   chan Frame
	quit   chan struct{}
	closed bool
}

func newNATSSocket(role Role, cfg NATSConfig) *natsSocket {
	return &natsSocket{
		role: role,
		cfg:  cfg,
		msgs: make(chan Frame, 64),
		quit: make(chan struct{}),
	}
}

// natsURL rewrites a tcp:// endpoint into a nats:// server URL.
func (s *natsSocket) natsURL(addr string) string {
	if s.cfg.URL != "" {
		return s.cfg.URL
	}
	return "nats://" + strings.TrimPrefix(addr, "tcp://")
}

func (s *natsSocket) dial(addr string) error {
	if addr == "" {
		return ErrAddressRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.conn != nil {
		return nil
	}

	conn, err := nats.Connect(s.natsURL(addr), s.cfg.Options...)
	if err != nil {
		return fmt.Errorf("pkgsocket: nats connect: %w", err)
	}
	s.conn = conn
	return nil
}

// Bind dials the NATS server; the broker owns the listening endpoint.
func (s *natsSocket) Bind(addr string) error {
	if s.role != RolePub {
		return ErrNotPublisher
	}
	return s.dial(addr)
}

// Connect dials the NATS server.
func (s *natsSocket) Connect(addr string) error {
	if s.role != RoleSub {
		return ErrNotSubscriber
	}
	return s.dial(addr)
}

// Subscribe subscribes to the topic as a NATS subject.
func (s *natsSocket) Subscribe(topic string) error {
	if s.role != RoleSub {
		return ErrNotSubscriber
	}
	if topic == "" {
		return ErrTopicRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.conn == nil {
		return errors.New("pkgsocket: nats subscribe before connect")
	}

	sub, err := s.conn.Subscribe(topic, func(m *nats.Msg) {
		select {
		case s.msgs <- Frame{Topic: m.Subject, Payload: m.Data}:
		case <-s.quit:
		}
	})
	if err != nil {
		return fmt.Errorf("pkgsocket: nats subscribe: %w", err)
	}
	s.subs = append(s.subs, sub)

	if err := s.conn.Flush(); err != nil {
		return fmt.Errorf("pkgsocket: nats flush: %w", err)
	}
	return nil
}

// Send publishes the frame payload to its topic subject.
func (s *natsSocket) Send(frame Frame) error {
	if s.role != RolePub {
		return ErrNotPublisher
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("pkgsocket: nats send before bind")
	}

	if err := conn.Publish(frame.Topic, frame.Payload); err != nil {
		return fmt.Errorf("pkgsocket: nats publish: %w", err)
	}
	if err := conn.Flush(); err != nil {
		return fmt.Errorf("pkgsocket: nats flush: %w", err)
	}
	return nil
}

// Messages returns the inbound frame stream.
func (s *natsSocket) Messages() <-chan Frame {
	return s.msgs
}

// Close unsubscribes, drops the connection and ends the frame stream.
func (s *natsSocket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	conn := s.conn
	s.mu.Unlock()

	close(s.quit)

	var closeErr error
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			closeErr = errors.Join(closeErr, err)
		}
	}
	if conn != nil {
		conn.Close()
	}
	return closeErr
}
