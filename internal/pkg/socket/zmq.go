package socket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"
)

// ZMQConfig configures the ZeroMQ implementation.
type ZMQConfig struct {
	// Options are passed to the underlying zmq4 sockets.
	Options []zmq4.Option
}

// ZMQFactory creates ZeroMQ-backed sockets.
type ZMQFactory struct {
	ctx context.Context
	cfg ZMQConfig
}

// NewZMQFactory constructs a ZeroMQ socket factory.
//
// The context bounds the lifetime of every socket the factory creates.
func NewZMQFactory(ctx context.Context, cfg ZMQConfig) *ZMQFactory {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ZMQFactory{ctx: ctx, cfg: cfg}
}

// Create returns a fresh ZeroMQ socket for the given role.
func (f *ZMQFactory) Create(role Role) (Socket, error) {
	switch role {
	case RolePub:
		return newZMQSocket(role, zmq4.NewPub(f.ctx, f.cfg.Options...)), nil
	case RoleSub:
		return newZMQSocket(role, zmq4.NewSub(f.ctx, f.cfg.Options...)), nil
	default:
		return nil, fmt.Errorf("pkgsocket: zmq unknown role: %s", role)
	}
}

type zmqSocket struct {
	role Role
	sock zmq4.Socket

	mu      sync.Mutex
	msgs    chan Frame
	quit    chan struct{}
	pumping bool
	closed  bool
}

func newZMQSocket(role Role, sock zmq4.Socket) *zmqSocket {
	return &zmqSocket{
		role: role,
		sock: sock,
		msgs: make(chan Frame, 64),
		quit: make(chan struct{}),
	}
}

// Bind attaches the publish socket to a local tcp endpoint.
func (s *zmqSocket) Bind(addr string) error {
	if s.role != RolePub {
		return ErrNotPublisher
	}
	if addr == "" {
		return ErrAddressRequired
	}
	if err := s.sock.Listen(addr); err != nil {
		return fmt.Errorf("pkgsocket: zmq bind: %w", err)
	}
	return nil
}

// Connect attaches the subscribe socket to a remote tcp endpoint.
func (s *zmqSocket) Connect(addr string) error {
	if s.role != RoleSub {
		return ErrNotSubscriber
	}
	if addr == "" {
		return ErrAddressRequired
	}
	if err := s.sock.Dial(addr); err != nil {
		return fmt.Errorf("pkgsocket: zmq connect: %w", err)
	}
	return nil
}

// Subscribe sets the ZeroMQ prefix filter and starts the receive pump.
func (s *zmqSocket) Subscribe(topic string) error {
	if s.role != RoleSub {
		return ErrNotSubscriber
	}
	if topic == "" {
		return ErrTopicRequired
	}
	if err := s.sock.SetOption(zmq4.OptionSubscribe, topic); err != nil {
		return fmt.Errorf("pkgsocket: zmq subscribe: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.pumping {
		s.pumping = true
		go s.pump()
	}
	return nil
}

func (s *zmqSocket) pump() {
	defer close(s.msgs)
	for {
		msg, err := s.sock.Recv()
		if err != nil {
			// Recv fails once the socket is closed or its context ends.
			return
		}
		if len(msg.Frames) < 2 {
			continue
		}
		select {
		case s.msgs <- Frame{Topic: string(msg.Frames[0]), Payload: msg.Frames[1]}:
		case <-s.quit:
			return
		}
	}
}

// Send writes a frame as a two-part ZeroMQ message.
func (s *zmqSocket) Send(frame Frame) error {
	if s.role != RolePub {
		return ErrNotPublisher
	}
	if err := s.sock.Send(zmq4.NewMsgFrom([]byte(frame.Topic), frame.Payload)); err != nil {
		return fmt.Errorf("pkgsocket: zmq send: %w", err)
	}
	return nil
}

// Messages returns the inbound frame stream.
func (s *zmqSocket) Messages() <-chan Frame {
	return s.msgs
}

// Close shuts the underlying ZeroMQ socket down.
func (s *zmqSocket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	pumping := s.pumping
	s.mu.Unlock()

	close(s.quit)
	err := s.sock.Close()
	if !pumping {
		close(s.msgs)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("pkgsocket: zmq close: %w", err)
	}
	return nil
}
