package socket

import (
	"errors"
	"io"
)

var (
	// ErrAddressRequired is returned when a bind or connect address is empty.
	ErrAddressRequired = errors.New("pkgsocket: address is required")
	// ErrTopicRequired is returned when Subscribe is called with an empty topic.
	ErrTopicRequired = errors.New("pkgsocket: topic is required")
	// ErrClosed is returned when an operation is attempted on a closed socket.
	ErrClosed = errors.New("pkgsocket: socket is closed")
	// ErrNotSubscriber is returned when a sub-only operation is attempted on a pub socket.
	ErrNotSubscriber = errors.New("pkgsocket: socket is not a subscriber")
	// ErrNotPublisher is returned when a pub-only operation is attempted on a sub socket.
	ErrNotPublisher = errors.New("pkgsocket: socket is not a publisher")
)

// Role selects the side of the pub/sub pair a socket plays.
type Role string

const (
	// RolePub marks an outbound publishing socket.
	RolePub Role = "pub"
	// RoleSub marks an inbound subscribing socket.
	RoleSub Role = "sub"
)

// Frame is the two-part wire message: a topic and an opaque payload.
type Frame struct {
	// Topic is the logical channel the payload belongs to.
	Topic string
	// Payload is the encoded message body.
	Payload []byte
}

// Socket is a transport-agnostic pub/sub socket.
//
// A pub-role socket supports Bind and Send. A sub-role socket supports
// Connect, Subscribe and Messages. Close is valid on both roles.
type Socket interface {
	io.Closer

	// Bind attaches the socket to a local endpoint (pub role).
	Bind(addr string) error

	// Connect attaches the socket to a remote endpoint (sub role).
	Connect(addr string) error

	// Subscribe sets the topic prefix filter for inbound frames (sub role).
	Subscribe(topic string) error

	// Send writes a frame to the wire (pub role).
	Send(frame Frame) error

	// Messages returns the inbound frame stream (sub role).
	//
	// Delivery stops once the socket is closed; implementations may close
	// the channel or leave it open and idle, so consumers must not rely on
	// channel closure alone to detect shutdown.
	Messages() <-chan Frame
}

// Factory creates sockets for a given role.
//
// Implementations wrap a concrete transport; one factory serves exactly one
// endpoint configuration.
type Factory interface {
	// Create returns a fresh socket playing the given role.
	Create(role Role) (Socket, error)
}
