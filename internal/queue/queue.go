package queue

import (
	"errors"
	"fmt"
)

const (
	// EventReady fires once, after the publish socket bind succeeds.
	EventReady = "ready"
	// EventError carries a bind, send or subscribe failure.
	EventError = "error"
	// EventMessage carries a Message for each inbound subscribed frame.
	EventMessage = "message"
)

var (
	// ErrMissingEmitter is returned when New receives a nil event sink.
	ErrMissingEmitter = errors.New("queue: event emitter is required")
	// ErrMissingOptions is returned when New receives nil options.
	ErrMissingOptions = errors.New("queue: provider options are required")
	// ErrMissingFactory is returned when New receives a nil socket factory.
	ErrMissingFactory = errors.New("queue: socket factory is required")
)

// MissingFieldError reports the first required option that is absent.
type MissingFieldError struct {
	// Field is the option field name, e.g. "queueName".
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("queue: option %q is required", e.Field)
}

// Emitter is the sink the provider writes lifecycle and data events to.
//
// The provider only ever emits; it never owns the sink's lifecycle or
// inspects its listeners. Callers typically pass an *emitter.Emitter.
type Emitter interface {
	Emit(event string, payload any)
}

// Options configures a Provider. All fields are required and immutable
// after construction.
type Options struct {
	// QueueName is the topic used as publish prefix and subscribe filter.
	QueueName string
	// Hostname is the bind/connect host for both sockets.
	Hostname string
	// Port is the bind/connect port for both sockets.
	Port int
}

// validate checks required fields in order: queueName, hostname, port.
// The first missing field determines the reported error.
func (o *Options) validate() error {
	if o.QueueName == "" {
		return &MissingFieldError{Field: "queueName"}
	}
	if o.Hostname == "" {
		return &MissingFieldError{Field: "hostname"}
	}
	if o.Port == 0 {
		return &MissingFieldError{Field: "port"}
	}
	return nil
}

// address formats the wire endpoint shared by both sockets.
func (o *Options) address() string {
	return fmt.Sprintf("tcp://%s:%d", o.Hostname, o.Port)
}
