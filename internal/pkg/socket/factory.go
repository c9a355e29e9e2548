package socket

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverZeroMQ selects the ZeroMQ backend.
	DriverZeroMQ = "zeromq"
	// DriverNATS selects the NATS backend.
	DriverNATS = "nats"
	// DriverInproc selects the in-process backend.
	DriverInproc = "inproc"
)

// ErrUnknownDriver indicates an unsupported socket driver.
var ErrUnknownDriver = errors.New("pkgsocket: unknown driver")

// FactoryOptions groups config for supported socket backends.
type FactoryOptions struct {
	// ZMQ provides configuration for the ZeroMQ driver.
	ZMQ ZMQConfig
	// NATS provides configuration for the NATS driver.
	NATS NATSConfig
}

// NewFromDriver constructs a socket Factory by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Factory, error) {
	switch strings.TrimSpace(driver) {
	case DriverZeroMQ:
		return NewZMQFactory(ctx, opts.ZMQ), nil
	case DriverNATS:
		return NewNATSFactory(opts.NATS), nil
	case DriverInproc:
		return NewInprocFactory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
