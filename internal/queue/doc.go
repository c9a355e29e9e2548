// Package queue exposes a single logical queue over a pub/sub socket
// transport.
//
// A Provider owns one publish and one subscribe socket for a named queue,
// manages their asynchronous setup, and translates application messages
// to and from wire payloads. Lifecycle and data events are emitted to a
// caller-supplied sink; after construction the provider never returns
// errors directly.
package queue
