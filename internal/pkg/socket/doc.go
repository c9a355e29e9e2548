// Package socket provides a transport-agnostic pub/sub socket API.
//
// The goal is to keep queue code independent from the underlying wire
// transport (ZeroMQ, NATS, in-process, etc). You can swap implementations
// without changing provider code, as long as it relies on the interfaces
// in this package.
package socket
