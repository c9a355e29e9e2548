package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// encodePayload converts an application message into its wire payload.
//
// Byte buffers become base64 text, strings pass through unchanged, and
// anything else is serialized as JSON. The three categories are mutually
// exclusive on the wire because the receiver decodes with the matching
// Message accessor.
func encodePayload(message any) ([]byte, error) {
	switch m := message.(type) {
	case []byte:
		return []byte(base64.StdEncoding.EncodeToString(m)), nil
	case string:
		return []byte(m), nil
	case json.RawMessage:
		return []byte(m), nil
	default:
		payload, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("queue: encode payload: %w", err)
		}
		return payload, nil
	}
}

// Message wraps the payload of one inbound frame.
//
// Decoding mirrors whatever the publisher encoded, so the receiver picks
// the accessor matching the type it expects: Text for plain text, Bytes
// for a base64 buffer, Decode for a JSON value.
type Message struct {
	payload []byte
}

// NewMessage wraps a raw wire payload.
func NewMessage(payload []byte) Message {
	return Message{payload: payload}
}

// Raw returns the payload exactly as it arrived on the wire.
func (m Message) Raw() []byte {
	return m.payload
}

// Text returns the payload as plain text.
func (m Message) Text() string {
	return string(m.payload)
}

// Bytes decodes the payload as a base64 byte buffer.
func (m Message) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(string(m.payload))
	if err != nil {
		return nil, fmt.Errorf("queue: decode payload: %w", err)
	}
	return data, nil
}

// Decode unmarshals the payload as JSON into v.
func (m Message) Decode(v any) error {
	if err := json.Unmarshal(m.payload, v); err != nil {
		return fmt.Errorf("queue: decode payload: %w", err)
	}
	return nil
}
