package instrument

import (
	"context"

	"github.com/google/uuid"
)

type correlationIDKey struct{}

// NewCorrelationID generates a fresh correlation ID.
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID stores a correlation ID in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the correlation ID carried by the context, or
// an empty string.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
