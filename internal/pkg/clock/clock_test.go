package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystemNow(t *testing.T) {
	before := time.Now()
	now := NewSystem().Now()
	after := time.Now()

	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestFixedNow(t *testing.T) {
	at := time.Date(2026, time.August, 23, 10, 0, 0, 0, time.UTC)
	c := NewFixed(at)

	assert.Equal(t, at, c.Now())
	assert.Equal(t, at, c.Now())
}
