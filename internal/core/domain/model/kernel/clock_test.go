package kernel_test

import (
	"testing"
	"time"

	"shipping/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
)

func TestFixedClock(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	clock := kernel.FixedClock(at)

	assert.Equal(t, at, clock())
	assert.Equal(t, at, clock())
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	now := kernel.SystemClock()

	assert.Equal(t, time.UTC, now.Location())
	assert.False(t, now.Before(before.Truncate(time.Second)))
}
