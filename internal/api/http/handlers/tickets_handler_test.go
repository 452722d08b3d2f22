package handlers

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/support-desk/internal/repository"
)

func TestPageWindow(t *testing.T) {
	limit, offset := pageWindow(1, 20)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = pageWindow(3, 20)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 40, offset)

	// Oversized pages are clamped before the offset is derived.
	limit, offset = pageWindow(2, 500)
	assert.Equal(t, repository.MaxPageSize, limit)
	assert.Equal(t, repository.MaxPageSize, offset)

	limit, offset = pageWindow(math.MaxInt, 1)
	assert.Equal(t, 1, limit)
	assert.LessOrEqual(t, offset, math.MaxInt32)
	assert.GreaterOrEqual(t, offset, 0)
}
