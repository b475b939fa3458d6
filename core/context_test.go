package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuppressHeader(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldSuppressHeader(ctx))
	assert.True(t, shouldSuppressHeader(WithSuppressHeader(ctx)))
	assert.False(t, shouldSuppressHeader(context.WithValue(ctx, suppressHeaderKey, "yes")))
}

func TestRunID(t *testing.T) {
	ctx := context.Background()
	_, ok := RunIDFromContext(ctx)
	assert.False(t, ok)

	id, ok := RunIDFromContext(withRunID(ctx, 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = RunIDFromContext(withRunID(ctx, 0))
	assert.False(t, ok)
}
