package extraction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutMiddleware_BoundsSlowExtractions(t *testing.T) {
	// Given a collaborator that only returns when its context expires
	mock := newMockExtractor()
	mock.waitOnCtx = true
	wrapped := TimeoutMiddleware(20 * time.Millisecond)(mock)

	// When making a request
	start := time.Now()
	_, err := wrapped.Extract(context.Background(), testRequest())
	elapsed := time.Since(start)

	// Then the call fails with a deadline error well before a second
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, elapsed, time.Second)
}

func TestTimeoutMiddleware_PropagatesDeadline(t *testing.T) {
	// Given a fast collaborator behind the timeout middleware
	mock := newMockExtractor()
	wrapped := TimeoutMiddleware(time.Second)(mock)

	// When making a request without a deadline of its own
	_, err := wrapped.Extract(context.Background(), testRequest())

	// Then the collaborator sees a context with a deadline set
	require.NoError(t, err)
	mock.mu.Lock()
	ctx := mock.lastCtx
	mock.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestTimeoutMiddleware_PassesThroughFastCalls(t *testing.T) {
	// Given a collaborator that responds immediately
	mock := newMockExtractor()
	wrapped := TimeoutMiddleware(time.Second)(mock)

	// When making a request
	response, err := wrapped.Extract(context.Background(), testRequest())

	// Then the response is returned untouched
	require.NoError(t, err)
	assert.Equal(t, "mock-model", response.ModelID)
	require.Len(t, response.Claims, 1)
	assert.Equal(t, "occupation", response.Claims[0].Name)
}
