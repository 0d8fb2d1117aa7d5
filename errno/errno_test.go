package errno_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/splinterhq/libsplinter/errno"
	"github.com/stretchr/testify/assert"
)

func TestRetryable(t *testing.T) {
	assert.True(t, errno.Retryable(errno.ErrWriterInProgress))
	assert.True(t, errno.Retryable(errno.ErrTornSnapshot))
	assert.False(t, errno.Retryable(errno.ErrNotFound))
	assert.False(t, errno.Retryable(nil))
}

func TestRetryableThroughWrap(t *testing.T) {
	wrapped := fmt.Errorf("probing %q: %w", "k1", errno.ErrWriterInProgress)
	assert.True(t, errno.Retryable(wrapped))
	assert.True(t, errors.Is(wrapped, errno.ErrWriterInProgress))
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "not found", errno.ErrNotFound.Error())
	assert.Equal(t, "buffer too small", errno.ErrBufferTooSmall.Error())
}
