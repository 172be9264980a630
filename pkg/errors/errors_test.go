package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := &Error{Type: ErrorTypeServerError, Code: 503, Message: "unavailable"}
	assert.Equal(t, "server_error error (code 503): unavailable", err.Error())

	wrapped := Wrap(ErrorTypeStorageUnavailable, stderrors.New("disk full"), "write %s", "2024-03-09")
	assert.Equal(t, "storage_unavailable error: write 2024-03-09: disk full", wrapped.Error())
}

func TestIsFollowsChain(t *testing.T) {
	cause := New(ErrorTypeStorageUnavailable, "rename failed")
	err := fmt.Errorf("persist unit: %w", Wrap(ErrorTypeSource, cause, "outer"))

	assert.True(t, Is(err, ErrorTypeSource))
	assert.True(t, Is(err, ErrorTypeStorageUnavailable))
	assert.False(t, Is(err, ErrorTypeInvalidRange))
	assert.False(t, Is(nil, ErrorTypeSource))
	assert.Equal(t, ErrorTypeSource, TypeOf(err))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrorTypeInvalidRange, "end before start")))
	assert.True(t, IsFatal(fmt.Errorf("x: %w", New(ErrorTypeStorageUnavailable, "ro"))))
	assert.False(t, IsFatal(New(ErrorTypeEmptyPage, "")))
	assert.False(t, IsFatal(New(ErrorTypeCorruptCheckpoint, "bad json")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeSource, true},
		{ErrorTypeEmptyPage, false},
		{ErrorTypeParsing, false},
		{ErrorTypeInvalidRange, false},
		{ErrorTypeStorageUnavailable, false},
		{ErrorTypeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errType))
		})
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(503))
	assert.True(t, IsRetryableStatusCode(599))
	assert.False(t, IsRetryableStatusCode(400))
	assert.False(t, IsRetryableStatusCode(404))
}
