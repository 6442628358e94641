package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractionUnavailable_ClassifiesDeadline(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), CodeTimeout, http.StatusGatewayTimeout},
		{"other", errors.New("connection reset"), CodeExtractionUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ExtractionUnavailable("openai", tt.err)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantStatus, e.HTTPStatus())
			assert.ErrorIs(t, e, tt.err)
			assert.Equal(t, "openai", e.Details["provider"])
		})
	}
}

func TestCause_OmitsCode(t *testing.T) {
	e := SinkUnavailable("google-sheets", errors.New("403 forbidden"))

	assert.Equal(t, "Failed to create task in sheets: 403 forbidden", e.Cause())
	assert.Equal(t, "[SINK_UNAVAILABLE] Failed to create task in sheets: 403 forbidden", e.Error())
	assert.Equal(t, "empty input", ErrEmptyInput.Cause())
}

func TestHelpers(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", InvalidInput("empty input"))

	assert.True(t, IsAppError(wrapped))
	assert.True(t, HasCode(wrapped, CodeInvalidInput))
	assert.False(t, HasCode(wrapped, CodeTimeout))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(wrapped))

	plain := errors.New("plain")
	assert.False(t, IsAppError(plain))
	assert.Equal(t, CodeInternalError, AsAppError(plain).Code)
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(plain))
}
