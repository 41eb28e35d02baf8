package errors

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"lineupremote/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"malformed", core.NewMalformedError("$.desc", "is required"), CodeInvalidInput, http.StatusBadRequest},
		{"unknown column", core.ErrUnknownColumn, CodeInvalidInput, http.StatusBadRequest},
		{"row not found", core.ErrRowNotFound, CodeNotFound, http.StatusNotFound},
		{"store", core.NewStoreError("query", stderrors.New("refused")), CodeDatabaseError, http.StatusServiceUnavailable},
		{"timeout", core.NewStoreError("query", context.DeadlineExceeded), CodeTimeout, http.StatusGatewayTimeout},
		{"other", stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
		{"app error", ValidationError("bad ids"), CodeValidationError, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomain(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, HTTPStatus(appErr.Code))
		})
	}
}

func TestWrapKeepsCode(t *testing.T) {
	err := Wrap(ConfigInvalid("DATABASE_URL is required"), "failed to load configuration")
	assert.Equal(t, CodeConfigInvalid, GetCode(err))
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Nil(t, FromDomain(nil))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestFromDomainKeepsCause(t *testing.T) {
	cause := core.NewStoreError("count rows", stderrors.New("connection reset"))
	appErr := FromDomain(cause)
	assert.Equal(t, "store unavailable", appErr.Message)
	assert.ErrorIs(t, appErr, core.ErrStoreUnavailable)

	appErr = FromDomain(ValidationError("ids must be integers"))
	assert.Equal(t, CodeValidationError, appErr.Code)
}

func TestNotFound(t *testing.T) {
	appErr := NotFound("route")
	assert.Equal(t, CodeNotFound, appErr.Code)
	assert.Equal(t, "route not found", appErr.Message)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(appErr.Code))
}
