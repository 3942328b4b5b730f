package http_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/sendfile"
	sendhttp "github.com/sagarc03/sendfile/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	sendhttp.WriteError(rec, http.StatusBadRequest, "invalid_path", "Invalid path")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body sendhttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_path", body.Error)
	assert.Equal(t, "Invalid path", body.Message)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "not found", err: &sendfile.Error{Status: http.StatusNotFound, Kind: sendfile.ErrNotFound, Cause: fs.ErrNotExist}, status: http.StatusNotFound, code: "not_found"},
		{name: "forbidden", err: &sendfile.Error{Status: http.StatusForbidden, Kind: sendfile.ErrForbidden}, status: http.StatusForbidden, code: "forbidden"},
		{name: "bad request", err: &sendfile.Error{Status: http.StatusBadRequest, Kind: sendfile.ErrBadRequest}, status: http.StatusBadRequest, code: "invalid_path"},
		{name: "precondition", err: &sendfile.Error{Status: http.StatusPreconditionFailed, Kind: sendfile.ErrPreconditionFailed}, status: http.StatusPreconditionFailed, code: "precondition_failed"},
		{name: "wrapped", err: fmt.Errorf("send: %w", &sendfile.Error{Status: http.StatusNotFound, Kind: sendfile.ErrNotFound}), status: http.StatusNotFound, code: "not_found"},
		{name: "plain error", err: errors.New("some unexpected error"), status: http.StatusInternalServerError, code: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			sendhttp.HandleError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	err := sendhttp.WriteJSON(rec, http.StatusOK, map[string]int{"size": 9})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"size":9}`, rec.Body.String())
}

func TestErrorHook(t *testing.T) {
	hook, err := sendhttp.ErrorHook(sendhttp.ErrorFormatText)
	assert.NoError(t, err)
	assert.Nil(t, hook)

	hook, err = sendhttp.ErrorHook(sendhttp.ErrorFormatJSON)
	assert.NoError(t, err)
	assert.NotNil(t, hook)

	_, err = sendhttp.ErrorHook("xml")
	assert.ErrorIs(t, err, sendhttp.ErrUnknownErrorFormat)
}

func TestErrorHook_HeadersSentWritesNothing(t *testing.T) {
	for _, format := range []sendhttp.ErrorFormat{sendhttp.ErrorFormatJSON, sendhttp.ErrorFormatHTML} {
		hook, err := sendhttp.ErrorHook(format)
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		rec.Header().Set("Content-Length", "9")
		hook(rec, httptest.NewRequest(http.MethodGet, "/a", nil), &sendfile.Error{
			Status:      http.StatusInternalServerError,
			Kind:        sendfile.ErrInternal,
			HeadersSent: true,
		})

		assert.Equal(t, "9", rec.Header().Get("Content-Length"), format)
		assert.Empty(t, rec.Body.String(), format)
	}
}
