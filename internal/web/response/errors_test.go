package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/conduit-lang/wirequery/internal/query/errors"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRenderQueryError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		error   string
		code    string
		details map[string]any
	}{
		{
			name:    "parse error",
			err:     qerrors.NewParseError(qerrors.ErrUnexpectedToken, 6, "gt", "expected an expression"),
			status:  http.StatusBadRequest,
			error:   "invalid_query",
			code:    "PRS002",
			details: map[string]any{"position": float64(6), "near": "gt"},
		},
		{
			name:   "wrapped compile error",
			err:    fmt.Errorf("translate: %w", qerrors.Compilef(qerrors.ErrNestedQuery, "nested")),
			status: http.StatusBadRequest,
			error:  "untranslatable_query",
			code:   "CMP102",
		},
		{
			name:   "other error",
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			error:  "internal_error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RenderQueryError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
			body := decode(t, rec)
			assert.Equal(t, tt.error, body.Error)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.details, body.Details)
		})
	}
}

func TestRenderNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderNotFound(rec, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not_found", body.Error)
	assert.Equal(t, "Resource not found", body.Message)
}
