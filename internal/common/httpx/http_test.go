package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/trackcatalog/internal/common/apperrors"
)

func TestWrapHttpRsp(t *testing.T) {
	ErrKnown := apperrors.New("type not found").SetStatusCode(http.StatusBadRequest).SetCode("UnknownType")

	tests := []struct {
		name       string
		handler    RequestHandler
		wantStatus int
		wantKind   string
		wantError  string
	}{
		{
			name: "success",
			handler: func(r *http.Request) (*Response, error) {
				return &Response{StatusCode: http.StatusCreated, Response: map[string]string{"track_id": "abc"}}, nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "app error",
			handler: func(r *http.Request) (*Response, error) {
				return nil, ErrKnown.Msg("Type(s) not found: foo")
			},
			wantStatus: http.StatusBadRequest,
			wantKind:   "UnknownType",
			wantError:  "Type(s) not found: foo",
		},
		{
			name: "plain error",
			handler: func(r *http.Request) (*Response, error) {
				return nil, errors.New("boom")
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "boom",
		},
		{
			name: "no content",
			handler: func(r *http.Request) (*Response, error) {
				return &Response{StatusCode: http.StatusNoContent}, nil
			},
			wantStatus: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			WrapHttpRsp(tt.handler)(rr, req)
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantError == "" {
				return
			}
			var rsp ErrorRsp
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rsp))
			assert.Equal(t, Failure, rsp.Result)
			assert.Equal(t, tt.wantError, rsp.Error)
			assert.Equal(t, tt.wantKind, rsp.Kind)
		})
	}
}
