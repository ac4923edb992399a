package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mcdev12/livepoll/go/internal/apperr"
)

func TestError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", apperr.Validation("question is required"), http.StatusBadRequest, "question is required"},
		{"conflict", apperr.Conflict("you have already voted on this poll"), http.StatusConflict, "you have already voted on this poll"},
		{"infrastructure", apperr.Infrastructure(errors.New("dial tcp: refused"), "failed to load poll"), http.StatusServiceUnavailable, apperr.UnavailableMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest(http.MethodGet, "/api/polls", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error != tt.wantBody {
				t.Errorf("error = %q, want %q", body.Error, tt.wantBody)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader(`{"name":"Ada"}`))
	if err := Decode(req, &v); err != nil || v.Name != "Ada" {
		t.Fatalf("Decode() = %v, name %q", err, v.Name)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader(`{"name":`))
	if err := Decode(req, &v); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
