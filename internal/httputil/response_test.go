package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusConflict, "document 'a' already exists", map[string]interface{}{
		"resource_id": "a",
		"status":      "shadowed",
	})

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != float64(http.StatusConflict) {
		t.Errorf("status member = %v, want 409", got["status"])
	}
	if got["resource_id"] != "a" {
		t.Errorf("resource_id = %v, want a", got["resource_id"])
	}
	if got["type"] != "https://www.rfc-editor.org/rfc/rfc9110#status.409" {
		t.Errorf("type = %v", got["type"])
	}
}

func TestErrorTypeFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "https://www.rfc-editor.org/rfc/rfc9110#status.400"},
		{http.StatusServiceUnavailable, "https://www.rfc-editor.org/rfc/rfc9110#status.503"},
		{http.StatusTeapot, "about:blank"},
	}
	for _, tt := range tests {
		if got := errorTypeFromStatus(tt.status); got != tt.want {
			t.Errorf("errorTypeFromStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
