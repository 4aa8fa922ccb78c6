package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	var seenID string
	handler := RequestID(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		zerolog.Ctx(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name     string
		headerID string
	}{
		{"generated", ""},
		{"propagated", "req-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			req := httptest.NewRequest(http.MethodPost, "/pvp.v1.IngestService/IngestLog", nil)
			if tt.headerID != "" {
				req.Header.Set("X-Request-ID", tt.headerID)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			got := rr.Header().Get("X-Request-ID")
			if got == "" || got != seenID {
				t.Fatalf("response ID %q, context ID %q", got, seenID)
			}
			if tt.headerID != "" && got != tt.headerID {
				t.Errorf("request ID = %q, want %q", got, tt.headerID)
			}
			if rr.Code != http.StatusTeapot {
				t.Errorf("status = %d, want %d", rr.Code, http.StatusTeapot)
			}

			logs := buf.String()
			if strings.Count(logs, `"request_id":"`+got+`"`) != 3 {
				t.Errorf("expected 3 log lines tagged with the request ID, got:\n%s", logs)
			}
			if !strings.Contains(logs, `"status":418`) {
				t.Errorf("completion log missing status:\n%s", logs)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	handler := Recover(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}
