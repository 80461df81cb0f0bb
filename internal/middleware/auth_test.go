package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xelth-com/eckscan/internal/utils"
)

func okHandler(t *testing.T, wantTerminal string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := utils.TerminalID(Claims(r.Context())); got != wantTerminal {
			t.Errorf("terminal claim = %q, want %q", got, wantTerminal)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthDisabledWithoutSecret(t *testing.T) {
	h := Auth("")(okHandler(t, ""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/bins", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestAuthRequiresValidBearer(t *testing.T) {
	const secret = "s3cret"
	h := Auth(secret)(okHandler(t, "T1"))
	token, err := utils.GenerateTerminalToken("T1", secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"bad format", "Token " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/bins", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
