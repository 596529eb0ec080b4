package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runRequestID(t *testing.T, inbound string) (echoed, inContext string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inContext = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/lifecycle/status", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Header().Get("X-Request-ID"), inContext
}

func TestRequestIDKeepsUsableInboundID(t *testing.T) {
	echoed, inContext := runRequestID(t, "trace-abc_123.7")
	if echoed != "trace-abc_123.7" || inContext != "trace-abc_123.7" {
		t.Fatalf("echoed = %q, context = %q, want the inbound ID kept", echoed, inContext)
	}
}

func TestRequestIDMintsWhenHeaderAbsent(t *testing.T) {
	echoed, inContext := runRequestID(t, "")
	if echoed == "" || echoed != inContext {
		t.Fatalf("echoed = %q, context = %q, want a minted ID on both", echoed, inContext)
	}
}

func TestRequestIDReplacesUnsafeInboundID(t *testing.T) {
	echoed, _ := runRequestID(t, "bad id\nwith newline")
	if echoed == "" || strings.Contains(echoed, "\n") || strings.Contains(echoed, " ") {
		t.Fatalf("echoed = %q, unsafe inbound IDs must be replaced", echoed)
	}
}

func TestRequestIDReplacesOversizedInboundID(t *testing.T) {
	oversized := strings.Repeat("a", maxRequestIDLen+1)
	echoed, _ := runRequestID(t, oversized)
	if echoed == oversized {
		t.Fatal("oversized inbound ID must be replaced")
	}
}
