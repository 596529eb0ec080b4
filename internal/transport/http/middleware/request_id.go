package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"sentra/internal/requestctx"
)

const requestIDHeader = "X-Request-ID"

// maxRequestIDLen caps inbound correlation IDs; anything longer is
// replaced rather than truncated.
const maxRequestIDLen = 128

// RequestID tags every request with a correlation ID. A usable inbound
// X-Request-ID is kept so callers can trace a request across services;
// otherwise a fresh UUID is minted. The ID is echoed on the response and
// stored in the context for the request logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := sanitizeRequestID(r.Header.Get(requestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		ctx := requestctx.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sanitizeRequestID rejects inbound IDs that are empty, oversized, or
// carry characters unsafe for log lines and response headers.
func sanitizeRequestID(raw string) string {
	if raw == "" || len(raw) > maxRequestIDLen {
		return ""
	}
	for _, c := range raw {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '-' || c == '_' || c == '.':
		default:
			return ""
		}
	}
	return raw
}

func GetRequestID(ctx context.Context) string {
	return requestctx.GetRequestID(ctx)
}
