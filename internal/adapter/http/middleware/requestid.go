package middleware

import (
	"net/http"

	"github.com/google/uuid"

	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

const headerRequestID = "X-Request-ID"

// RequestID takes the caller's X-Request-ID or generates one. The id ends up
// in every log line and in the correlation id of published events.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(wrap.WithRequestID(r.Context(), id)))
	})
}
