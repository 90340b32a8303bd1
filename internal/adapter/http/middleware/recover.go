package middleware

import (
	"fmt"
	"net/http"

	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

func (app *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				err := fmt.Errorf("panic: %v", p)
				app.log.Error(wrap.WithAction(r.Context(), "http_recover"), "recovered from panic", err,
					"method", r.Method,
					"path", r.URL.Path,
				)

				w.Header().Set("Connection", "close")
				errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
