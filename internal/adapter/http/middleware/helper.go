package middleware

import (
	"encoding/json"
	"net/http"

	wrap "github.com/kompa2go/kommute-fare/pkg/logger/wrapper"
)

type envelope map[string]any

// errorResponse writes {"error": message, "request_id": id}.
func errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{"error": message}
	if id := wrap.RequestID(r.Context()); id != "" {
		env["request_id"] = id
	}

	js, err := json.Marshal(env)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}
