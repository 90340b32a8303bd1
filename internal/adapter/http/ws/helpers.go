package wshandler

import (
	"github.com/kompa2go/kommute-fare/internal/adapter/http/handler"
	ws "github.com/kompa2go/kommute-fare/pkg/wsHub"
)

func errorResponse(conn *ws.Conn, message any) error {
	return conn.Send(map[string]any{
		"type":  "error",
		"error": message,
	})
}

// serviceErrorResponse uses the same status codes as the REST routes.
func serviceErrorResponse(conn *ws.Conn, err error) error {
	return conn.Send(map[string]any{
		"type":  "error",
		"code":  handler.GetCode(err),
		"error": handler.ErrorMessage(err),
	})
}

func failedValidationResponse(conn *ws.Conn, errors map[string]string) error {
	return errorResponse(conn, errors)
}
