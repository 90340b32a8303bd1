package wrap

import (
	"context"
	"errors"
)

// Error attaches the current LogCtx to err. An already wrapped error only gets its context refreshed.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	c, ok := ctx.Value(LogCtxKey).(LogCtx)

	var e *ctxError
	if errors.As(err, &e) {
		if ok {
			e.logCtx = c
		}
		return err
	}

	return &ctxError{
		err:    err,
		logCtx: c,
	}
}
