package wrap

import (
	"context"
	"errors"
)

// ctxError carries the LogCtx that was current where the error was wrapped.
type ctxError struct {
	err    error
	logCtx LogCtx
}

func (e *ctxError) Error() string { return e.err.Error() }

func (e *ctxError) Unwrap() error { return e.err }

// ErrorCtx returns ctx enriched with the LogCtx carried by err. Fields set on
// the error win, the rest keep their value from ctx.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *ctxError
	if !errors.As(err, &e) || e == nil {
		return ctx
	}
	return WithLogCtx(ctx, e.logCtx)
}
