package wrap

import (
	"context"
)

type (
	// LogCtx holds contextual information for logging
	LogCtx struct {
		Action    string
		UserID    string
		RequestID string
		QuoteID   string
		TripID    string
	}

	logCtxKeyStruct struct{}
)

// LogCtxKey is the key for log context values
var LogCtxKey = &logCtxKeyStruct{}

func fromCtx(ctx context.Context) LogCtx {
	lc, _ := ctx.Value(LogCtxKey).(LogCtx)
	return lc
}

// WithLogCtx merges newLc into the LogCtx already stored in ctx. Empty fields keep the old value.
func WithLogCtx(ctx context.Context, newLc LogCtx) context.Context {
	lc := fromCtx(ctx)
	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&lc.Action, newLc.Action)
	merge(&lc.UserID, newLc.UserID)
	merge(&lc.RequestID, newLc.RequestID)
	merge(&lc.QuoteID, newLc.QuoteID)
	merge(&lc.TripID, newLc.TripID)

	return context.WithValue(ctx, LogCtxKey, lc)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return WithLogCtx(ctx, LogCtx{UserID: userID})
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return WithLogCtx(ctx, LogCtx{RequestID: requestID})
}

func WithQuoteID(ctx context.Context, quoteID string) context.Context {
	return WithLogCtx(ctx, LogCtx{QuoteID: quoteID})
}

func WithTripID(ctx context.Context, tripID string) context.Context {
	return WithLogCtx(ctx, LogCtx{TripID: tripID})
}

// WithAction adds or updates the Action in the LogCtx within the context
func WithAction(ctx context.Context, action string) context.Context {
	return WithLogCtx(ctx, LogCtx{Action: action})
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) string {
	return fromCtx(ctx).RequestID
}
