package wrap

import (
	"context"
	"errors"
	"testing"
)

func TestError_Nil(t *testing.T) {
	if Error(context.Background(), nil) != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}

func TestError_KeepsSentinel(t *testing.T) {
	sentinel := errors.New("quote expired")
	ctx := WithQuoteID(context.Background(), "q-1")

	err := Error(ctx, sentinel)
	if !errors.Is(err, sentinel) {
		t.Fatalf("wrapped error must match sentinel")
	}

	// wrapping twice refreshes the context without nesting
	ctx2 := WithAction(ctx, "adjust")
	again := Error(ctx2, err)
	if again != err {
		t.Fatalf("expected the same wrapper back")
	}

	lc := ErrorCtx(context.Background(), again).Value(LogCtxKey).(LogCtx)
	if lc.Action != "adjust" || lc.QuoteID != "q-1" {
		t.Fatalf("unexpected log ctx %+v", lc)
	}
}

func TestWithLogCtx_Merge(t *testing.T) {
	ctx := WithLogCtx(context.Background(), LogCtx{Action: "a", RequestID: "r"})
	ctx = WithLogCtx(ctx, LogCtx{Action: "b", TripID: "t"})

	lc := ctx.Value(LogCtxKey).(LogCtx)
	if lc.Action != "b" || lc.RequestID != "r" || lc.TripID != "t" {
		t.Fatalf("unexpected merge result %+v", lc)
	}
	if RequestID(ctx) != "r" {
		t.Fatalf("expected request id r")
	}
}

func TestErrorCtx_KeepsCallerFields(t *testing.T) {
	err := Error(WithQuoteID(context.Background(), "q-7"), errors.New("boom"))

	ctx := ErrorCtx(WithRequestID(context.Background(), "req-1"), err)
	lc := ctx.Value(LogCtxKey).(LogCtx)
	if lc.QuoteID != "q-7" || lc.RequestID != "req-1" {
		t.Fatalf("unexpected log ctx %+v", lc)
	}

	plain := context.Background()
	if ErrorCtx(plain, errors.New("plain")) != plain {
		t.Fatalf("plain error must not change ctx")
	}
}
