package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSettlement(t *testing.T) {
	before := testutil.ToFloat64(SettledGrossAmount.WithLabelValues("TEST", "CRC"))

	RecordSettlement("TEST", "CRC", "COMPLETED", 1000)
	RecordSettlement("TEST", "CRC", "DUPLICATE", 0)

	if got := testutil.ToFloat64(SettledGrossAmount.WithLabelValues("TEST", "CRC")) - before; got != 1000 {
		t.Fatalf("expected settled amount to grow by 1000, got %v", got)
	}
	if got := testutil.ToFloat64(SettlementsTotal.WithLabelValues("TEST", "DUPLICATE")); got < 1 {
		t.Fatalf("duplicate settlement not counted")
	}
}

func TestRecordQuote_ErrorSkipsAmount(t *testing.T) {
	RecordQuote("TEST", "XL", 0, errors.New("boom"))

	if got := testutil.ToFloat64(FareQuotesTotal.WithLabelValues("TEST", "XL", "error")); got < 1 {
		t.Fatalf("failed quote not counted")
	}
	if n := testutil.CollectAndCount(FareQuoteAmount); n != 0 {
		t.Fatalf("failed quote must not be observed, got %d series", n)
	}
}
