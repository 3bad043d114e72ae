package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLoanOpened(t *testing.T) {
	before := testutil.ToFloat64(Business.LoansOpened.WithLabelValues("cd"))
	RecordLoanOpened("cd")
	RecordLoanOpened("cd")
	assert.Equal(t, before+2, testutil.ToFloat64(Business.LoansOpened.WithLabelValues("cd")))
}

func TestRecordFineCharged_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(Business.FinesCharged.WithLabelValues("book"))
	RecordFineCharged("book", 0)
	RecordFineCharged("book", 30)
	assert.Equal(t, before+30, testutil.ToFloat64(Business.FinesCharged.WithLabelValues("book")))
}

func TestSetOverdueLoans(t *testing.T) {
	SetOverdueLoans(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(Business.OverdueLoans))
}

func TestRecordSkippedLines(t *testing.T) {
	before := testutil.ToFloat64(Storage.SkippedLines.WithLabelValues("users.txt"))
	RecordSkippedLines("users.txt", 0)
	RecordSkippedLines("users.txt", 2)
	assert.Equal(t, before+2, testutil.ToFloat64(Storage.SkippedLines.WithLabelValues("users.txt")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTP.RequestsTotal.WithLabelValues("GET", "/books", "OK"))
	RecordHTTPRequest("GET", "/books", "OK", 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTP.RequestsTotal.WithLabelValues("GET", "/books", "OK")))
}
