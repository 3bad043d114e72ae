package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type StorageMetrics struct {
	OperationDuration *prometheus.HistogramVec
	SkippedLines      *prometheus.CounterVec
}

type BusinessMetrics struct {
	LoansOpened    *prometheus.CounterVec
	LoansReturned  *prometheus.CounterVec
	LoanRejections *prometheus.CounterVec
	FinesCharged   *prometheus.CounterVec
	FinesPaid      prometheus.Counter
	OverdueLoans   prometheus.Gauge
	Reminders      *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_engine_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "library_engine_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	Storage = StorageMetrics{
		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "library_engine_storage_operation_duration_seconds",
				Help:    "Histogram of flat-file read and write latencies.",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"file", "operation", "status"},
		),
		SkippedLines: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_engine_storage_skipped_lines_total",
				Help: "Malformed persisted lines skipped while loading.",
			},
			[]string{"file"},
		),
	}

	Business = BusinessMetrics{
		LoansOpened: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_engine_loans_opened_total",
				Help: "Total number of loans opened.",
			},
			[]string{"kind"},
		),
		LoansReturned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_engine_loans_returned_total",
				Help: "Total number of loans returned.",
			},
			[]string{"kind"},
		),
		LoanRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_engine_loan_rejections_total",
				Help: "Borrow attempts rejected by a business rule.",
			},
			[]string{"kind", "reason"},
		),
		FinesCharged: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_engine_fines_charged_total",
				Help: "Sum of fines charged on late returns.",
			},
			[]string{"kind"},
		),
		FinesPaid: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "library_engine_fines_paid_total",
				Help: "Sum of fine payments applied to user balances.",
			},
		),
		OverdueLoans: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "library_engine_overdue_loans",
				Help: "Overdue loans found by the most recent reminder run.",
			},
		),
		Reminders: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "library_engine_reminders_total",
				Help: "Reminder deliveries per channel and outcome.",
			},
			[]string{"channel", "status"},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordStorageOperation(file, operation, status string, duration time.Duration) {
	Storage.OperationDuration.WithLabelValues(file, operation, status).Observe(duration.Seconds())
}

func RecordSkippedLines(file string, count int) {
	if count > 0 {
		Storage.SkippedLines.WithLabelValues(file).Add(float64(count))
	}
}

func RecordLoanOpened(kind string) {
	Business.LoansOpened.WithLabelValues(kind).Inc()
}

func RecordLoanReturned(kind string) {
	Business.LoansReturned.WithLabelValues(kind).Inc()
}

func RecordLoanRejected(kind, reason string) {
	Business.LoanRejections.WithLabelValues(kind, reason).Inc()
}

func RecordFineCharged(kind string, amount float64) {
	if amount > 0 {
		Business.FinesCharged.WithLabelValues(kind).Add(amount)
	}
}

func RecordFinePaid(amount float64) {
	if amount > 0 {
		Business.FinesPaid.Add(amount)
	}
}

func SetOverdueLoans(count int) {
	Business.OverdueLoans.Set(float64(count))
}

func RecordReminder(channel, status string) {
	Business.Reminders.WithLabelValues(channel, status).Inc()
}
