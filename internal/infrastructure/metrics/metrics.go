package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	alertDomain "signalist/internal/domain/alert"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

var (
	alertEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalist_alert_evaluations_total",
			Help: "Price alert evaluations by frequency and outcome",
		},
		[]string{"frequency", "outcome"},
	)
	emailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalist_emails_sent_total",
			Help: "Outgoing emails by template and status",
		},
		[]string{"template", "status"},
	)
	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalist_job_runs_total",
			Help: "Scheduled job runs by job and status",
		},
		[]string{"job", "status"},
	)
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signalist_job_duration_seconds",
			Help:    "Scheduled job duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"job"},
	)
	cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalist_cache_requests_total",
			Help: "Market data cache lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(alertEvaluations, emailsSent, jobRuns, jobDuration, cacheRequests)
}

// Recorder 將應用層事件寫入 Prometheus。
type Recorder struct{}

// NewRecorder 建立 Recorder。
func NewRecorder() Recorder { return Recorder{} }

func (Recorder) ObserveEvaluation(freq alertDomain.Frequency, outcome alertDomain.Outcome) {
	alertEvaluations.WithLabelValues(string(freq), string(outcome)).Inc()
}

func (Recorder) ObserveJob(name string, err error, d time.Duration) {
	jobRuns.WithLabelValues(name, status(err)).Inc()
	jobDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (Recorder) ObserveEmail(template string, err error) {
	emailsSent.WithLabelValues(template, status(err)).Inc()
}

func (Recorder) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheRequests.WithLabelValues(result).Inc()
}

func status(err error) string {
	if err != nil {
		return statusError
	}
	return statusOK
}

// Serve 在 addr 提供 /metrics，ctx 結束時關閉。
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
