package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	alertDomain "signalist/internal/domain/alert"
)

// DefaultConcurrency 同時評估的警示數量。
const DefaultConcurrency = 4

// BatchSource 依頻率載入待評估的警示。
type BatchSource interface {
	ListByFrequency(ctx context.Context, freq alertDomain.Frequency) ([]alertDomain.Alert, error)
}

// AlertEvaluator 評估單筆警示。
type AlertEvaluator interface {
	Evaluate(ctx context.Context, a alertDomain.Alert, email string) (alertDomain.Outcome, error)
}

// Summary 一次執行的統計。
type Summary struct {
	Frequency    alertDomain.Frequency
	Total        int
	Triggered    int
	NotTriggered int
	Unavailable  int
	Skipped      int
	Duplicate    int
	Failed       int
	StartedAt    time.Time
	Duration     time.Duration
}

func (s *Summary) add(o alertDomain.Outcome) {
	switch o {
	case alertDomain.OutcomeTriggered:
		s.Triggered++
	case alertDomain.OutcomeNotTriggered:
		s.NotTriggered++
	case alertDomain.OutcomeUnavailable:
		s.Unavailable++
	case alertDomain.OutcomeSkipped:
		s.Skipped++
	case alertDomain.OutcomeDuplicate:
		s.Duplicate++
	default:
		s.Failed++
	}
}

// Engine 依頻率執行所有警示並寄出通知。
type Engine struct {
	alerts      BatchSource
	owners      OwnerResolver
	evaluator   AlertEvaluator
	logger      *zap.Logger
	tracer      trace.Tracer
	concurrency int
	now         func() time.Time
}

// NewEngine 建立警示引擎。
func NewEngine(alerts BatchSource, owners OwnerResolver, evaluator AlertEvaluator, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		alerts:      alerts,
		owners:      owners,
		evaluator:   evaluator,
		logger:      logger,
		tracer:      otel.Tracer("signalist/alert"),
		concurrency: DefaultConcurrency,
		now:         time.Now,
	}
}

// WithConcurrency 設定同時評估數量，<=0 使用預設值。
func (e *Engine) WithConcurrency(n int) *Engine {
	if n > 0 {
		e.concurrency = n
	}
	return e
}

// Run 評估指定頻率的所有警示；單筆失敗不中斷批次，只有載入失敗回傳錯誤。
func (e *Engine) Run(ctx context.Context, freq alertDomain.Frequency) (Summary, error) {
	summary := Summary{Frequency: freq, StartedAt: e.now().UTC()}
	if !freq.Valid() {
		return summary, fmt.Errorf("unsupported frequency: %q", freq)
	}

	ctx, span := e.tracer.Start(ctx, "alert.Run", trace.WithAttributes(attribute.String("alert.frequency", string(freq))))
	defer span.End()

	alerts, err := e.alerts.ListByFrequency(ctx, freq)
	if err != nil {
		span.RecordError(err)
		return summary, fmt.Errorf("list alerts by frequency: %w", err)
	}
	summary.Total = len(alerts)
	if len(alerts) == 0 {
		e.logger.Info("no alerts to evaluate", zap.String("frequency", string(freq)))
		return summary, nil
	}

	emails, err := e.owners.ResolveEmails(ctx, ownerIDs(alerts))
	if err != nil {
		// 無法解析擁有者時整批視為略過，不寄送
		e.logger.Error("resolve alert owners failed", zap.String("frequency", string(freq)), zap.Error(err))
		emails = map[string]string{}
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.concurrency)
	for _, a := range alerts {
		email, ok := emails[a.UserID]
		if !ok || email == "" {
			e.logger.Warn("alert owner not found, skipping",
				zap.String("alert_id", a.ID), zap.String("user_id", a.UserID))
			mu.Lock()
			summary.add(alertDomain.OutcomeSkipped)
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			outcome, err := e.evaluator.Evaluate(ctx, a, email)
			if err != nil {
				e.logger.Warn("alert evaluation failed",
					zap.String("alert_id", a.ID), zap.String("symbol", a.Symbol), zap.Error(err))
			}
			mu.Lock()
			summary.add(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = e.now().UTC().Sub(summary.StartedAt)
	span.SetAttributes(
		attribute.Int("alert.total", summary.Total),
		attribute.Int("alert.triggered", summary.Triggered),
		attribute.Int("alert.failed", summary.Failed),
	)
	e.logger.Info("alert run finished",
		zap.String("frequency", string(freq)),
		zap.Int("total", summary.Total),
		zap.Int("triggered", summary.Triggered),
		zap.Int("not_triggered", summary.NotTriggered),
		zap.Int("unavailable", summary.Unavailable),
		zap.Int("skipped", summary.Skipped),
		zap.Int("duplicate", summary.Duplicate),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

func ownerIDs(alerts []alertDomain.Alert) []string {
	seen := make(map[string]struct{}, len(alerts))
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		if a.UserID == "" {
			continue
		}
		if _, ok := seen[a.UserID]; ok {
			continue
		}
		seen[a.UserID] = struct{}{}
		out = append(out, a.UserID)
	}
	return out
}
