package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	alertDomain "signalist/internal/domain/alert"
)

// DefaultClaimLease claim 的預設有效時間。
const DefaultClaimLease = 15 * time.Minute

// Evaluator 對單筆警示取價、判斷並寄送通知。
type Evaluator struct {
	quotes   QuoteFetcher
	notifier Notifier
	ledger   TriggerLedger
	recorder Recorder
	logger   *zap.Logger
	tracer   trace.Tracer
	lease    time.Duration
	now      func() time.Time
}

// NewEvaluator 建立評估器。
func NewEvaluator(quotes QuoteFetcher, notifier Notifier, ledger TriggerLedger, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		quotes:   quotes,
		notifier: notifier,
		ledger:   ledger,
		recorder: nopRecorder{},
		logger:   logger,
		tracer:   otel.Tracer("signalist/alert"),
		lease:    DefaultClaimLease,
		now:      time.Now,
	}
}

// WithLease 設定 claim 的有效時間。
func (e *Evaluator) WithLease(d time.Duration) *Evaluator {
	if d > 0 {
		e.lease = d
	}
	return e
}

// WithRecorder 設定指標記錄器。
func (e *Evaluator) WithRecorder(r Recorder) *Evaluator {
	if r != nil {
		e.recorder = r
	}
	return e
}

// Evaluate 評估一筆警示；只有實際寄出通知時回傳 OutcomeTriggered。
func (e *Evaluator) Evaluate(ctx context.Context, a alertDomain.Alert, email string) (alertDomain.Outcome, error) {
	ctx, span := e.tracer.Start(ctx, "alert.Evaluate", trace.WithAttributes(
		attribute.String("alert.id", a.ID),
		attribute.String("alert.symbol", a.Symbol),
		attribute.String("alert.frequency", string(a.Frequency)),
	))
	defer span.End()

	outcome, err := e.evaluate(ctx, a, email)
	span.SetAttributes(attribute.String("alert.outcome", string(outcome)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	e.recorder.ObserveEvaluation(a.Frequency, outcome)
	return outcome, err
}

func (e *Evaluator) evaluate(ctx context.Context, a alertDomain.Alert, email string) (alertDomain.Outcome, error) {
	if !a.Condition.Valid() {
		return alertDomain.OutcomeSkipped, nil
	}
	price, ok := e.quotes.LatestPrice(ctx, a.Symbol)
	if !ok {
		return alertDomain.OutcomeUnavailable, nil
	}
	if !a.Triggered(price) {
		return alertDomain.OutcomeNotTriggered, nil
	}

	now := e.now().UTC()
	window := a.Frequency.Window(now)
	claimed, err := e.ledger.ClaimWindow(ctx, a.ID, window, now, e.lease)
	if errors.Is(err, ErrWindowClaimed) {
		return alertDomain.OutcomeDuplicate, nil
	}
	if err != nil {
		return alertDomain.OutcomeFailed, fmt.Errorf("claim window %s: %w", window, err)
	}
	if !claimed {
		return alertDomain.OutcomeDuplicate, nil
	}

	payload := alertDomain.NewTriggerPayload(a, email, price, now)
	if err := e.notifier.SendPriceAlert(ctx, a.Condition.Direction(), payload); err != nil {
		if relErr := e.ledger.ReleaseWindow(ctx, a.ID, window); relErr != nil {
			e.logger.Warn("release alert window failed",
				zap.String("alert_id", a.ID), zap.String("window", window), zap.Error(relErr))
		}
		return alertDomain.OutcomeFailed, fmt.Errorf("send price alert: %w", err)
	}

	if err := e.ledger.CommitTrigger(ctx, a.ID, window, now); err != nil {
		e.logger.Error("alert sent but trigger not recorded",
			zap.String("alert_id", a.ID), zap.String("window", window), zap.Error(err))
		return alertDomain.OutcomeFailed, fmt.Errorf("commit trigger: %w", err)
	}
	return alertDomain.OutcomeTriggered, nil
}
