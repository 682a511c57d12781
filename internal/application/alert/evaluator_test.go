package alert

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	alertDomain "signalist/internal/domain/alert"
)

var evalNow = time.Date(2026, 10, 14, 13, 0, 5, 0, time.UTC)

func newTestEvaluator(quotes *fakeQuotes, notifier *fakeNotifier, ledger *fakeLedger) *Evaluator {
	e := NewEvaluator(quotes, notifier, ledger, nil)
	e.now = func() time.Time { return evalNow }
	return e
}

func sampleAlert() alertDomain.Alert {
	return alertDomain.Alert{
		ID:        "a1",
		UserID:    "u1",
		Symbol:    "AAPL",
		Company:   "Apple Inc.",
		AlertName: "Apple above 150",
		AlertType: alertDomain.TypePrice,
		Condition: alertDomain.ConditionGreater,
		Threshold: 150,
		Frequency: alertDomain.FrequencyDay,
	}
}

func TestEvaluator_TriggersAndCommits(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 152.34}}
	notifier := &fakeNotifier{}
	ledger := newFakeLedger()

	outcome, err := newTestEvaluator(quotes, notifier, ledger).Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != alertDomain.OutcomeTriggered {
		t.Fatalf("expected triggered, got %s", outcome)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.sent))
	}
	sent := notifier.sent[0]
	if sent.dir != alertDomain.DirectionUpper {
		t.Errorf("expected upper template, got %s", sent.dir)
	}
	want := alertDomain.TriggerPayload{
		Email:        "a@example.com",
		Symbol:       "AAPL",
		Company:      "Apple Inc.",
		CurrentPrice: "$152.34",
		TargetPrice:  "$150.00",
		Timestamp:    "Wed, 14 Oct 2026 13:00:05 GMT",
	}
	if sent.payload != want {
		t.Errorf("payload mismatch: %+v", sent.payload)
	}
	if got := ledger.triggered["a1"]; !got.Equal(evalNow) {
		t.Errorf("expected last triggered %v, got %v", evalNow, got)
	}
	if ledger.notified["a1"] != "2026-10-14" {
		t.Errorf("expected window committed, got %q", ledger.notified["a1"])
	}
}

func TestEvaluator_LessUsesLowerTemplate(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 149.99}}
	notifier := &fakeNotifier{}
	a := sampleAlert()
	a.Condition = alertDomain.ConditionLess

	outcome, err := newTestEvaluator(quotes, notifier, newFakeLedger()).Evaluate(context.Background(), a, "a@example.com")
	if err != nil || outcome != alertDomain.OutcomeTriggered {
		t.Fatalf("expected triggered, got %s err=%v", outcome, err)
	}
	if notifier.sent[0].dir != alertDomain.DirectionLower {
		t.Errorf("expected lower template, got %s", notifier.sent[0].dir)
	}
}

func TestEvaluator_NoSideEffects(t *testing.T) {
	cases := []struct {
		name      string
		prices    map[string]float64
		threshold float64
		want      alertDomain.Outcome
	}{
		{"equal price", map[string]float64{"AAPL": 150}, 150, alertDomain.OutcomeNotTriggered},
		{"below threshold", map[string]float64{"AAPL": 149}, 150, alertDomain.OutcomeNotTriggered},
		{"unavailable", map[string]float64{}, 150, alertDomain.OutcomeUnavailable},
		{"nan threshold", map[string]float64{"AAPL": 200}, math.NaN(), alertDomain.OutcomeNotTriggered},
		{"inf threshold", map[string]float64{"AAPL": 200}, math.Inf(-1), alertDomain.OutcomeNotTriggered},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			notifier := &fakeNotifier{}
			ledger := newFakeLedger()
			a := sampleAlert()
			a.Threshold = tc.threshold

			outcome, err := newTestEvaluator(&fakeQuotes{prices: tc.prices}, notifier, ledger).Evaluate(context.Background(), a, "a@example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome != tc.want {
				t.Errorf("expected %s, got %s", tc.want, outcome)
			}
			if len(notifier.sent) != 0 || len(ledger.triggered) != 0 || len(ledger.claims) != 0 {
				t.Errorf("expected no side effects")
			}
		})
	}
}

func TestEvaluator_SameWindowSendsOnce(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 160}}
	notifier := &fakeNotifier{}
	ledger := newFakeLedger()
	e := newTestEvaluator(quotes, notifier, ledger)

	first, _ := e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	second, err := e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != alertDomain.OutcomeTriggered || second != alertDomain.OutcomeDuplicate {
		t.Fatalf("expected triggered then duplicate, got %s then %s", first, second)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected exactly one send, got %d", len(notifier.sent))
	}

	// 下一個區間重新觸發
	e.now = func() time.Time { return evalNow.Add(24 * time.Hour) }
	third, _ := e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if third != alertDomain.OutcomeTriggered || len(notifier.sent) != 2 {
		t.Errorf("expected next window to trigger, got %s sends=%d", third, len(notifier.sent))
	}
}

func TestEvaluator_SendFailureReleasesClaim(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 160}}
	notifier := &fakeNotifier{err: errBoom}
	ledger := newFakeLedger()
	e := newTestEvaluator(quotes, notifier, ledger)

	outcome, err := e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if !errors.Is(err, errBoom) || outcome != alertDomain.OutcomeFailed {
		t.Fatalf("expected failed with boom, got %s err=%v", outcome, err)
	}
	if len(ledger.released) != 1 {
		t.Fatalf("expected claim released")
	}
	if _, ok := ledger.triggered["a1"]; ok {
		t.Errorf("last triggered must not be written on send failure")
	}

	notifier.err = nil
	outcome, err = e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if err != nil || outcome != alertDomain.OutcomeTriggered {
		t.Errorf("expected retry to send, got %s err=%v", outcome, err)
	}
}

func TestEvaluator_CommitFailureKeepsClaim(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 160}}
	notifier := &fakeNotifier{}
	ledger := newFakeLedger()
	ledger.commitErr = errBoom
	e := newTestEvaluator(quotes, notifier, ledger)

	outcome, err := e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if !errors.Is(err, errBoom) || outcome != alertDomain.OutcomeFailed {
		t.Fatalf("expected failed, got %s err=%v", outcome, err)
	}

	// lease 內重跑不會重寄
	outcome, _ = e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if outcome != alertDomain.OutcomeDuplicate || len(notifier.sent) != 1 {
		t.Errorf("expected duplicate within lease, got %s sends=%d", outcome, len(notifier.sent))
	}
}

func TestEvaluator_ClaimError(t *testing.T) {
	ledger := newFakeLedger()
	ledger.claimErr = errBoom
	notifier := &fakeNotifier{}
	e := newTestEvaluator(&fakeQuotes{prices: map[string]float64{"AAPL": 160}}, notifier, ledger)

	outcome, err := e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if err == nil || outcome != alertDomain.OutcomeFailed {
		t.Fatalf("expected failed, got %s err=%v", outcome, err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("must not send without claim")
	}

	ledger.claimErr = ErrWindowClaimed
	outcome, err = e.Evaluate(context.Background(), sampleAlert(), "a@example.com")
	if err != nil || outcome != alertDomain.OutcomeDuplicate {
		t.Errorf("expected duplicate, got %s err=%v", outcome, err)
	}
}
