package alert

import (
	"errors"
	"math"
	"testing"
	"time"
)

func validAlert() Alert {
	return Alert{
		UserID:    "u-1",
		Symbol:    "AAPL",
		Company:   "Apple Inc",
		AlertName: "Apple breakout",
		AlertType: TypePrice,
		Condition: ConditionGreater,
		Threshold: 150,
		Frequency: FrequencyDay,
	}
}

func TestAlert_Triggered(t *testing.T) {
	cases := []struct {
		name      string
		condition Condition
		threshold float64
		price     float64
		want      bool
	}{
		{"greater above", ConditionGreater, 150, 152.34, true},
		{"greater equal", ConditionGreater, 150, 150, false},
		{"greater below", ConditionGreater, 150, 149.99, false},
		{"less below", ConditionLess, 100, 99.99, true},
		{"less equal", ConditionLess, 100, 100, false},
		{"less above", ConditionLess, 100, 100.01, false},
		{"nan threshold", ConditionGreater, math.NaN(), 10, false},
		{"inf threshold", ConditionLess, math.Inf(1), 10, false},
		{"unknown condition", Condition("between"), 1, 10, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validAlert()
			a.Condition = tc.condition
			a.Threshold = tc.threshold
			if got := a.Triggered(tc.price); got != tc.want {
				t.Fatalf("Triggered(%v) = %v, want %v", tc.price, got, tc.want)
			}
		})
	}
}

func TestAlert_Validate(t *testing.T) {
	if err := validAlert().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []func(*Alert){
		func(a *Alert) { a.UserID = "" },
		func(a *Alert) { a.Symbol = "" },
		func(a *Alert) { a.Company = "" },
		func(a *Alert) { a.AlertName = "" },
		func(a *Alert) { a.AlertType = "volume" },
		func(a *Alert) { a.Condition = "equal" },
		func(a *Alert) { a.Frequency = "hour" },
		func(a *Alert) { a.Threshold = math.NaN() },
	}
	for i, mutate := range bad {
		a := validAlert()
		mutate(&a)
		if err := a.Validate(); !errors.Is(err, ErrInvalidAlert) {
			t.Errorf("case %d: expected ErrInvalidAlert, got %v", i, err)
		}
	}
}

func TestAlert_NormalizedUppercasesSymbol(t *testing.T) {
	a := validAlert()
	a.Symbol = "  aapl "
	a.AlertType = ""
	n := a.Normalized()
	if n.Symbol != "AAPL" {
		t.Errorf("expected AAPL, got %q", n.Symbol)
	}
	if n.AlertType != TypePrice {
		t.Errorf("expected default alert type, got %q", n.AlertType)
	}
}

func TestPatch_Apply(t *testing.T) {
	sym := "msft"
	th := 320.5
	p := Patch{Symbol: &sym, Threshold: &th}
	if p.Empty() {
		t.Fatal("patch should not be empty")
	}
	out := p.Apply(validAlert())
	if out.Symbol != "MSFT" || out.Threshold != 320.5 {
		t.Errorf("unexpected patched alert: %+v", out)
	}
	if out.Company != "Apple Inc" {
		t.Errorf("untouched field changed: %q", out.Company)
	}
	if !(Patch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestFrequency_Window(t *testing.T) {
	at := time.Date(2026, 10, 14, 13, 0, 0, 0, time.UTC)
	if got := FrequencyDay.Window(at); got != "2026-10-14" {
		t.Errorf("day window = %s", got)
	}
	if got := FrequencyWeek.Window(at); got != "2026-W42" {
		t.Errorf("week window = %s", got)
	}
	if got := FrequencyMonth.Window(at); got != "2026-10" {
		t.Errorf("month window = %s", got)
	}
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" Week ")
	if err != nil || f != FrequencyWeek {
		t.Fatalf("ParseFrequency = %v, %v", f, err)
	}
	if _, err := ParseFrequency("yearly"); err == nil {
		t.Error("expected error for unsupported frequency")
	}
}

func TestNewTriggerPayload(t *testing.T) {
	at := time.Date(2026, 10, 14, 13, 0, 5, 0, time.UTC)
	p := NewTriggerPayload(validAlert(), "a@example.com", 152.34, at)
	if p.CurrentPrice != "$152.34" {
		t.Errorf("current price = %s", p.CurrentPrice)
	}
	if p.TargetPrice != "$150.00" {
		t.Errorf("target price = %s", p.TargetPrice)
	}
	if p.Timestamp != "Wed, 14 Oct 2026 13:00:05 GMT" {
		t.Errorf("timestamp = %s", p.Timestamp)
	}
	if ConditionGreater.Direction() != DirectionUpper || ConditionLess.Direction() != DirectionLower {
		t.Error("unexpected direction mapping")
	}

	prices := map[float64]string{
		1.005:   "$1.00",
		2.675:   "$2.67",
		152.345: "$152.34",
		0.125:   "$0.13",
	}
	for in, want := range prices {
		if got := NewTriggerPayload(validAlert(), "a@example.com", in, at).CurrentPrice; got != want {
			t.Errorf("current price for %v = %s, want %s", in, got, want)
		}
	}
}
