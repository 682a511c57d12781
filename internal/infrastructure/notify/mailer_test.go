package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	alertDomain "signalist/internal/domain/alert"
	emailDomain "signalist/internal/domain/email"
)

type fakeTransport struct {
	sent []Message
	err  error
}

func (f *fakeTransport) Send(_ context.Context, msg Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeObserver struct {
	calls map[string]int
	errs  int
}

func (o *fakeObserver) ObserveEmail(template string, err error) {
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[template]++
	if err != nil {
		o.errs++
	}
}

func payload() alertDomain.TriggerPayload {
	return alertDomain.TriggerPayload{
		Email: "ada@example.com", Symbol: "AAPL", Company: "Apple Inc",
		CurrentPrice: "$152.34", TargetPrice: "$150.00", Timestamp: "Wed, 14 Oct 2026 13:00:00 GMT",
	}
}

func TestMailer_SendPriceAlertDirections(t *testing.T) {
	tr := &fakeTransport{}
	m := NewMailer(tr, nil)
	ctx := context.Background()

	if err := m.SendPriceAlert(ctx, alertDomain.DirectionUpper, payload()); err != nil {
		t.Fatalf("upper: %v", err)
	}
	if err := m.SendPriceAlert(ctx, alertDomain.DirectionLower, payload()); err != nil {
		t.Fatalf("lower: %v", err)
	}
	if len(tr.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(tr.sent))
	}
	upper, lower := tr.sent[0], tr.sent[1]
	if !strings.Contains(upper.Subject, "Upper") || !strings.Contains(upper.HTML, "Price Above Reached") {
		t.Errorf("unexpected upper message: %+v", upper)
	}
	if !strings.Contains(lower.Subject, "Lower") || !strings.Contains(lower.HTML, "Price Below Reached") {
		t.Errorf("unexpected lower message: %+v", lower)
	}
	for _, msg := range tr.sent {
		if msg.To != "ada@example.com" || strings.Contains(msg.HTML, "{{") {
			t.Errorf("placeholders not replaced: %s", msg.HTML)
		}
		if !strings.Contains(msg.HTML, "$152.34") || !strings.Contains(msg.HTML, "Wed, 14 Oct 2026 13:00:00 GMT") {
			t.Errorf("missing payload values: %s", msg.HTML)
		}
	}
}

func TestMailer_EngagementSubjects(t *testing.T) {
	tr := &fakeTransport{}
	m := NewMailer(tr, nil)
	ctx := context.Background()

	_ = m.SendWelcome(ctx, emailDomain.Welcome{Email: "a@example.com", Name: "Ada", Intro: "<p>Hi</p>"})
	_ = m.SendNewsSummary(ctx, emailDomain.NewsSummary{Email: "a@example.com", Date: "Wednesday, October 14, 2026", Content: "<p>news</p>"})
	_ = m.SendInactiveReminder(ctx, emailDomain.InactiveReminder{Email: "a@example.com", Name: "Ada", DashboardURL: "https://app.example.com/", UnsubscribeURL: "#"})

	if len(tr.sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(tr.sent))
	}
	if got := tr.sent[0].Subject; got != "Welcome to Signalist - your stock market toolkit is ready!" {
		t.Errorf("welcome subject: %s", got)
	}
	if got := tr.sent[1].Subject; got != "📈 Market News Summary Today - Wednesday, October 14, 2026" {
		t.Errorf("news subject: %s", got)
	}
	if got := tr.sent[2].Subject; got != "Ada, opportunities are waiting for you" {
		t.Errorf("inactive subject: %s", got)
	}
	if n := strings.Count(tr.sent[2].HTML, "https://app.example.com/"); n != 2 {
		t.Errorf("expected dashboard url replaced twice, got %d", n)
	}
}

func TestMailer_TransportErrorPropagates(t *testing.T) {
	obs := &fakeObserver{}
	m := NewMailer(&fakeTransport{err: errors.New("smtp down")}, nil).WithObserver(obs)

	err := m.SendPriceAlert(context.Background(), alertDomain.DirectionUpper, payload())
	if err == nil {
		t.Fatal("expected error")
	}
	if obs.calls[templateUpper] != 1 || obs.errs != 1 {
		t.Errorf("unexpected observations: %+v", obs)
	}
}

func TestMailer_DisabledTransport(t *testing.T) {
	m := NewMailer(nil, nil)
	err := m.SendWelcome(context.Background(), emailDomain.Welcome{Email: "a@example.com", Name: "Ada"})
	if !errors.Is(err, ErrMailDisabled) {
		t.Errorf("expected ErrMailDisabled, got %v", err)
	}
}

func TestRender_LiteralReplacement(t *testing.T) {
	got := render("{{a}}-{{b}}-{{a}}-{{c}}", map[string]string{"a": "1", "b": "$2"})
	if got != "1-$2-1-{{c}}" {
		t.Errorf("unexpected render: %s", got)
	}
}
