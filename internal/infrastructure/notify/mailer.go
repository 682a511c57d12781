package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	alertDomain "signalist/internal/domain/alert"
	emailDomain "signalist/internal/domain/email"
)

// EmailObserver 記錄寄信結果。
type EmailObserver interface {
	ObserveEmail(template string, err error)
}

// Mailer 渲染樣板後交給 Transport 寄出。
type Mailer struct {
	transport Transport
	observer  EmailObserver
	logger    *zap.Logger
}

// NewMailer 建立 Mailer。
func NewMailer(transport Transport, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if transport == nil {
		transport = DisabledTransport{}
	}
	return &Mailer{transport: transport, logger: logger}
}

// WithObserver 設定寄信指標。
func (m *Mailer) WithObserver(o EmailObserver) *Mailer {
	m.observer = o
	return m
}

// SendPriceAlert 依方向使用上穿或下穿樣板。
func (m *Mailer) SendPriceAlert(ctx context.Context, dir alertDomain.Direction, p alertDomain.TriggerPayload) error {
	values := map[string]string{
		"symbol":       p.Symbol,
		"company":      p.Company,
		"currentPrice": p.CurrentPrice,
		"targetPrice":  p.TargetPrice,
		"timestamp":    p.Timestamp,
	}
	name, tpl, subject := templateUpper, priceAlertUpperHTML, fmt.Sprintf("Price Alert: %s Hit Upper Target", p.Symbol)
	text := fmt.Sprintf("%s is now %s, above your target of %s.", p.Symbol, p.CurrentPrice, p.TargetPrice)
	if dir == alertDomain.DirectionLower {
		name, tpl, subject = templateLower, priceAlertLowerHTML, fmt.Sprintf("Price Alert: %s Hit Lower Target", p.Symbol)
		text = fmt.Sprintf("%s is now %s, below your target of %s.", p.Symbol, p.CurrentPrice, p.TargetPrice)
	}
	return m.send(ctx, name, Message{To: p.Email, Subject: subject, Text: text, HTML: render(tpl, values)})
}

func (m *Mailer) SendWelcome(ctx context.Context, msg emailDomain.Welcome) error {
	return m.send(ctx, templateWelcome, Message{
		To:      msg.Email,
		Subject: "Welcome to Signalist - your stock market toolkit is ready!",
		Text:    "Thanks for joining Signalist",
		HTML:    render(welcomeHTML, map[string]string{"name": msg.Name, "intro": msg.Intro}),
	})
}

func (m *Mailer) SendNewsSummary(ctx context.Context, msg emailDomain.NewsSummary) error {
	return m.send(ctx, templateNews, Message{
		To:      msg.Email,
		Subject: "📈 Market News Summary Today - " + msg.Date,
		Text:    "Today's market news summary from Signalist",
		HTML:    render(newsSummaryHTML, map[string]string{"date": msg.Date, "newsContent": msg.Content}),
	})
}

func (m *Mailer) SendInactiveReminder(ctx context.Context, msg emailDomain.InactiveReminder) error {
	return m.send(ctx, templateInactive, Message{
		To:      msg.Email,
		Subject: msg.Name + ", opportunities are waiting for you",
		Text:    fmt.Sprintf("Hi %s, we miss you at Signalist! Your market opportunities are waiting.", msg.Name),
		HTML: render(inactiveReminderHTML, map[string]string{
			"name":           msg.Name,
			"dashboardUrl":   msg.DashboardURL,
			"unsubscribeUrl": msg.UnsubscribeURL,
		}),
	})
}

func (m *Mailer) send(ctx context.Context, template string, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("send %s: recipient is required", template)
	}
	err := m.transport.Send(ctx, msg)
	if m.observer != nil {
		m.observer.ObserveEmail(template, err)
	}
	if err != nil {
		m.logger.Warn("send email failed", zap.String("template", template), zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("send %s: %w", template, err)
	}
	m.logger.Debug("email sent", zap.String("template", template), zap.String("to", msg.To))
	return nil
}
