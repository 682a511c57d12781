package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrMailDisabled 未設定 SMTP 帳號時拒絕寄信。
var ErrMailDisabled = errors.New("mail transport is not configured")

// Message 一封已渲染的信件。
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Transport 實際寄出信件。
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig SMTP 連線與寄件人設定。
type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromName    string
	FromAddress string
}

// SMTPTransport 以 STARTTLS 與帳密登入 SMTP 寄信。
type SMTPTransport struct {
	cfg    SMTPConfig
	client *mail.Client
}

// NewSMTPTransport 建立 SMTP transport。
func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if cfg.FromAddress == "" {
		cfg.FromAddress = cfg.Username
	}
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPTransport{cfg: cfg, client: client}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.FromFormat(t.cfg.FromName, t.cfg.FromAddress); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogTransport 只記錄信件，不實際寄出。
type LogTransport struct {
	logger *zap.Logger
}

// NewLogTransport 建立 dry-run transport。
func NewLogTransport(logger *zap.Logger) *LogTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.logger.Info("mail dry run", zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Int("html_bytes", len(msg.HTML)))
	return nil
}

// DisabledTransport 未設定帳號時使用，所有寄送皆失敗。
type DisabledTransport struct{}

func (DisabledTransport) Send(context.Context, Message) error { return ErrMailDisabled }
