package engagement

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	emailDomain "signalist/internal/domain/email"
)

// SignUp 新使用者註冊事件。
type SignUp struct {
	Email             string
	Name              string
	Country           string
	InvestmentGoals   string
	RiskTolerance     string
	PreferredIndustry string
}

// WelcomeUseCase 產生個人化歡迎詞並寄出歡迎信。
type WelcomeUseCase struct {
	writer Writer
	mailer Mailer
	model  string
	logger *zap.Logger
}

// NewWelcomeUseCase 建立歡迎信流程；writer 可為 nil，此時使用預設歡迎詞。
func NewWelcomeUseCase(writer Writer, mailer Mailer, model string, logger *zap.Logger) *WelcomeUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WelcomeUseCase{writer: writer, mailer: mailer, model: model, logger: logger}
}

// Send 處理一筆註冊事件。
func (u *WelcomeUseCase) Send(ctx context.Context, in SignUp) error {
	if strings.TrimSpace(in.Email) == "" {
		return fmt.Errorf("email is required")
	}
	intro := DefaultIntro
	if u.writer != nil {
		text, err := u.writer.Generate(ctx, u.model, fill(welcomePrompt, "userProfile", profileText(in)))
		switch {
		case err != nil:
			u.logger.Warn("generate welcome intro failed", zap.String("email", in.Email), zap.Error(err))
		case strings.TrimSpace(text) != "":
			intro = strings.TrimSpace(text)
		}
	}
	if err := u.mailer.SendWelcome(ctx, emailDomain.Welcome{Email: in.Email, Name: in.Name, Intro: intro}); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}

func profileText(in SignUp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Country: %s\n", in.Country)
	fmt.Fprintf(&b, "- Investment goals: %s\n", in.InvestmentGoals)
	fmt.Fprintf(&b, "- Risk tolerance: %s\n", in.RiskTolerance)
	fmt.Fprintf(&b, "- Preferred industry: %s\n", in.PreferredIndustry)
	return b.String()
}
