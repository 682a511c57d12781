package engagement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	emailDomain "signalist/internal/domain/email"
)

// DefaultInactiveDays 超過此天數未造訪即寄送提醒。
const DefaultInactiveDays = 15

// InactiveReport 提醒信執行結果。
type InactiveReport struct {
	Total      int
	Successful int
	Failed     int
}

// InactiveUseCase 寄送久未造訪提醒信。
type InactiveUseCase struct {
	users          UserDirectory
	mailer         Mailer
	dashboardURL   string
	unsubscribeURL string
	days           int
	logger         *zap.Logger
	concurrency    int
	now            func() time.Time
}

// NewInactiveUseCase 建立提醒信流程。
func NewInactiveUseCase(users UserDirectory, mailer Mailer, dashboardURL, unsubscribeURL string, logger *zap.Logger) *InactiveUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if unsubscribeURL == "" {
		unsubscribeURL = "#"
	}
	return &InactiveUseCase{
		users:          users,
		mailer:         mailer,
		dashboardURL:   dashboardURL,
		unsubscribeURL: unsubscribeURL,
		days:           DefaultInactiveDays,
		logger:         logger,
		concurrency:    4,
		now:            time.Now,
	}
}

// WithDays 設定判定天數。
func (u *InactiveUseCase) WithDays(days int) *InactiveUseCase {
	if days > 0 {
		u.days = days
	}
	return u
}

// Run 寄出提醒信並回傳成功與失敗數。
func (u *InactiveUseCase) Run(ctx context.Context) (InactiveReport, error) {
	cutoff := u.now().UTC().AddDate(0, 0, -u.days)
	users, err := u.users.ListInactive(ctx, cutoff)
	if err != nil {
		return InactiveReport{}, fmt.Errorf("list inactive users: %w", err)
	}
	report := InactiveReport{}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(u.concurrency)
	for _, usr := range users {
		if !usr.Contactable() || !usr.InactiveSince(cutoff) {
			continue
		}
		report.Total++
		g.Go(func() error {
			err := u.mailer.SendInactiveReminder(ctx, emailDomain.InactiveReminder{
				Email:          usr.Email,
				Name:           usr.Name,
				DashboardURL:   u.dashboardURL,
				UnsubscribeURL: u.unsubscribeURL,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				u.logger.Warn("send inactive reminder failed", zap.String("email", usr.Email), zap.Error(err))
				report.Failed++
				return nil
			}
			report.Successful++
			return nil
		})
	}
	_ = g.Wait()

	u.logger.Info("inactive user emails finished",
		zap.Int("total", report.Total), zap.Int("successful", report.Successful), zap.Int("failed", report.Failed))
	return report, nil
}
