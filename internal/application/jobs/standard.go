package jobs

import (
	"context"
	"fmt"

	alertApp "signalist/internal/application/alert"
	"signalist/internal/application/engagement"
	alertDomain "signalist/internal/domain/alert"
)

const (
	PriceAlertsDaily   = "price-alerts-daily"
	PriceAlertsWeekly  = "price-alerts-weekly"
	PriceAlertsMonthly = "price-alerts-monthly"
	DailyNewsSummary   = "daily-news-summary"
	InactiveUserEmails = "send-inactive-user-emails"
)

// DefaultSchedules 各工作的預設 UTC 排程。
var DefaultSchedules = map[string]string{
	PriceAlertsDaily:   "0 13 * * *",
	PriceAlertsWeekly:  "0 13 * * 1",
	PriceAlertsMonthly: "0 13 1 * *",
	DailyNewsSummary:   "0 12 * * *",
	InactiveUserEmails: "0 10 */7 * *",
}

var alertJobs = map[string]alertDomain.Frequency{
	PriceAlertsDaily:   alertDomain.FrequencyDay,
	PriceAlertsWeekly:  alertDomain.FrequencyWeek,
	PriceAlertsMonthly: alertDomain.FrequencyMonth,
}

// AlertRunner 依頻率執行價格警示。
type AlertRunner interface {
	Run(ctx context.Context, freq alertDomain.Frequency) (alertApp.Summary, error)
}

// NewsRunner 每日新聞摘要。
type NewsRunner interface {
	Run(ctx context.Context) (engagement.NewsReport, error)
}

// InactiveRunner 久未造訪提醒。
type InactiveRunner interface {
	Run(ctx context.Context) (engagement.InactiveReport, error)
}

// Deps 標準工作所需的元件；nil 的元件不註冊對應工作。
type Deps struct {
	Alerts    AlertRunner
	News      NewsRunner
	Inactive  InactiveRunner
	Schedules map[string]string // 覆寫 DefaultSchedules
}

// RegisterStandard 註冊價格警示與互動信件工作。
func RegisterStandard(r *Registry, deps Deps) error {
	schedule := func(name string) string {
		if s := deps.Schedules[name]; s != "" {
			return s
		}
		return DefaultSchedules[name]
	}

	if deps.Alerts != nil {
		for _, name := range []string{PriceAlertsDaily, PriceAlertsWeekly, PriceAlertsMonthly} {
			freq := alertJobs[name]
			if err := r.Register(Job{Name: name, Schedule: schedule(name), Run: alertFunc(deps.Alerts, freq)}); err != nil {
				return err
			}
		}
	}
	if deps.News != nil {
		news := deps.News
		if err := r.Register(Job{Name: DailyNewsSummary, Schedule: schedule(DailyNewsSummary), Run: func(ctx context.Context) (map[string]int, error) {
			rep, err := news.Run(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int{"users": rep.Users, "sent": rep.Sent, "skipped": rep.Skipped, "failed": rep.Failed}, nil
		}}); err != nil {
			return err
		}
	}
	if deps.Inactive != nil {
		inactive := deps.Inactive
		if err := r.Register(Job{Name: InactiveUserEmails, Schedule: schedule(InactiveUserEmails), Run: func(ctx context.Context) (map[string]int, error) {
			rep, err := inactive.Run(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int{"total": rep.Total, "successful": rep.Successful, "failed": rep.Failed}, nil
		}}); err != nil {
			return err
		}
	}
	return nil
}

func alertFunc(runner AlertRunner, freq alertDomain.Frequency) Func {
	return func(ctx context.Context) (map[string]int, error) {
		s, err := runner.Run(ctx, freq)
		if err != nil {
			return nil, fmt.Errorf("price alerts %s: %w", freq, err)
		}
		return map[string]int{
			"total":         s.Total,
			"triggered":     s.Triggered,
			"not_triggered": s.NotTriggered,
			"unavailable":   s.Unavailable,
			"skipped":       s.Skipped,
			"duplicate":     s.Duplicate,
			"failed":        s.Failed,
		}, nil
	}
}
