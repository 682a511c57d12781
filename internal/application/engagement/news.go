package engagement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	emailDomain "signalist/internal/domain/email"
	marketDomain "signalist/internal/domain/market"
	userDomain "signalist/internal/domain/user"
)

// NewsReport 每日新聞摘要執行結果。
type NewsReport struct {
	Users   int
	Sent    int
	Skipped int
	Failed  int
}

// NewsUseCase 寄送每日新聞摘要。
type NewsUseCase struct {
	users       UserDirectory
	watchlist   WatchlistSymbols
	news        NewsSource
	writer      Writer
	mailer      Mailer
	model       string
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// NewNewsUseCase 建立每日新聞流程。
func NewNewsUseCase(users UserDirectory, watchlist WatchlistSymbols, news NewsSource, writer Writer, mailer Mailer, model string, logger *zap.Logger) *NewsUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NewsUseCase{
		users:       users,
		watchlist:   watchlist,
		news:        news,
		writer:      writer,
		mailer:      mailer,
		model:       model,
		logger:      logger,
		concurrency: 4,
		now:         time.Now,
	}
}

type userNews struct {
	user     userDomain.User
	articles []marketDomain.NewsArticle
	content  string
}

// Run 對每位使用者整理觀察清單新聞、產生摘要並寄出。
func (u *NewsUseCase) Run(ctx context.Context) (NewsReport, error) {
	users, err := u.users.ListContactable(ctx)
	if err != nil {
		return NewsReport{}, fmt.Errorf("list users for news: %w", err)
	}
	report := NewsReport{Users: len(users)}
	if len(users) == 0 {
		return report, nil
	}

	prepared := make([]userNews, 0, len(users))
	for _, usr := range users {
		prepared = append(prepared, userNews{user: usr, articles: u.articlesFor(ctx, usr)})
	}

	for i := range prepared {
		content, err := u.summarize(ctx, prepared[i].articles)
		if err != nil {
			u.logger.Warn("summarize news failed", zap.String("email", prepared[i].user.Email), zap.Error(err))
			continue
		}
		prepared[i].content = content
	}

	date := u.now().UTC().Format(emailDomain.DateLayout)
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(u.concurrency)
	for _, p := range prepared {
		if p.content == "" {
			report.Skipped++
			continue
		}
		g.Go(func() error {
			err := u.mailer.SendNewsSummary(ctx, emailDomain.NewsSummary{Email: p.user.Email, Date: date, Content: p.content})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				u.logger.Warn("send news summary failed", zap.String("email", p.user.Email), zap.Error(err))
				report.Failed++
				return nil
			}
			report.Sent++
			return nil
		})
	}
	_ = g.Wait()

	u.logger.Info("daily news summary finished",
		zap.Int("users", report.Users), zap.Int("sent", report.Sent),
		zap.Int("skipped", report.Skipped), zap.Int("failed", report.Failed))
	return report, nil
}

func (u *NewsUseCase) articlesFor(ctx context.Context, usr userDomain.User) []marketDomain.NewsArticle {
	symbols, err := u.watchlist.Symbols(ctx, usr.Email)
	if err != nil {
		u.logger.Warn("load watchlist symbols failed", zap.String("email", usr.Email), zap.Error(err))
		symbols = nil
	}
	articles, err := u.news.News(ctx, symbols)
	if err != nil {
		u.logger.Warn("fetch news failed", zap.String("email", usr.Email), zap.Error(err))
		return nil
	}
	if len(articles) == 0 && len(symbols) > 0 {
		if articles, err = u.news.News(ctx, nil); err != nil {
			u.logger.Warn("fetch general news failed", zap.String("email", usr.Email), zap.Error(err))
			return nil
		}
	}
	if len(articles) > maxArticlesPerUser {
		articles = articles[:maxArticlesPerUser]
	}
	return articles
}

const maxArticlesPerUser = 6

func (u *NewsUseCase) summarize(ctx context.Context, articles []marketDomain.NewsArticle) (string, error) {
	if u.writer == nil {
		return "", fmt.Errorf("no writer configured")
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode articles: %w", err)
	}
	text, err := u.writer.Generate(ctx, u.model, fill(newsSummaryPrompt, "newsData", string(data)))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return DefaultNewsContent, nil
	}
	return strings.TrimSpace(text), nil
}
