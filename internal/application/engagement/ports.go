package engagement

import (
	"context"
	"time"

	emailDomain "signalist/internal/domain/email"
	marketDomain "signalist/internal/domain/market"
	userDomain "signalist/internal/domain/user"
)

// UserDirectory 讀取寄信對象並更新造訪時間。
type UserDirectory interface {
	// ListContactable 列出具備 email 與名稱的使用者。
	ListContactable(ctx context.Context) ([]userDomain.User, error)
	// ListInactive 列出從未造訪或最後造訪早於 cutoff 的使用者。
	ListInactive(ctx context.Context, cutoff time.Time) ([]userDomain.User, error)
	TouchLastVisit(ctx context.Context, email string, at time.Time) error
}

// WatchlistSymbols 取得使用者追蹤的代號。
type WatchlistSymbols interface {
	Symbols(ctx context.Context, email string) ([]string, error)
}

// NewsSource 依代號取得新聞，空代號時回傳一般新聞。
type NewsSource interface {
	News(ctx context.Context, symbols []string) ([]marketDomain.NewsArticle, error)
}

// Writer 以語言模型產生文字。
type Writer interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Mailer 寄送互動類信件。
type Mailer interface {
	SendWelcome(ctx context.Context, msg emailDomain.Welcome) error
	SendNewsSummary(ctx context.Context, msg emailDomain.NewsSummary) error
	SendInactiveReminder(ctx context.Context, msg emailDomain.InactiveReminder) error
}
