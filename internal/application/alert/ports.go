package alert

import (
	"context"
	"errors"
	"time"

	alertDomain "signalist/internal/domain/alert"
	userDomain "signalist/internal/domain/user"
)

// ErrWindowClaimed 該區間已通知或另有執行中的 claim。
var ErrWindowClaimed = errors.New("alert window already claimed")

// Store 警示的持久化存取。
type Store interface {
	Insert(ctx context.Context, a alertDomain.Alert) (alertDomain.Alert, error)
	Update(ctx context.Context, a alertDomain.Alert) error
	Delete(ctx context.Context, id, userID string) error
	Get(ctx context.Context, id string) (alertDomain.Alert, error)
	ListByUser(ctx context.Context, userID string) ([]alertDomain.Alert, error)
	ListByFrequency(ctx context.Context, freq alertDomain.Frequency) ([]alertDomain.Alert, error)
}

// TriggerLedger 記錄每個評估區間的通知狀態。
type TriggerLedger interface {
	// ClaimWindow 取得區間的寄送權；已通知或 lease 未過期時回傳 false。
	ClaimWindow(ctx context.Context, id, window string, now time.Time, lease time.Duration) (bool, error)
	// CommitTrigger 寄出後寫入 LastTriggeredAt 並標記區間已通知。
	CommitTrigger(ctx context.Context, id, window string, at time.Time) error
	// ReleaseWindow 寄送失敗時釋放 claim。
	ReleaseWindow(ctx context.Context, id, window string) error
}

// Repository 同時提供 Store 與 TriggerLedger。
type Repository interface {
	Store
	TriggerLedger
}

// OwnerResolver 批次將擁有者 id 解析為 email。
type OwnerResolver interface {
	ResolveEmails(ctx context.Context, userIDs []string) (map[string]string, error)
}

// UserFinder 依 email 查詢使用者。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (userDomain.User, error)
}

// QuoteFetcher 取得即時價格；無法取得時 ok 為 false。
type QuoteFetcher interface {
	LatestPrice(ctx context.Context, symbol string) (float64, bool)
}

// Notifier 寄送價格警示通知。
type Notifier interface {
	SendPriceAlert(ctx context.Context, dir alertDomain.Direction, payload alertDomain.TriggerPayload) error
}

// Recorder 記錄評估結果的指標。
type Recorder interface {
	ObserveEvaluation(freq alertDomain.Frequency, outcome alertDomain.Outcome)
}

type nopRecorder struct{}

func (nopRecorder) ObserveEvaluation(alertDomain.Frequency, alertDomain.Outcome) {}
