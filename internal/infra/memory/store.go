package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	alertDomain "signalist/internal/domain/alert"
	userDomain "signalist/internal/domain/user"
	watchDomain "signalist/internal/domain/watchlist"
)

// Store 未設定資料庫時使用的記憶體資料庫，資料不會持久化。
type Store struct {
	mu        sync.RWMutex
	users     map[string]userDomain.User // legacy id -> user
	alerts    map[string]alertRecord
	watchlist map[string]watchDomain.Item // userID|symbol -> item
}

type alertRecord struct {
	alert          alertDomain.Alert
	notifiedWindow string
	claimWindow    string
	claimedAt      time.Time
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{
		users:     make(map[string]userDomain.User),
		alerts:    make(map[string]alertRecord),
		watchlist: make(map[string]watchDomain.Item),
	}
}

// Alerts 回傳警示 repository。
func (s *Store) Alerts() *AlertRepo { return &AlertRepo{s: s} }

// Users 回傳使用者 repository。
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Watchlist 回傳觀察清單 repository。
func (s *Store) Watchlist() *WatchlistRepo { return &WatchlistRepo{s: s} }

// AlertRepo 記憶體版警示存取。
type AlertRepo struct{ s *Store }

func (r *AlertRepo) Insert(_ context.Context, a alertDomain.Alert) (alertDomain.Alert, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	r.s.alerts[a.ID] = alertRecord{alert: a}
	return a, nil
}

func (r *AlertRepo) Update(_ context.Context, a alertDomain.Alert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.alerts[a.ID]
	if !ok || rec.alert.UserID != a.UserID {
		return alertDomain.ErrAlertNotFound
	}
	a.CreatedAt = rec.alert.CreatedAt
	a.LastTriggeredAt = rec.alert.LastTriggeredAt
	rec.alert = a
	r.s.alerts[a.ID] = rec
	return nil
}

func (r *AlertRepo) Delete(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.alerts[id]
	if !ok || rec.alert.UserID != userID {
		return alertDomain.ErrAlertNotFound
	}
	delete(r.s.alerts, id)
	return nil
}

func (r *AlertRepo) Get(_ context.Context, id string) (alertDomain.Alert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.alerts[id]
	if !ok {
		return alertDomain.Alert{}, alertDomain.ErrAlertNotFound
	}
	return rec.alert, nil
}

func (r *AlertRepo) ListByUser(_ context.Context, userID string) ([]alertDomain.Alert, error) {
	return r.list(func(a alertDomain.Alert) bool { return a.UserID == userID }), nil
}

func (r *AlertRepo) ListByFrequency(_ context.Context, freq alertDomain.Frequency) ([]alertDomain.Alert, error) {
	return r.list(func(a alertDomain.Alert) bool { return a.Frequency == freq }), nil
}

// list 依建立時間新到舊排序。
func (r *AlertRepo) list(match func(alertDomain.Alert) bool) []alertDomain.Alert {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]alertDomain.Alert, 0)
	for _, rec := range r.s.alerts {
		if match(rec.alert) {
			out = append(out, rec.alert)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *AlertRepo) ClaimWindow(_ context.Context, id, window string, now time.Time, lease time.Duration) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.alerts[id]
	if !ok {
		return false, alertDomain.ErrAlertNotFound
	}
	if rec.notifiedWindow == window {
		return false, nil
	}
	if rec.claimWindow == window && now.Sub(rec.claimedAt) < lease {
		return false, nil
	}
	rec.claimWindow = window
	rec.claimedAt = now
	r.s.alerts[id] = rec
	return true, nil
}

func (r *AlertRepo) CommitTrigger(_ context.Context, id, window string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.alerts[id]
	if !ok {
		return alertDomain.ErrAlertNotFound
	}
	t := at.UTC()
	rec.alert.LastTriggeredAt = &t
	rec.notifiedWindow = window
	rec.claimWindow = ""
	rec.claimedAt = time.Time{}
	r.s.alerts[id] = rec
	return nil
}

func (r *AlertRepo) ReleaseWindow(_ context.Context, id, window string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.alerts[id]
	if !ok {
		return nil
	}
	if rec.claimWindow == window {
		rec.claimWindow = ""
		rec.claimedAt = time.Time{}
		r.s.alerts[id] = rec
	}
	return nil
}

// UserRepo 記憶體版使用者存取。
type UserRepo struct{ s *Store }

// Save 新增或覆寫使用者，缺少 ID 時自動產生。
func (r *UserRepo) Save(_ context.Context, u userDomain.User) (userDomain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.s.users[u.ID] = u
	return u, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (userDomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return userDomain.User{}, userDomain.ErrUserNotFound
}

func (r *UserRepo) ResolveEmails(_ context.Context, ids []string) (map[string]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	users := make([]userDomain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	return userDomain.NewEmailIndex(users).Resolve(ids), nil
}

func (r *UserRepo) ListContactable(_ context.Context) ([]userDomain.User, error) {
	return r.filter(func(u userDomain.User) bool { return u.Contactable() }), nil
}

func (r *UserRepo) ListInactive(_ context.Context, cutoff time.Time) ([]userDomain.User, error) {
	return r.filter(func(u userDomain.User) bool { return u.Contactable() && u.InactiveSince(cutoff) }), nil
}

func (r *UserRepo) TouchLastVisit(_ context.Context, email string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			t := at.UTC()
			u.LastVisit = &t
			r.s.users[id] = u
			return nil
		}
	}
	return nil
}

func (r *UserRepo) filter(match func(userDomain.User) bool) []userDomain.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]userDomain.User, 0)
	for _, u := range r.s.users {
		if match(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

// WatchlistRepo 記憶體版觀察清單存取。
type WatchlistRepo struct{ s *Store }

func watchKey(userID, symbol string) string { return userID + "|" + symbol }

func (r *WatchlistRepo) Add(_ context.Context, item watchDomain.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := watchKey(item.UserID, item.Symbol)
	if _, ok := r.s.watchlist[key]; ok {
		return watchDomain.ErrAlreadyInWatchlist
	}
	r.s.watchlist[key] = item
	return nil
}

func (r *WatchlistRepo) Remove(_ context.Context, userID, symbol string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := watchKey(userID, symbol)
	if _, ok := r.s.watchlist[key]; !ok {
		return false, nil
	}
	delete(r.s.watchlist, key)
	return true, nil
}

// ListByUser 依加入時間新到舊排序。
func (r *WatchlistRepo) ListByUser(_ context.Context, userID string) ([]watchDomain.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]watchDomain.Item, 0)
	for _, it := range r.s.watchlist {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out, nil
}
