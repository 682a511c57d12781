package alert

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	alertDomain "signalist/internal/domain/alert"
	userDomain "signalist/internal/domain/user"
)

type fakeQuotes struct {
	prices map[string]float64
	calls  int
	mu     sync.Mutex
}

func (f *fakeQuotes) LatestPrice(_ context.Context, symbol string) (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.prices[symbol]
	return p, ok
}

type sentAlert struct {
	dir     alertDomain.Direction
	payload alertDomain.TriggerPayload
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentAlert
	err  error
}

func (f *fakeNotifier) SendPriceAlert(_ context.Context, dir alertDomain.Direction, p alertDomain.TriggerPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentAlert{dir: dir, payload: p})
	return nil
}

type fakeLedger struct {
	mu        sync.Mutex
	notified  map[string]string
	claims    map[string]time.Time
	triggered map[string]time.Time
	released  []string
	claimErr  error
	commitErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		notified:  map[string]string{},
		claims:    map[string]time.Time{},
		triggered: map[string]time.Time{},
	}
}

func (f *fakeLedger) ClaimWindow(_ context.Context, id, window string, now time.Time, lease time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if f.notified[id] == window {
		return false, nil
	}
	if at, ok := f.claims[id+"|"+window]; ok && now.Sub(at) < lease {
		return false, nil
	}
	f.claims[id+"|"+window] = now
	return true, nil
}

func (f *fakeLedger) CommitTrigger(_ context.Context, id, window string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.notified[id] = window
	f.triggered[id] = at
	delete(f.claims, id+"|"+window)
	return nil
}

func (f *fakeLedger) ReleaseWindow(_ context.Context, id, window string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, id+"|"+window)
	f.released = append(f.released, id)
	return nil
}

type fakeStore struct {
	alerts  map[string]alertDomain.Alert
	nextID  int
	listErr error
}

func newFakeStore(alerts ...alertDomain.Alert) *fakeStore {
	s := &fakeStore{alerts: map[string]alertDomain.Alert{}}
	for _, a := range alerts {
		s.alerts[a.ID] = a
	}
	return s
}

func (s *fakeStore) Insert(_ context.Context, a alertDomain.Alert) (alertDomain.Alert, error) {
	s.nextID++
	a.ID = "a" + string(rune('0'+s.nextID))
	s.alerts[a.ID] = a
	return a, nil
}

func (s *fakeStore) Update(_ context.Context, a alertDomain.Alert) error {
	cur, ok := s.alerts[a.ID]
	if !ok || cur.UserID != a.UserID {
		return alertDomain.ErrAlertNotFound
	}
	s.alerts[a.ID] = a
	return nil
}

func (s *fakeStore) Delete(_ context.Context, id, userID string) error {
	cur, ok := s.alerts[id]
	if !ok || cur.UserID != userID {
		return alertDomain.ErrAlertNotFound
	}
	delete(s.alerts, id)
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (alertDomain.Alert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return alertDomain.Alert{}, alertDomain.ErrAlertNotFound
	}
	return a, nil
}

func (s *fakeStore) ListByUser(_ context.Context, userID string) ([]alertDomain.Alert, error) {
	var out []alertDomain.Alert
	for _, a := range s.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) ListByFrequency(_ context.Context, freq alertDomain.Frequency) ([]alertDomain.Alert, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []alertDomain.Alert
	for _, a := range s.alerts {
		if a.Frequency == freq {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeOwners struct {
	emails map[string]string
	err    error
}

func (f fakeOwners) ResolveEmails(_ context.Context, ids []string) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, id := range ids {
		if e, ok := f.emails[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

type fakeUsers struct {
	byEmail map[string]userDomain.User
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (userDomain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return userDomain.User{}, userDomain.ErrUserNotFound
	}
	return u, nil
}

var errBoom = errors.New("boom")
