package alert

import (
	"context"
	"errors"
	"testing"
	"time"

	alertDomain "signalist/internal/domain/alert"
	userDomain "signalist/internal/domain/user"
)

func newTestService(store *fakeStore) *Service {
	users := fakeUsers{byEmail: map[string]userDomain.User{
		"ext@example.com":    {ID: "legacy-1", ExternalID: "ext-1", Email: "ext@example.com"},
		"legacy@example.com": {ID: "legacy-2", Email: "legacy@example.com"},
	}}
	svc := NewService(store, users)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_CreateNormalizesAndUsesOwnerID(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	created, err := svc.Create(context.Background(), "ext@example.com", CreateInput{
		AlertName: " Apple breakout ",
		Symbol:    " aapl ",
		Company:   "Apple Inc.",
		Condition: alertDomain.ConditionGreater,
		Threshold: 200,
		Frequency: alertDomain.FrequencyWeek,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.UserID != "ext-1" || created.Symbol != "AAPL" || created.AlertType != alertDomain.TypePrice {
		t.Errorf("unexpected alert: %+v", created)
	}

	legacy, err := svc.Create(context.Background(), "legacy@example.com", CreateInput{
		AlertName: "MSFT dip", Symbol: "msft", Company: "Microsoft",
		Condition: alertDomain.ConditionLess, Threshold: 300, Frequency: alertDomain.FrequencyDay,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if legacy.UserID != "legacy-2" {
		t.Errorf("expected legacy owner id, got %s", legacy.UserID)
	}
}

func TestService_CreateRejectsInvalid(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Create(context.Background(), "ext@example.com", CreateInput{
		AlertName: "bad", Symbol: "AAPL", Company: "Apple", Condition: "equal", Threshold: 1, Frequency: alertDomain.FrequencyDay,
	})
	if !errors.Is(err, alertDomain.ErrInvalidAlert) {
		t.Errorf("expected invalid alert, got %v", err)
	}

	_, err = svc.Create(context.Background(), "nobody@example.com", CreateInput{})
	if !errors.Is(err, userDomain.ErrUserNotFound) {
		t.Errorf("expected user not found, got %v", err)
	}
}

func TestService_UpdateAndDeleteAreOwnerScoped(t *testing.T) {
	store := newFakeStore(
		alertDomain.Alert{ID: "mine", UserID: "ext-1", Symbol: "AAPL", Company: "Apple", AlertName: "a", AlertType: "price", Condition: alertDomain.ConditionGreater, Threshold: 100, Frequency: alertDomain.FrequencyDay},
		alertDomain.Alert{ID: "theirs", UserID: "legacy-2", Symbol: "MSFT", Company: "Microsoft", AlertName: "b", AlertType: "price", Condition: alertDomain.ConditionLess, Threshold: 100, Frequency: alertDomain.FrequencyDay},
	)
	svc := newTestService(store)

	symbol := "nvda"
	threshold := 120.5
	updated, err := svc.Update(context.Background(), "ext@example.com", "mine", alertDomain.Patch{Symbol: &symbol, Threshold: &threshold})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Symbol != "NVDA" || updated.Threshold != 120.5 {
		t.Errorf("unexpected update: %+v", updated)
	}
	if store.alerts["mine"].Symbol != "NVDA" {
		t.Errorf("expected store updated")
	}

	if _, err := svc.Update(context.Background(), "ext@example.com", "theirs", alertDomain.Patch{Symbol: &symbol}); !errors.Is(err, alertDomain.ErrAlertNotFound) {
		t.Errorf("expected not found for foreign alert, got %v", err)
	}
	if err := svc.Delete(context.Background(), "ext@example.com", "theirs"); !errors.Is(err, alertDomain.ErrAlertNotFound) {
		t.Errorf("expected not found on foreign delete, got %v", err)
	}
	if err := svc.Delete(context.Background(), "ext@example.com", "mine"); err != nil {
		t.Errorf("unexpected delete error: %v", err)
	}

	list, err := svc.List(context.Background(), "legacy@example.com")
	if err != nil || len(list) != 1 || list[0].ID != "theirs" {
		t.Errorf("unexpected list: %+v err=%v", list, err)
	}
}
