package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	alertDomain "signalist/internal/domain/alert"
	userDomain "signalist/internal/domain/user"
)

// CreateInput 新增警示的輸入。
type CreateInput struct {
	AlertName string
	Symbol    string
	Company   string
	AlertType string
	Condition alertDomain.Condition
	Threshold float64
	Frequency alertDomain.Frequency
}

// Service 依使用者 email 管理警示。
type Service struct {
	store Store
	users UserFinder
	now   func() time.Time
}

// NewService 建立警示管理服務。
func NewService(store Store, users UserFinder) *Service {
	return &Service{
		store: store,
		users: users,
		now:   time.Now,
	}
}

// Create 為 email 對應的使用者新增警示。
func (s *Service) Create(ctx context.Context, email string, in CreateInput) (alertDomain.Alert, error) {
	owner, err := s.ownerID(ctx, email)
	if err != nil {
		return alertDomain.Alert{}, err
	}
	a := alertDomain.Alert{
		UserID:    owner,
		Symbol:    in.Symbol,
		Company:   in.Company,
		AlertName: in.AlertName,
		AlertType: in.AlertType,
		Condition: in.Condition,
		Threshold: in.Threshold,
		Frequency: in.Frequency,
		CreatedAt: s.now().UTC(),
	}.Normalized()
	if err := a.Validate(); err != nil {
		return alertDomain.Alert{}, err
	}
	created, err := s.store.Insert(ctx, a)
	if err != nil {
		return alertDomain.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	return created, nil
}

// List 列出使用者的警示，新到舊。
func (s *Service) List(ctx context.Context, email string) ([]alertDomain.Alert, error) {
	owner, err := s.ownerID(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, owner)
}

// Update 局部更新使用者自己的警示。
func (s *Service) Update(ctx context.Context, email, id string, patch alertDomain.Patch) (alertDomain.Alert, error) {
	if strings.TrimSpace(id) == "" {
		return alertDomain.Alert{}, alertDomain.ErrAlertNotFound
	}
	owner, err := s.ownerID(ctx, email)
	if err != nil {
		return alertDomain.Alert{}, err
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return alertDomain.Alert{}, err
	}
	if current.UserID != owner {
		return alertDomain.Alert{}, alertDomain.ErrAlertNotFound
	}
	if patch.Empty() {
		return current, nil
	}
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return alertDomain.Alert{}, err
	}
	if err := s.store.Update(ctx, updated); err != nil {
		return alertDomain.Alert{}, fmt.Errorf("update alert: %w", err)
	}
	return updated, nil
}

// Delete 刪除使用者自己的警示。
func (s *Service) Delete(ctx context.Context, email, id string) error {
	if strings.TrimSpace(id) == "" {
		return alertDomain.ErrAlertNotFound
	}
	owner, err := s.ownerID(ctx, email)
	if err != nil {
		return err
	}
	return s.store.Delete(ctx, id, owner)
}

func (s *Service) ownerID(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", userDomain.ErrUserNotFound
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			return "", err
		}
		return "", fmt.Errorf("find user: %w", err)
	}
	owner := u.OwnerID()
	if owner == "" {
		return "", userDomain.ErrUserNotFound
	}
	return owner, nil
}
