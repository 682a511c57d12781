package engagement

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// VisitUseCase 記錄使用者最後造訪時間。
type VisitUseCase struct {
	users UserDirectory
	now   func() time.Time
}

// NewVisitUseCase 建立造訪紀錄流程。
func NewVisitUseCase(users UserDirectory) *VisitUseCase {
	return &VisitUseCase{users: users, now: time.Now}
}

// Record 更新 email 對應使用者的最後造訪時間。
func (u *VisitUseCase) Record(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	if err := u.users.TouchLastVisit(ctx, email, u.now().UTC()); err != nil {
		return fmt.Errorf("update last visit: %w", err)
	}
	return nil
}
