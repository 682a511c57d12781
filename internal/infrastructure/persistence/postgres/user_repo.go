package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	userDomain "signalist/internal/domain/user"
)

// UserRepo 讀取驗證服務建立的使用者。
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo 建立 UserRepo。
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, COALESCE(external_id, ''), COALESCE(email, ''), COALESCE(name, ''), COALESCE(country, ''),
COALESCE(investment_goals, ''), COALESCE(risk_tolerance, ''), COALESCE(preferred_industry, ''), last_visit, created_at`

// FindByEmail 依 email 查詢使用者。
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (userDomain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1;`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return userDomain.User{}, userDomain.ErrUserNotFound
	}
	return u, err
}

// ResolveEmails 先以 external_id 比對，未命中者再以舊版 id 比對。
func (r *UserRepo) ResolveEmails(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const byExternal = `SELECT external_id, email FROM users WHERE external_id = ANY($1) AND email IS NOT NULL AND email <> '';`
	if err := r.collect(ctx, byExternal, ids, out); err != nil {
		return nil, fmt.Errorf("resolve by external id: %w", err)
	}

	remaining := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		return out, nil
	}
	const byLegacy = `SELECT id, email FROM users WHERE id = ANY($1) AND email IS NOT NULL AND email <> '';`
	if err := r.collect(ctx, byLegacy, remaining, out); err != nil {
		return nil, fmt.Errorf("resolve by legacy id: %w", err)
	}
	return out, nil
}

func (r *UserRepo) collect(ctx context.Context, q string, ids []string, out map[string]string) error {
	rows, err := r.db.QueryContext(ctx, q, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return err
		}
		if _, ok := out[id]; !ok {
			out[id] = email
		}
	}
	return rows.Err()
}

// ListContactable 列出具備 email 與名稱的使用者。
func (r *UserRepo) ListContactable(ctx context.Context) ([]userDomain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users
WHERE email IS NOT NULL AND email <> '' AND name IS NOT NULL AND name <> ''
ORDER BY email;`
	return r.query(ctx, q)
}

// ListInactive 列出從未造訪或最後造訪早於 cutoff 的使用者。
func (r *UserRepo) ListInactive(ctx context.Context, cutoff time.Time) ([]userDomain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users
WHERE email IS NOT NULL AND email <> '' AND name IS NOT NULL AND name <> ''
  AND (last_visit IS NULL OR last_visit < $1)
ORDER BY email;`
	return r.query(ctx, q, cutoff)
}

// TouchLastVisit 更新最後造訪時間，不存在的 email 不視為錯誤。
func (r *UserRepo) TouchLastVisit(ctx context.Context, email string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_visit = $2 WHERE email = $1;`, email, at); err != nil {
		return fmt.Errorf("touch last visit: %w", err)
	}
	return nil
}

func (r *UserRepo) query(ctx context.Context, q string, args ...interface{}) ([]userDomain.User, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()
	var out []userDomain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(s rowScanner) (userDomain.User, error) {
	var (
		u    userDomain.User
		last sql.NullTime
	)
	if err := s.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.Country,
		&u.InvestmentGoals, &u.RiskTolerance, &u.PreferredIndustry, &last, &u.CreatedAt); err != nil {
		return userDomain.User{}, err
	}
	if last.Valid {
		t := last.Time.UTC()
		u.LastVisit = &t
	}
	return u, nil
}
