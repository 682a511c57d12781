package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	alertDomain "signalist/internal/domain/alert"
)

// AlertRepo 價格警示與觸發紀錄的存取。
type AlertRepo struct {
	db *sql.DB
}

// NewAlertRepo 建立 AlertRepo。
func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

const alertColumns = `id, user_id, symbol, company, alert_name, alert_type, condition, threshold, frequency, created_at, last_triggered_at`

// Insert 新增警示並回傳含 id 的資料。
func (r *AlertRepo) Insert(ctx context.Context, a alertDomain.Alert) (alertDomain.Alert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO alerts (id, user_id, symbol, company, alert_name, alert_type, condition, threshold, frequency, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.UserID, a.Symbol, a.Company, a.AlertName, a.AlertType,
		string(a.Condition), a.Threshold, string(a.Frequency), a.CreatedAt); err != nil {
		return alertDomain.Alert{}, fmt.Errorf("insert alert: %w", err)
	}
	return a, nil
}

// Update 依 id 與擁有者更新可編輯欄位。
func (r *AlertRepo) Update(ctx context.Context, a alertDomain.Alert) error {
	const q = `
UPDATE alerts
SET alert_name = $3, symbol = $4, company = $5, condition = $6, threshold = $7, frequency = $8
WHERE id = $1 AND user_id = $2;
`
	res, err := r.db.ExecContext(ctx, q, a.ID, a.UserID, a.AlertName, a.Symbol, a.Company,
		string(a.Condition), a.Threshold, string(a.Frequency))
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	return requireAffected(res, alertDomain.ErrAlertNotFound)
}

// Delete 依 id 與擁有者刪除。
func (r *AlertRepo) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2;`, id, userID)
	if err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return requireAffected(res, alertDomain.ErrAlertNotFound)
}

// Get 依 id 取得警示。
func (r *AlertRepo) Get(ctx context.Context, id string) (alertDomain.Alert, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1;`, id)
	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return alertDomain.Alert{}, alertDomain.ErrAlertNotFound
	}
	return a, err
}

// ListByUser 列出使用者的警示，新到舊。
func (r *AlertRepo) ListByUser(ctx context.Context, userID string) ([]alertDomain.Alert, error) {
	return r.query(ctx, `SELECT `+alertColumns+` FROM alerts WHERE user_id = $1 ORDER BY created_at DESC;`, userID)
}

// ListByFrequency 列出指定頻率的警示。
func (r *AlertRepo) ListByFrequency(ctx context.Context, freq alertDomain.Frequency) ([]alertDomain.Alert, error) {
	return r.query(ctx, `SELECT `+alertColumns+` FROM alerts WHERE frequency = $1 ORDER BY created_at;`, string(freq))
}

// ClaimWindow 以條件式更新取得區間寄送權。
func (r *AlertRepo) ClaimWindow(ctx context.Context, id, window string, now time.Time, lease time.Duration) (bool, error) {
	const q = `
UPDATE alerts
SET claim_window = $2, claimed_at = $3
WHERE id = $1
  AND notified_window IS DISTINCT FROM $2
  AND (claim_window IS DISTINCT FROM $2 OR claimed_at IS NULL OR claimed_at < $4);
`
	res, err := r.db.ExecContext(ctx, q, id, window, now, now.Add(-lease))
	if err != nil {
		return false, fmt.Errorf("claim alert window: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CommitTrigger 寫入觸發時間並標記區間已通知。
func (r *AlertRepo) CommitTrigger(ctx context.Context, id, window string, at time.Time) error {
	const q = `
UPDATE alerts
SET last_triggered_at = $3, notified_window = $2, claim_window = NULL, claimed_at = NULL
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, id, window, at)
	if err != nil {
		return fmt.Errorf("commit alert trigger: %w", err)
	}
	return requireAffected(res, alertDomain.ErrAlertNotFound)
}

// ReleaseWindow 釋放尚未提交的 claim。
func (r *AlertRepo) ReleaseWindow(ctx context.Context, id, window string) error {
	const q = `UPDATE alerts SET claim_window = NULL, claimed_at = NULL WHERE id = $1 AND claim_window = $2;`
	if _, err := r.db.ExecContext(ctx, q, id, window); err != nil {
		return fmt.Errorf("release alert window: %w", err)
	}
	return nil
}

func (r *AlertRepo) query(ctx context.Context, q string, args ...interface{}) ([]alertDomain.Alert, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []alertDomain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(s rowScanner) (alertDomain.Alert, error) {
	var (
		a         alertDomain.Alert
		condition string
		frequency string
		last      sql.NullTime
	)
	if err := s.Scan(&a.ID, &a.UserID, &a.Symbol, &a.Company, &a.AlertName, &a.AlertType,
		&condition, &a.Threshold, &frequency, &a.CreatedAt, &last); err != nil {
		return alertDomain.Alert{}, err
	}
	a.Condition = alertDomain.Condition(condition)
	a.Frequency = alertDomain.Frequency(frequency)
	if last.Valid {
		t := last.Time.UTC()
		a.LastTriggeredAt = &t
	}
	return a, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
