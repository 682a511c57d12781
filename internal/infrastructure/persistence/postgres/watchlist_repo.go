package postgres

import (
	"context"
	"database/sql"
	"fmt"

	watchDomain "signalist/internal/domain/watchlist"
)

// WatchlistRepo 觀察清單存取。
type WatchlistRepo struct {
	db *sql.DB
}

// NewWatchlistRepo 建立 WatchlistRepo。
func NewWatchlistRepo(db *sql.DB) *WatchlistRepo {
	return &WatchlistRepo{db: db}
}

// Add 新增項目；(user_id, symbol) 已存在時回傳 ErrAlreadyInWatchlist。
func (r *WatchlistRepo) Add(ctx context.Context, item watchDomain.Item) error {
	const q = `
INSERT INTO watchlist_items (user_id, symbol, company, added_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, symbol) DO NOTHING;
`
	res, err := r.db.ExecContext(ctx, q, item.UserID, item.Symbol, item.Company, item.AddedAt)
	if err != nil {
		return fmt.Errorf("insert watchlist item: %w", err)
	}
	return requireAffected(res, watchDomain.ErrAlreadyInWatchlist)
}

// Remove 刪除項目並回傳是否存在。
func (r *WatchlistRepo) Remove(ctx context.Context, userID, symbol string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watchlist_items WHERE user_id = $1 AND symbol = $2;`, userID, symbol)
	if err != nil {
		return false, fmt.Errorf("delete watchlist item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser 列出使用者的觀察清單，新到舊。
func (r *WatchlistRepo) ListByUser(ctx context.Context, userID string) ([]watchDomain.Item, error) {
	const q = `
SELECT user_id, symbol, company, added_at
FROM watchlist_items
WHERE user_id = $1
ORDER BY added_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()
	var out []watchDomain.Item
	for rows.Next() {
		var it watchDomain.Item
		if err := rows.Scan(&it.UserID, &it.Symbol, &it.Company, &it.AddedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
