package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	alertDomain "signalist/internal/domain/alert"
	marketDomain "signalist/internal/domain/market"
	userDomain "signalist/internal/domain/user"
	watchDomain "signalist/internal/domain/watchlist"
)

// Store 觀察清單持久化。
type Store interface {
	// Add 重複加入時回傳 ErrAlreadyInWatchlist。
	Add(ctx context.Context, item watchDomain.Item) error
	Remove(ctx context.Context, userID, symbol string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]watchDomain.Item, error)
}

// UserFinder 依 email 查詢使用者。
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (userDomain.User, error)
}

// MarketData 提供報價與基本面資料。
type MarketData interface {
	Quote(ctx context.Context, symbol string) (marketDomain.Quote, error)
	Profile(ctx context.Context, symbol string) (marketDomain.Profile, error)
	Financials(ctx context.Context, symbol string) (marketDomain.Financials, error)
}

// Service 依 email 管理觀察清單。
type Service struct {
	store       Store
	users       UserFinder
	market      MarketData
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// NewService 建立觀察清單服務。
func NewService(store Store, users UserFinder, market MarketData, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		users:       users,
		market:      market,
		logger:      logger,
		concurrency: 4,
		now:         time.Now,
	}
}

// Add 加入一檔股票。
func (s *Service) Add(ctx context.Context, email, symbol, company string) (watchDomain.Item, error) {
	owner, err := s.ownerID(ctx, email)
	if err != nil {
		return watchDomain.Item{}, err
	}
	item := watchDomain.Item{
		UserID:  owner,
		Symbol:  alertDomain.NormalizeSymbol(symbol),
		Company: strings.TrimSpace(company),
		AddedAt: s.now().UTC(),
	}
	if item.Symbol == "" {
		return watchDomain.Item{}, fmt.Errorf("symbol is required")
	}
	if item.Company == "" {
		item.Company = item.Symbol
	}
	if err := s.store.Add(ctx, item); err != nil {
		if errors.Is(err, watchDomain.ErrAlreadyInWatchlist) {
			return watchDomain.Item{}, err
		}
		return watchDomain.Item{}, fmt.Errorf("add watchlist item: %w", err)
	}
	return item, nil
}

// Remove 移除一檔股票，回傳是否有刪除。
func (s *Service) Remove(ctx context.Context, email, symbol string) (bool, error) {
	owner, err := s.ownerID(ctx, email)
	if err != nil {
		return false, err
	}
	return s.store.Remove(ctx, owner, alertDomain.NormalizeSymbol(symbol))
}

// Items 列出使用者的觀察清單。
func (s *Service) Items(ctx context.Context, email string) ([]watchDomain.Item, error) {
	owner, err := s.ownerID(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.store.ListByUser(ctx, owner)
}

// Symbols 列出使用者追蹤的代號；使用者不存在時回傳空清單。
func (s *Service) Symbols(ctx context.Context, email string) ([]string, error) {
	items, err := s.Items(ctx, email)
	if errors.Is(err, userDomain.ErrUserNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Symbol)
	}
	return out, nil
}

// Status 回傳每個代號（大寫）是否已在觀察清單中。
func (s *Service) Status(ctx context.Context, email string, symbols []string) (map[string]bool, error) {
	out := make(map[string]bool, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	owned, err := s.Symbols(ctx, email)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(owned))
	for _, sym := range owned {
		set[sym] = struct{}{}
	}
	for _, sym := range symbols {
		key := alertDomain.NormalizeSymbol(sym)
		_, ok := set[key]
		out[key] = ok
	}
	return out, nil
}

// WithData 觀察清單加上報價與基本面；單檔取價失敗時該列顯示 N/A。
func (s *Service) WithData(ctx context.Context, email string) ([]watchDomain.StockWithData, error) {
	items, err := s.Items(ctx, email)
	if err != nil {
		return nil, err
	}
	out := make([]watchDomain.StockWithData, len(items))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			out[i] = s.enrich(ctx, it)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func (s *Service) enrich(ctx context.Context, it watchDomain.Item) watchDomain.StockWithData {
	var (
		quote      marketDomain.Quote
		profile    marketDomain.Profile
		financials marketDomain.Financials
		g          errgroup.Group
	)
	g.Go(func() error {
		q, err := s.market.Quote(ctx, it.Symbol)
		if err != nil {
			s.logger.Warn("fetch quote failed", zap.String("symbol", it.Symbol), zap.Error(err))
			return nil
		}
		quote = q
		return nil
	})
	g.Go(func() error {
		p, err := s.market.Profile(ctx, it.Symbol)
		if err != nil {
			s.logger.Warn("fetch profile failed", zap.String("symbol", it.Symbol), zap.Error(err))
			return nil
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		f, err := s.market.Financials(ctx, it.Symbol)
		if err != nil {
			s.logger.Warn("fetch financials failed", zap.String("symbol", it.Symbol), zap.Error(err))
			return nil
		}
		financials = f
		return nil
	})
	_ = g.Wait()

	row := watchDomain.StockWithData{Item: it}
	if quote.Current != 0 {
		row.CurrentPrice = &quote.Current
	}
	if quote.ChangePercent != 0 {
		row.ChangePercent = &quote.ChangePercent
	}
	row.PriceFormatted = watchDomain.FormatQuotePrice(row.CurrentPrice)
	row.ChangeFormatted = watchDomain.FormatChange(row.ChangePercent)
	row.MarketCap = watchDomain.FormatMarketCap(profile.MarketCapitalization)
	row.PERatio = watchDomain.FormatRatio(financials.PERatio())
	return row
}

func (s *Service) ownerID(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", userDomain.ErrUserNotFound
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u.OwnerID() == "" {
		return "", userDomain.ErrUserNotFound
	}
	return u.OwnerID(), nil
}
