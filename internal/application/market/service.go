package market

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	alertDomain "signalist/internal/domain/alert"
	marketDomain "signalist/internal/domain/market"
)

const (
	// MaxArticles 每封摘要信最多的新聞數。
	MaxArticles = 6
	// MaxSearchResults 搜尋最多回傳的筆數。
	MaxSearchResults = 15
	newsLookback     = 5 * 24 * time.Hour
)

// Provider 新聞與搜尋資料來源。
type Provider interface {
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]marketDomain.NewsArticle, error)
	GeneralNews(ctx context.Context) ([]marketDomain.NewsArticle, error)
	Search(ctx context.Context, query string) ([]marketDomain.SearchResult, error)
}

// WatchlistStatus 查詢代號是否已在使用者觀察清單。
type WatchlistStatus interface {
	Status(ctx context.Context, email string, symbols []string) (map[string]bool, error)
}

// Service 新聞彙整與股票搜尋。
type Service struct {
	provider  Provider
	watchlist WatchlistStatus
	logger    *zap.Logger
	now       func() time.Time
}

// NewService 建立市場資料服務；watchlist 可為 nil。
func NewService(provider Provider, watchlist WatchlistStatus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider:  provider,
		watchlist: watchlist,
		logger:    logger,
		now:       time.Now,
	}
}

// News 依代號輪流取公司新聞，最多 MaxArticles 則；沒有代號或沒有結果時改用一般市場新聞。
func (s *Service) News(ctx context.Context, symbols []string) ([]marketDomain.NewsArticle, error) {
	cleaned := uniqueSymbols(symbols)
	if len(cleaned) > 0 {
		if out := s.companyNews(ctx, cleaned); len(out) > 0 {
			return out, nil
		}
	}
	return s.generalNews(ctx)
}

func (s *Service) companyNews(ctx context.Context, symbols []string) []marketDomain.NewsArticle {
	to := s.now().UTC()
	from := to.Add(-newsLookback)

	perSymbol := make([][]marketDomain.NewsArticle, len(symbols))
	for i, sym := range symbols {
		articles, err := s.provider.CompanyNews(ctx, sym, from, to)
		if err != nil {
			s.logger.Warn("fetch company news failed", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		valid := make([]marketDomain.NewsArticle, 0, len(articles))
		for _, a := range articles {
			if a.Valid() {
				valid = append(valid, a)
			}
		}
		perSymbol[i] = valid
	}

	out := make([]marketDomain.NewsArticle, 0, MaxArticles)
	for round := 0; round < MaxArticles && len(out) < MaxArticles; round++ {
		for _, list := range perSymbol {
			if round >= len(list) {
				continue
			}
			out = append(out, list[round])
			if len(out) == MaxArticles {
				break
			}
		}
	}
	return out
}

func (s *Service) generalNews(ctx context.Context) ([]marketDomain.NewsArticle, error) {
	articles, err := s.provider.GeneralNews(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch general news: %w", err)
	}
	seen := make(map[string]struct{}, len(articles))
	out := make([]marketDomain.NewsArticle, 0, MaxArticles)
	for _, a := range articles {
		if !a.Valid() {
			continue
		}
		key := strconv.FormatInt(a.ID, 10) + "|" + a.URL + "|" + a.Headline
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
		if len(out) == MaxArticles {
			break
		}
	}
	return out, nil
}

// Search 搜尋普通股並標記是否已在觀察清單。
func (s *Service) Search(ctx context.Context, email, query string) ([]marketDomain.Stock, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []marketDomain.Stock{}, nil
	}
	results, err := s.provider.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search stocks: %w", err)
	}

	out := make([]marketDomain.Stock, 0, MaxSearchResults)
	for _, r := range results {
		if r.Type != marketDomain.TypeCommonStock || r.Symbol == "" {
			continue
		}
		out = append(out, marketDomain.Stock{
			Symbol: alertDomain.NormalizeSymbol(r.Symbol),
			Name:   r.Description,
			Type:   r.Type,
		})
		if len(out) == MaxSearchResults {
			break
		}
	}

	if s.watchlist == nil || strings.TrimSpace(email) == "" || len(out) == 0 {
		return out, nil
	}
	symbols := make([]string, 0, len(out))
	for _, st := range out {
		symbols = append(symbols, st.Symbol)
	}
	status, err := s.watchlist.Status(ctx, email, symbols)
	if err != nil {
		s.logger.Warn("watchlist status failed", zap.String("email", email), zap.Error(err))
		return out, nil
	}
	for i := range out {
		out[i].InWatchlist = status[out[i].Symbol]
	}
	return out, nil
}

func uniqueSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		sym = alertDomain.NormalizeSymbol(sym)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
