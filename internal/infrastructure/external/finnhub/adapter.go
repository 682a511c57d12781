package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	marketDomain "signalist/internal/domain/market"
	"signalist/internal/infrastructure/cache"
)

// DefaultCacheTTL 公司資料與基本面的快取時間。
const DefaultCacheTTL = time.Hour

// CacheObserver 記錄快取命中。
type CacheObserver interface {
	ObserveCache(hit bool)
}

// Adapter 將 Client 接到警示、觀察清單與新聞服務；報價不快取。
type Adapter struct {
	client   *Client
	store    cache.Store
	ttl      time.Duration
	observer CacheObserver
	logger   *zap.Logger
}

// NewAdapter 建立 Adapter；store 為 nil 時不快取。
func NewAdapter(client *Client, store cache.Store, ttl time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Adapter{client: client, store: store, ttl: ttl, logger: logger}
}

// WithObserver 設定快取指標。
func (a *Adapter) WithObserver(o CacheObserver) *Adapter {
	a.observer = o
	return a
}

// LatestPrice 取得目前價格；任何錯誤或價格為 0 都視為無法取得。
func (a *Adapter) LatestPrice(ctx context.Context, symbol string) (float64, bool) {
	q, err := a.client.Quote(ctx, symbol)
	if err != nil {
		// 缺少 token 已在啟動時警告過一次。
		if !errors.Is(err, ErrMissingToken) {
			a.logger.Warn("fetch quote failed", zap.String("symbol", symbol), zap.Error(err))
		}
		return 0, false
	}
	if q.Current == 0 || math.IsNaN(q.Current) || math.IsInf(q.Current, 0) {
		return 0, false
	}
	return q.Current, true
}

func (a *Adapter) Quote(ctx context.Context, symbol string) (marketDomain.Quote, error) {
	return a.client.Quote(ctx, symbol)
}

func (a *Adapter) Profile(ctx context.Context, symbol string) (marketDomain.Profile, error) {
	return cached(ctx, a, "finnhub:profile:"+strings.ToUpper(symbol), func(ctx context.Context) (marketDomain.Profile, error) {
		return a.client.Profile(ctx, symbol)
	})
}

func (a *Adapter) Financials(ctx context.Context, symbol string) (marketDomain.Financials, error) {
	return cached(ctx, a, "finnhub:metric:"+strings.ToUpper(symbol), func(ctx context.Context) (marketDomain.Financials, error) {
		return a.client.Financials(ctx, symbol)
	})
}

func (a *Adapter) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]marketDomain.NewsArticle, error) {
	return a.client.CompanyNews(ctx, symbol, from, to)
}

func (a *Adapter) GeneralNews(ctx context.Context) ([]marketDomain.NewsArticle, error) {
	return a.client.GeneralNews(ctx)
}

func (a *Adapter) Search(ctx context.Context, query string) ([]marketDomain.SearchResult, error) {
	return a.client.Search(ctx, query)
}

func cached[T any](ctx context.Context, a *Adapter, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if a.store != nil {
		raw, ok, err := a.store.Get(ctx, key)
		if err != nil {
			a.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		if ok {
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				a.observe(true)
				return v, nil
			}
		}
		a.observe(false)
	}

	v, err := fetch(ctx)
	if err != nil {
		return zero, err
	}
	if a.store != nil {
		if raw, err := json.Marshal(v); err == nil {
			if err := a.store.Set(ctx, key, raw, a.ttl); err != nil {
				a.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return v, nil
}

func (a *Adapter) observe(hit bool) {
	if a.observer != nil {
		a.observer.ObserveCache(hit)
	}
}
