package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	marketDomain "signalist/internal/domain/market"
)

// DefaultBaseURL Finnhub REST API。
const DefaultBaseURL = "https://finnhub.io/api/v1"

const dateLayout = "2006-01-02"

// ErrMissingToken 未設定 API key。
var ErrMissingToken = errors.New("finnhub api key is not configured")

// Limiter 送出請求前等待配額。
type Limiter interface {
	Wait(ctx context.Context) error
}

// Client Finnhub HTTP client。
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    Limiter
}

// NewClient 建立 client；baseURL 空白時使用 DefaultBaseURL。
func NewClient(token, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithLimiter 設定限流器。
func (c *Client) WithLimiter(l Limiter) *Client {
	c.limiter = l
	return c
}

func (c *Client) call(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.token == "" {
		return ErrMissingToken
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("finnhub api error (status %d) %s: %s", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Quote 即時報價。
func (c *Client) Quote(ctx context.Context, symbol string) (marketDomain.Quote, error) {
	var q marketDomain.Quote
	err := c.call(ctx, "/quote", url.Values{"symbol": {symbol}}, &q)
	return q, err
}

// Profile 公司基本資料。
func (c *Client) Profile(ctx context.Context, symbol string) (marketDomain.Profile, error) {
	var p marketDomain.Profile
	err := c.call(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &p)
	return p, err
}

// Financials 全部基本面指標。
func (c *Client) Financials(ctx context.Context, symbol string) (marketDomain.Financials, error) {
	var f marketDomain.Financials
	err := c.call(ctx, "/stock/metric", url.Values{"symbol": {symbol}, "metric": {"all"}}, &f)
	return f, err
}

type searchResponse struct {
	Count  int                         `json:"count"`
	Result []marketDomain.SearchResult `json:"result"`
}

// Search 依關鍵字搜尋代號。
func (c *Client) Search(ctx context.Context, query string) ([]marketDomain.SearchResult, error) {
	var resp searchResponse
	if err := c.call(ctx, "/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// CompanyNews 指定期間的公司新聞。
func (c *Client) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]marketDomain.NewsArticle, error) {
	var out []marketDomain.NewsArticle
	params := url.Values{
		"symbol": {symbol},
		"from":   {from.UTC().Format(dateLayout)},
		"to":     {to.UTC().Format(dateLayout)},
	}
	if err := c.call(ctx, "/company-news", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GeneralNews 一般市場新聞。
func (c *Client) GeneralNews(ctx context.Context) ([]marketDomain.NewsArticle, error) {
	var out []marketDomain.NewsArticle
	if err := c.call(ctx, "/news", url.Values{"category": {"general"}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
