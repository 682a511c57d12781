package watchlist

import (
	"errors"
	"time"

	marketDomain "signalist/internal/domain/market"
)

// ErrAlreadyInWatchlist 同一使用者重複加入同一檔股票。
var ErrAlreadyInWatchlist = errors.New("symbol already in watchlist")

// NotAvailable 缺資料時顯示的字串。
const NotAvailable = "N/A"

// Item 使用者追蹤的股票。
type Item struct {
	UserID  string
	Symbol  string
	Company string
	AddedAt time.Time
}

// StockWithData 觀察清單列加上即時報價與基本面。
type StockWithData struct {
	Item
	CurrentPrice    *float64
	ChangePercent   *float64
	PriceFormatted  string
	ChangeFormatted string
	MarketCap       string
	PERatio         string
}

// FormatQuotePrice 價格為 0 或缺少時回傳 N/A。
func FormatQuotePrice(v *float64) string {
	if v == nil || *v == 0 {
		return NotAvailable
	}
	return "$" + marketDomain.Fixed(*v, 2)
}

// FormatChange 漲跌幅，正值加上 +。
func FormatChange(v *float64) string {
	if v == nil || *v == 0 {
		return NotAvailable
	}
	s := marketDomain.Fixed(*v, 2) + "%"
	if *v > 0 {
		return "+" + s
	}
	return s
}

// FormatMarketCap 市值（百萬）轉為 T/B/M 表示。
func FormatMarketCap(millions float64) string {
	if millions == 0 {
		return NotAvailable
	}
	switch {
	case millions >= 1_000_000:
		return "$" + marketDomain.Fixed(millions/1_000_000, 1) + "T"
	case millions >= 1_000:
		return "$" + marketDomain.Fixed(millions/1_000, 1) + "B"
	default:
		return "$" + marketDomain.Fixed(millions, 1) + "M"
	}
}

// FormatRatio 本益比，缺少時回傳 N/A。
func FormatRatio(v float64, ok bool) string {
	if !ok || v == 0 {
		return NotAvailable
	}
	return marketDomain.Fixed(v, 2)
}
