package market

// Quote Finnhub /quote 回應。
type Quote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// Profile Finnhub /stock/profile2 回應；市值單位為百萬。
type Profile struct {
	Name                 string  `json:"name"`
	Ticker               string  `json:"ticker"`
	Exchange             string  `json:"exchange"`
	Industry             string  `json:"finnhubIndustry"`
	Country              string  `json:"country"`
	Currency             string  `json:"currency"`
	Logo                 string  `json:"logo"`
	WebURL               string  `json:"weburl"`
	IPO                  string  `json:"ipo"`
	MarketCapitalization float64 `json:"marketCapitalization"`
}

// Financials Finnhub /stock/metric 回應，metric 欄位型別不一。
type Financials struct {
	Symbol string                 `json:"symbol"`
	Metric map[string]interface{} `json:"metric"`
}

// PERatio 取出 peBasicExclExtraTTM。
func (f Financials) PERatio() (float64, bool) {
	if f.Metric == nil {
		return 0, false
	}
	v, ok := f.Metric["peBasicExclExtraTTM"].(float64)
	return v, ok
}

// NewsArticle 公司或市場新聞。
type NewsArticle struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Image    string `json:"image"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// Valid 具備摘要信所需欄位。
func (a NewsArticle) Valid() bool {
	return a.Headline != "" && a.Summary != "" && a.URL != "" && a.Datetime != 0
}

// TypeCommonStock 搜尋時保留的證券類型。
const TypeCommonStock = "Common Stock"

// SearchResult Finnhub /search 單筆結果。
type SearchResult struct {
	Description   string `json:"description"`
	DisplaySymbol string `json:"displaySymbol"`
	Symbol        string `json:"symbol"`
	Type          string `json:"type"`
}

// Stock 搜尋結果加上觀察清單狀態。
type Stock struct {
	Symbol      string
	Name        string
	Type        string
	InWatchlist bool
}
