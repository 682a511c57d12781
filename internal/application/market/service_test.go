package market

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	marketDomain "signalist/internal/domain/market"
)

type fakeProvider struct {
	company    map[string][]marketDomain.NewsArticle
	companyErr map[string]error
	general    []marketDomain.NewsArticle
	generalErr error
	results    []marketDomain.SearchResult
	from, to   time.Time
}

func (f *fakeProvider) CompanyNews(_ context.Context, symbol string, from, to time.Time) ([]marketDomain.NewsArticle, error) {
	f.from, f.to = from, to
	if err := f.companyErr[symbol]; err != nil {
		return nil, err
	}
	return f.company[symbol], nil
}

func (f *fakeProvider) GeneralNews(context.Context) ([]marketDomain.NewsArticle, error) {
	return f.general, f.generalErr
}

func (f *fakeProvider) Search(context.Context, string) ([]marketDomain.SearchResult, error) {
	return f.results, nil
}

type fakeStatus map[string]bool

func (f fakeStatus) Status(context.Context, string, []string) (map[string]bool, error) {
	return f, nil
}

func article(id int64, symbol string) marketDomain.NewsArticle {
	return marketDomain.NewsArticle{
		ID:       id,
		Related:  symbol,
		Headline: fmt.Sprintf("%s headline %d", symbol, id),
		Summary:  "summary",
		URL:      fmt.Sprintf("https://news.example.com/%d", id),
		Datetime: 1760400000 + id,
	}
}

var now = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func newTestService(p *fakeProvider, status WatchlistStatus) *Service {
	svc := NewService(p, status, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func TestService_NewsRoundRobin(t *testing.T) {
	p := &fakeProvider{company: map[string][]marketDomain.NewsArticle{
		"AAPL": {article(1, "AAPL"), article(2, "AAPL"), article(3, "AAPL"), article(4, "AAPL")},
		"MSFT": {article(11, "MSFT"), {ID: 12, Headline: "no url"}, article(13, "MSFT")},
		"TSLA": {article(21, "TSLA")},
	}}
	got, err := newTestService(p, nil).News(context.Background(), []string{"aapl", "MSFT", "tsla", "AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantIDs := []int64{1, 11, 21, 2, 13, 3}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d articles, got %d", len(wantIDs), len(got))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("article %d: expected id %d, got %d", i, id, got[i].ID)
		}
	}
	if !p.to.Equal(now) || !p.from.Equal(now.Add(-5*24*time.Hour)) {
		t.Errorf("unexpected range %v - %v", p.from, p.to)
	}
}

func TestService_NewsFallsBackToGeneral(t *testing.T) {
	dup := article(5, "")
	p := &fakeProvider{
		companyErr: map[string]error{"AAPL": errors.New("rate limited")},
		general: []marketDomain.NewsArticle{
			dup, dup, article(6, ""), {ID: 7, Headline: "missing summary", URL: "https://x"},
			article(8, ""), article(9, ""), article(10, ""), article(11, ""), article(12, ""),
		},
	}
	got, err := newTestService(p, nil).News(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != MaxArticles {
		t.Fatalf("expected %d articles, got %d", MaxArticles, len(got))
	}
	if got[0].ID != 5 || got[1].ID != 6 || got[2].ID != 8 {
		t.Errorf("expected de-duplicated general news, got ids %d %d %d", got[0].ID, got[1].ID, got[2].ID)
	}

	empty, err := newTestService(p, nil).News(context.Background(), nil)
	if err != nil || len(empty) != MaxArticles {
		t.Errorf("expected general news without symbols, got %d err=%v", len(empty), err)
	}
}

func TestService_NewsGeneralError(t *testing.T) {
	p := &fakeProvider{generalErr: errors.New("down")}
	if _, err := newTestService(p, nil).News(context.Background(), nil); err == nil {
		t.Fatal("expected error when general news fails")
	}
}

func TestService_Search(t *testing.T) {
	p := &fakeProvider{}
	for i := 0; i < 20; i++ {
		p.results = append(p.results, marketDomain.SearchResult{Symbol: fmt.Sprintf("S%02d", i), Description: "Co", Type: marketDomain.TypeCommonStock})
	}
	p.results = append([]marketDomain.SearchResult{{Symbol: "AAPL.MX", Type: "ETP"}}, p.results...)

	got, err := newTestService(p, fakeStatus{"S01": true}).Search(context.Background(), "a@example.com", " s ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != MaxSearchResults {
		t.Fatalf("expected %d results, got %d", MaxSearchResults, len(got))
	}
	if got[0].Symbol != "S00" || got[0].InWatchlist || !got[1].InWatchlist {
		t.Errorf("unexpected results: %+v", got[:2])
	}

	none, _ := newTestService(p, nil).Search(context.Background(), "", "  ")
	if len(none) != 0 {
		t.Errorf("expected empty result for blank query")
	}
}
