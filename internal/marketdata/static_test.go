package marketdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFixture(t *testing.T, dir, subject, date, section, content string) {
	t.Helper()
	path := filepath.Join(dir, subject, date)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, section+".json"), []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestFixtureProviderLoads(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "AAPL", "2026-08-21", "market",
		`{"subject":"AAPL","as_of_date":"2026-08-21","quotes":[{"date":"2026-08-20","close":104}]}`)
	writeFixture(t, dir, "AAPL", "2026-08-21", "news",
		`{"subject":"AAPL","items":[{"title":"Launch","body":"<p>New <i>device</i></p>"}]}`)

	p := NewFixtureProvider(dir)

	market, err := p.FetchMarketData(context.Background(), "AAPL", "2026-08-21")
	if err != nil {
		t.Fatalf("FetchMarketData() error = %v", err)
	}
	if len(market.Quotes) != 1 || market.Quotes[0].Close != 104 {
		t.Errorf("quotes wrong: %+v", market.Quotes)
	}

	news, err := p.FetchNews(context.Background(), "AAPL", "2026-08-21")
	if err != nil {
		t.Fatalf("FetchNews() error = %v", err)
	}
	if news.Items[0].Body != "New device" {
		t.Errorf("fixture news body not stripped: %q", news.Items[0].Body)
	}
}

func TestFixtureProviderMissing(t *testing.T) {
	p := NewFixtureProvider(t.TempDir())
	_, err := p.FetchFundamentals(context.Background(), "AAPL", "2026-08-21")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("missing fixture should wrap ErrUnavailable, got %v", err)
	}
}

func TestFixtureProviderBadJSON(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "AAPL", "2026-08-21", "social", `{broken`)

	p := NewFixtureProvider(dir)
	_, err := p.FetchSocial(context.Background(), "AAPL", "2026-08-21")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("corrupt fixture is a fault, not a missing section")
	}
}
