package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPProviderFetchMarketData(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"subject":"AAPL","as_of_date":"2026-08-21","quotes":[{"date":"2026-08-20","open":100,"high":105,"low":99,"close":104,"volume":1000}]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "secret-key")
	data, err := p.FetchMarketData(context.Background(), "AAPL", "2026-08-21")
	if err != nil {
		t.Fatalf("FetchMarketData() error = %v", err)
	}
	if len(data.Quotes) != 1 || data.Quotes[0].Close != 104 {
		t.Errorf("quotes not decoded: %+v", data.Quotes)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/v1/market" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotQuery, "symbol=AAPL") || !strings.Contains(gotQuery, "date=2026-08-21") {
		t.Errorf("query = %q", gotQuery)
	}
}

func TestHTTPProviderNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "")
	_, err := p.FetchFundamentals(context.Background(), "ZZZZ", "2026-08-21")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("404 should wrap ErrUnavailable, got %v", err)
	}
}

func TestHTTPProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "")
	_, err := p.FetchSocial(context.Background(), "AAPL", "2026-08-21")
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("500 is a fault, not a missing section")
	}
}

func TestHTTPProviderNewsBodiesStripped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"subject":"AAPL","items":[{"title":"Chips","body":"<p>Supply <b>improves</b></p>"}]}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "")
	news, err := p.FetchNews(context.Background(), "AAPL", "2026-08-21")
	if err != nil {
		t.Fatalf("FetchNews() error = %v", err)
	}
	if news.Items[0].Body != "Supply improves" {
		t.Errorf("body not stripped: %q", news.Items[0].Body)
	}
}

func TestHTTPProviderBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, "")
	_, err := p.FetchMarketData(context.Background(), "AAPL", "2026-08-21")
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("want decode error, got %v", err)
	}
}
