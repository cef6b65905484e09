// Package marketdata defines the data sections analysts read and the
// providers that fetch them. Each analyst role consumes exactly one
// section; the collector assembles the sections a run needs before any
// reasoning spend happens.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
)

// ErrUnavailable marks a section a provider could not deliver. The
// collector turns one of these into a warning, and all of them into a
// fatal run error.
var ErrUnavailable = errors.New("market data unavailable")

// Quote is one trading day of price action.
type Quote struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// MarketData is the price history section.
type MarketData struct {
	Subject  string  `json:"subject"`
	AsOfDate string  `json:"as_of_date"`
	Quotes   []Quote `json:"quotes"`
}

// Metric is one named fundamentals figure, kept as text so the
// provider controls formatting (ratios, currencies, percentages).
type Metric struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fundamentals is the company financials section.
type Fundamentals struct {
	Subject  string   `json:"subject"`
	AsOfDate string   `json:"as_of_date"`
	Metrics  []Metric `json:"metrics"`
}

// NewsItem is one article. Body holds plain text; HTML bodies are
// stripped by the provider before they land here.
type NewsItem struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	Published string `json:"published"`
	Body      string `json:"body"`
}

// News is the headlines section.
type News struct {
	Subject  string     `json:"subject"`
	AsOfDate string     `json:"as_of_date"`
	Items    []NewsItem `json:"items"`
}

// SocialPost is one public post about the subject.
type SocialPost struct {
	Platform string `json:"platform"`
	Author   string `json:"author"`
	Posted   string `json:"posted"`
	Score    int    `json:"score"`
	Body     string `json:"body"`
}

// Social is the public-sentiment section.
type Social struct {
	Subject  string       `json:"subject"`
	AsOfDate string       `json:"as_of_date"`
	Posts    []SocialPost `json:"posts"`
}

// Provider fetches data sections. Implementations must be safe for
// concurrent use across runs. A missing section is reported by
// wrapping ErrUnavailable.
type Provider interface {
	FetchMarketData(ctx context.Context, subject, asOfDate string) (*MarketData, error)
	FetchFundamentals(ctx context.Context, subject, asOfDate string) (*Fundamentals, error)
	FetchNews(ctx context.Context, subject, asOfDate string) (*News, error)
	FetchSocial(ctx context.Context, subject, asOfDate string) (*Social, error)
}

// Render formats the price history for a prompt context.
func (m *MarketData) Render() string {
	if m == nil || len(m.Quotes) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Price history for %s (as of %s):\n", m.Subject, m.AsOfDate)
	b.WriteString("date | open | high | low | close | volume\n")
	for _, q := range m.Quotes {
		fmt.Fprintf(&b, "%s | %.2f | %.2f | %.2f | %.2f | %d\n",
			q.Date, q.Open, q.High, q.Low, q.Close, q.Volume)
	}
	return b.String()
}

// Render formats the fundamentals for a prompt context.
func (f *Fundamentals) Render() string {
	if f == nil || len(f.Metrics) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Fundamentals for %s (as of %s):\n", f.Subject, f.AsOfDate)
	for _, m := range f.Metrics {
		fmt.Fprintf(&b, "%s: %s\n", m.Name, m.Value)
	}
	return b.String()
}

// Render formats the news section for a prompt context.
func (n *News) Render() string {
	if n == nil || len(n.Items) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "News for %s (as of %s):\n", n.Subject, n.AsOfDate)
	for _, item := range n.Items {
		fmt.Fprintf(&b, "\n[%s] %s (%s)\n", item.Published, item.Title, item.Source)
		if item.Body != "" {
			b.WriteString(item.Body)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Render formats the sentiment section for a prompt context.
func (s *Social) Render() string {
	if s == nil || len(s.Posts) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Public sentiment for %s (as of %s):\n", s.Subject, s.AsOfDate)
	for _, p := range s.Posts {
		fmt.Fprintf(&b, "\n%s @%s (%s, score %d):\n%s\n", p.Platform, p.Author, p.Posted, p.Score, p.Body)
	}
	return b.String()
}

// SectionRole maps analyst roles to the section each one reads.
// Non-analyst roles have no section.
func SectionRole(role roles.Role) string {
	switch role {
	case roles.MarketAnalyst:
		return "market"
	case roles.FundamentalsAnalyst:
		return "fundamentals"
	case roles.NewsAnalyst:
		return "news"
	case roles.SocialAnalyst:
		return "social"
	}
	return ""
}
