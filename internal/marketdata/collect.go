package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/guangxiangdebizi/tradingagents/internal/roles"
)

const defaultFetchTimeout = 30 * time.Second

// Bundle holds the sections gathered for one run. Nil sections were
// either not needed or not deliverable; Warnings records the latter.
type Bundle struct {
	Market       *MarketData
	Fundamentals *Fundamentals
	News         *News
	Social       *Social
	Warnings     []string
}

// Empty reports whether no section was gathered at all.
func (b *Bundle) Empty() bool {
	return b.Market == nil && b.Fundamentals == nil && b.News == nil && b.Social == nil
}

// SectionFor returns the rendered data slice an analyst role reads.
// Empty string means the section is missing or the role reads none.
func (b *Bundle) SectionFor(role roles.Role) string {
	switch role {
	case roles.MarketAnalyst:
		return b.Market.Render()
	case roles.FundamentalsAnalyst:
		return b.Fundamentals.Render()
	case roles.NewsAnalyst:
		return b.News.Render()
	case roles.SocialAnalyst:
		return b.Social.Render()
	}
	return ""
}

// Collector fetches the sections a run's selected analysts need.
type Collector struct {
	provider Provider
	timeout  time.Duration
	log      *logging.Logger
}

// NewCollector wraps a provider with per-fetch timeouts and logging.
func NewCollector(provider Provider, timeout time.Duration, log *logging.Logger) *Collector {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if log == nil {
		log = logging.New().WithComponent("marketdata")
	}
	return &Collector{provider: provider, timeout: timeout, log: log}
}

// Collect fetches one section per selected analyst role. A failed
// fetch becomes a warning and the run degrades; if every fetch fails
// the returned error wraps ErrUnavailable and the run must stop before
// any reasoning call is made.
func (c *Collector) Collect(ctx context.Context, subject, asOfDate string, selected []roles.Role) (*Bundle, error) {
	bundle := &Bundle{}
	attempted := 0

	for _, role := range selected {
		if !role.IsAnalyst() {
			continue
		}
		attempted++
		if err := c.fetch(ctx, bundle, role, subject, asOfDate); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			warning := fmt.Sprintf("%s data unavailable: %v", SectionRole(role), err)
			bundle.Warnings = append(bundle.Warnings, warning)
			c.log.Warn("data fetch failed", map[string]interface{}{
				"subject": subject,
				"section": SectionRole(role),
				"error":   err.Error(),
			})
		}
	}

	if attempted > 0 && bundle.Empty() {
		return nil, fmt.Errorf("%w: all %d sections failed for %s as of %s",
			ErrUnavailable, attempted, subject, asOfDate)
	}
	return bundle, nil
}

func (c *Collector) fetch(ctx context.Context, bundle *Bundle, role roles.Role, subject, asOfDate string) error {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	switch role {
	case roles.MarketAnalyst:
		data, err := c.provider.FetchMarketData(fetchCtx, subject, asOfDate)
		if err != nil {
			return err
		}
		bundle.Market = data
	case roles.FundamentalsAnalyst:
		data, err := c.provider.FetchFundamentals(fetchCtx, subject, asOfDate)
		if err != nil {
			return err
		}
		bundle.Fundamentals = data
	case roles.NewsAnalyst:
		data, err := c.provider.FetchNews(fetchCtx, subject, asOfDate)
		if err != nil {
			return err
		}
		bundle.News = data
	case roles.SocialAnalyst:
		data, err := c.provider.FetchSocial(fetchCtx, subject, asOfDate)
		if err != nil {
			return err
		}
		bundle.Social = data
	}
	return nil
}
