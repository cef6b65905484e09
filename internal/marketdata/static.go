package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FixtureProvider serves sections from JSON files on disk, laid out as
// {dir}/{subject}/{asOfDate}/{section}.json. It backs offline runs and
// deterministic rehearsals; a missing file is a missing section.
type FixtureProvider struct {
	dir string
}

// NewFixtureProvider serves fixtures rooted at dir.
func NewFixtureProvider(dir string) *FixtureProvider {
	return &FixtureProvider{dir: dir}
}

func (p *FixtureProvider) FetchMarketData(ctx context.Context, subject, asOfDate string) (*MarketData, error) {
	var data MarketData
	if err := p.load(ctx, subject, asOfDate, "market", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (p *FixtureProvider) FetchFundamentals(ctx context.Context, subject, asOfDate string) (*Fundamentals, error) {
	var data Fundamentals
	if err := p.load(ctx, subject, asOfDate, "fundamentals", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (p *FixtureProvider) FetchNews(ctx context.Context, subject, asOfDate string) (*News, error) {
	var data News
	if err := p.load(ctx, subject, asOfDate, "news", &data); err != nil {
		return nil, err
	}
	for i := range data.Items {
		data.Items[i].Body = ExtractText(data.Items[i].Body)
	}
	return &data, nil
}

func (p *FixtureProvider) FetchSocial(ctx context.Context, subject, asOfDate string) (*Social, error) {
	var data Social
	if err := p.load(ctx, subject, asOfDate, "social", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (p *FixtureProvider) load(ctx context.Context, subject, asOfDate, section string, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(p.dir, subject, asOfDate, section+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no %s fixture for %s on %s", ErrUnavailable, section, subject, asOfDate)
		}
		return fmt.Errorf("read %s fixture: %w", section, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s fixture: %w", section, err)
	}
	return nil
}
