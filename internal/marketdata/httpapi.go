package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vinayprograms/agentkit/logging"
)

// HTTPProvider fetches sections from a JSON market-data service.
// Endpoints follow one shape: GET {base}/v1/{section}?symbol=S&date=D
// returning the section's JSON document. 404 means the section does
// not exist for that subject and date.
type HTTPProvider struct {
	base   string
	apiKey string
	client *http.Client
	log    *logging.Logger
}

// NewHTTPProvider creates a provider against baseURL. The API key is
// optional and sent as a bearer token when present.
func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		base:   strings.TrimRight(baseURL, "/"),
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    logging.New().WithComponent("marketdata"),
	}
}

func (p *HTTPProvider) FetchMarketData(ctx context.Context, subject, asOfDate string) (*MarketData, error) {
	var data MarketData
	if err := p.get(ctx, "market", subject, asOfDate, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (p *HTTPProvider) FetchFundamentals(ctx context.Context, subject, asOfDate string) (*Fundamentals, error) {
	var data Fundamentals
	if err := p.get(ctx, "fundamentals", subject, asOfDate, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (p *HTTPProvider) FetchNews(ctx context.Context, subject, asOfDate string) (*News, error) {
	var data News
	if err := p.get(ctx, "news", subject, asOfDate, &data); err != nil {
		return nil, err
	}
	for i := range data.Items {
		data.Items[i].Body = ExtractText(data.Items[i].Body)
	}
	return &data, nil
}

func (p *HTTPProvider) FetchSocial(ctx context.Context, subject, asOfDate string) (*Social, error) {
	var data Social
	if err := p.get(ctx, "social", subject, asOfDate, &data); err != nil {
		return nil, err
	}
	for i := range data.Posts {
		data.Posts[i].Body = ExtractText(data.Posts[i].Body)
	}
	return &data, nil
}

func (p *HTTPProvider) get(ctx context.Context, section, subject, asOfDate string, out interface{}) error {
	endpoint := fmt.Sprintf("%s/v1/%s?%s", p.base, section, url.Values{
		"symbol": {subject},
		"date":   {asOfDate},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", section, err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", section, err)
	}
	defer resp.Body.Close()

	p.log.Debug("data fetch", map[string]interface{}{
		"section":  section,
		"subject":  subject,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: no %s data for %s on %s", ErrUnavailable, section, subject, asOfDate)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("fetch %s: unexpected status %d", section, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", section, err)
	}
	return nil
}
