package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"StockAdvisor/internal/model"
)

// RESTFetcher implements Fetcher against a generic JSON bars API:
//
//	GET {base}/api/v1/bars/daily?symbol=AAPL&from=2021-01-01&to=2024-01-01
//
// returning an array of {timestamp, open, high, low, close, volume}.
type RESTFetcher struct {
	BaseURL    string
	APIKey     string
	Client     *http.Client
	MaxRetries uint64

	newBackOff func() backoff.BackOff
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string) *RESTFetcher {
	return &RESTFetcher{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Client:     newHTTPClient(proxyURL),
		MaxRetries: 3,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (f *RESTFetcher) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("from", from.Format(model.DateLayout))
	q.Set("to", to.Format(model.DateLayout))
	endpoint := fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode())

	var rbs []restBar
	op := func() error {
		var err error
		rbs, err = f.fetchBars(ctx, endpoint)
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), f.MaxRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	bars := make([]model.Bar, len(rbs))
	for i, rb := range rbs {
		bars[i] = model.Bar{
			Date:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	return bars, nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, endpoint string) ([]restBar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(errors.Wrap(model.ErrUpstream, err.Error()))
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(errors.Wrap(model.ErrUpstream, ctx.Err().Error()))
		}
		return nil, errors.Wrap(model.ErrUpstream, "fetch bars: "+err.Error())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(errors.Wrap(model.ErrNotFound, "fetch bars: unknown symbol"))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Wrapf(model.ErrUpstream, "fetch bars: status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, backoff.Permanent(errors.Wrapf(model.ErrUpstream, "fetch bars: status %d, body: %s", resp.StatusCode, truncate(body, 200)))
	}

	var rbs []restBar
	if err := json.NewDecoder(resp.Body).Decode(&rbs); err != nil {
		return nil, backoff.Permanent(errors.Wrap(model.ErrUpstream, "decode bars: "+err.Error()))
	}
	return rbs, nil
}
