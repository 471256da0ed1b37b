package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	logx "subwatch/pkg/logx"
)

const (
	defaultBaseURL   = "https://www.reddit.com"
	defaultUserAgent = "subwatch/1.0 (subreddit notifier bot)"

	// Reddit throttles unauthenticated clients hard; stay well under.
	defaultRatePerSec = 1
	maxFetchLimit     = 100
)

type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	RatePerSec int
	RetryMax   int
}

// Client fetches /r/<topic>/new.json listings.
//
// One limiter covers all topics: reddit rate limits per client IP, not per
// subreddit. Transient failures (5xx, 429, network) retry with exponential
// backoff; anything terminal surfaces as an error that the poller treats as
// zero items.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func NewClient(cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 3
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		log:     log,
	}
}

// listing mirrors the slice of reddit's listing JSON we care about.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				Name       string  `json:"name"` // fullname, stable across fetches
				Title      string  `json:"title"`
				Author     string  `json:"author"`
				Permalink  string  `json:"permalink"`
				CreatedUTC float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Client) FetchItems(ctx context.Context, topic string, limit int) ([]Item, error) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return nil, errors.New("feed: empty topic")
	}
	if limit <= 0 || limit > maxFetchLimit {
		limit = maxFetchLimit
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/r/%s/new.json?limit=%d", c.cfg.BaseURL, url.PathEscape(topic), limit)

	var items []Item
	op := func() error {
		got, err := c.fetchOnce(ctx, u)
		if err != nil {
			return err
		}
		items = got
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.cfg.RetryMax)),
		ctx,
	)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) fetchOnce(ctx context.Context, u string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusOK:
		// proceed
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("feed: status %d", resp.StatusCode)
	default:
		// 403/404 etc: retrying will not help (private or missing subreddit).
		return nil, backoff.Permanent(fmt.Errorf("feed: status %d", resp.StatusCode))
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("feed: decode listing: %w", err))
	}

	items := make([]Item, 0, len(l.Data.Children))
	for _, ch := range l.Data.Children {
		d := ch.Data
		if d.Name == "" {
			continue
		}
		items = append(items, Item{
			ID:          d.Name,
			Title:       d.Title,
			Author:      d.Author,
			Link:        c.cfg.BaseURL + d.Permalink,
			PublishedAt: fromUnixUTC(d.CreatedUTC),
		})
	}
	return items, nil
}

func fromUnixUTC(sec float64) time.Time {
	if sec <= 0 || math.IsNaN(sec) {
		return time.Time{}
	}
	return time.Unix(int64(sec), 0).UTC()
}
