package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SessionCookie carries the API session.
const SessionCookie = "_journey_session"

// Endpoints relative to the base URL.
const (
	DevlogsEndpoint  = "devlogs"
	ProjectsEndpoint = "projects"
)

// Config configures a Fetcher. Zero values take the defaults below.
type Config struct {
	BaseURL     string
	Session     string
	Concurrency int
	MaxRetries  int
	Backoff     time.Duration
	Timeout     time.Duration
}

const (
	defaultConcurrency = 20
	defaultMaxRetries  = 3
	defaultBackoff     = 500 * time.Millisecond
	defaultTimeout     = 30 * time.Second
)

// StatusError is a non-2xx page response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.Code)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Fetcher downloads every page of the corpus endpoints.
type Fetcher struct {
	client      *http.Client
	baseURL     string
	session     string
	concurrency int
	maxRetries  int
	backoff     time.Duration
	logger      *zap.Logger
}

// NewFetcher creates a Fetcher. client may be nil.
func NewFetcher(cfg Config, client *http.Client, logger *zap.Logger) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client:      client,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		session:     cfg.Session,
		concurrency: cfg.Concurrency,
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.Backoff,
		logger:      logger,
	}
}

// FetchAll returns every devlog text followed by every project description, in page order.
func (f *Fetcher) FetchAll(ctx context.Context) ([]string, error) {
	devlogs, err := Fetch[*Devlogs](ctx, f, DevlogsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch devlogs: %w", err)
	}
	projects, err := Fetch[*Projects](ctx, f, ProjectsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch projects: %w", err)
	}
	return append(devlogs, projects...), nil
}

// Fetch downloads all pages of one endpoint. Page 1 reports the page count;
// pages 2..N are fetched with bounded concurrency and joined in page order.
func Fetch[P interface {
	*T
	Page
}, T any](ctx context.Context, f *Fetcher, endpoint string) ([]string, error) {
	url := f.baseURL + "/" + endpoint

	first := P(new(T))
	if err := f.fetchPage(ctx, url, 1, first); err != nil {
		return nil, err
	}
	paging := first.Pagination()

	pages := make([][]string, max(paging.Pages, 1))
	pages[0] = first.Texts()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for n := 2; n <= paging.Pages; n++ {
		g.Go(func() error {
			p := P(new(T))
			if err := f.fetchPage(gctx, url, n, p); err != nil {
				return err
			}
			pages[n-1] = p.Texts()
			f.logger.Debug("Corpus page fetched",
				zap.String("endpoint", endpoint),
				zap.Int("page", n),
				zap.Int("pages", paging.Pages),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]string, 0, paging.Count)
	for _, p := range pages {
		out = append(out, p...)
	}
	f.logger.Info("Corpus endpoint fetched",
		zap.String("endpoint", endpoint),
		zap.Int("pages", paging.Pages),
		zap.Int("items", len(out)),
	)
	return out, nil
}

// fetchPage decodes one page into dst, retrying with exponential backoff.
func (f *Fetcher) fetchPage(ctx context.Context, url string, page int, dst any) error {
	pageURL := fmt.Sprintf("%s?page=%d", url, page)
	b := retry.WithMaxRetries(uint64(f.maxRetries-1), retry.NewExponential(f.backoff))

	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := f.get(ctx, pageURL, dst)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return err
		}
		f.logger.Warn("Corpus page failed, retrying",
			zap.String("url", pageURL),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("page %d after %d attempts: %w", page, attempt, err)
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: f.session})
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: url, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// retryable treats transport and decode failures as transient. Non-retryable statuses are permanent.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return true
}
