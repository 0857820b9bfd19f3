// Package gutenberg scrapes book text and catalog metadata from Project
// Gutenberg using gocolly.
package gutenberg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/jeancds29/gutenberg-back/internal/library"
	"github.com/jeancds29/gutenberg-back/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Delay is the pause between requests to the archive host.
	Delay time.Duration
	// Content above MaxContentBytes is cut to TruncateChars characters.
	MaxContentBytes int
	TruncateChars   int
}

const tracerName = "github.com/jeancds29/gutenberg-back/internal/gutenberg"

const (
	defaultBaseURL         = "https://www.gutenberg.org"
	defaultTimeout         = 30 * time.Second
	defaultMaxContentBytes = 8 * 1024 * 1024
	defaultTruncateChars   = 7500000
)

// Client implements library.Archive on top of a Colly collector.
type Client struct {
	cfg           Config
	base          *url.URL
	baseCollector *colly.Collector
	logger        *zap.Logger
}

var _ library.Archive = (*Client)(nil)

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// page is the outcome of a single GET: a status code or a transport error.
type page struct {
	status int
	body   []byte
}

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxContentBytes <= 0 {
		cfg.MaxContentBytes = defaultMaxContentBytes
	}
	if cfg.TruncateChars <= 0 {
		cfg.TruncateChars = defaultTruncateChars
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("archive base url %q must be absolute", cfg.BaseURL)
	}

	// Clones share the visited-URL store, so revisits must be allowed for a
	// book to be fetched again after eviction.
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(maxBodySize(cfg)),
	)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.Delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: cfg.Delay, Parallelism: 1}); err != nil {
			return nil, fmt.Errorf("archive rate limit: %w", err)
		}
	}

	return &Client{
		cfg:           cfg,
		base:          base,
		baseCollector: c,
		logger:        logger.Named("gutenberg"),
	}, nil
}

// FetchBook downloads the text and the catalog page of a book. Both must be
// available.
func (c *Client) FetchBook(ctx context.Context, catalogID string) (library.ArchiveBook, error) {
	if err := library.ValidateCatalogID(catalogID); err != nil {
		return library.ArchiveBook{}, err
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gutenberg.FetchBook")
	span.SetAttributes(attribute.String("book.id", catalogID))
	defer span.End()
	fail := func(err error) (library.ArchiveBook, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome(err))
		return library.ArchiveBook{}, err
	}

	content, err := c.fetchContent(ctx, catalogID)
	metrics.ObserveArchiveFetch("content", outcome(err))
	if err != nil {
		return fail(err)
	}

	meta, err := c.fetchMetadata(ctx, catalogID)
	metrics.ObserveArchiveFetch("metadata", outcome(err))
	if err != nil {
		return fail(err)
	}
	span.SetAttributes(attribute.Int("book.content.length", len(content)))

	return library.ArchiveBook{
		Title:         meta.Title,
		Author:        meta.Author,
		Language:      meta.Language,
		DownloadCount: meta.DownloadCount,
		Content:       content,
	}, nil
}

func (c *Client) fetchContent(ctx context.Context, catalogID string) (string, error) {
	var (
		misses  int
		lastErr error
	)
	urls := c.contentURLs(catalogID)
	for _, target := range urls {
		c.logger.Debug("fetching book content", zap.String("url", target))
		p, err := c.get(ctx, target)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: book %s content: %w", library.ErrUpstream, catalogID, err)
			}
			c.logger.Warn("content fetch failed", zap.String("url", target), zap.Error(err))
			lastErr = err
		case p.status == http.StatusOK:
			content, truncated := cleanContent(p.body, c.cfg.MaxContentBytes, c.cfg.TruncateChars)
			if truncated {
				c.logger.Warn("book content exceeds maximum size, truncating",
					zap.String("book_id", catalogID),
					zap.Int("bytes", len(p.body)),
				)
			}
			return content, nil
		case p.status == http.StatusNotFound:
			misses++
		default:
			lastErr = fmt.Errorf("%s returned status %d", target, p.status)
		}
	}
	if misses == len(urls) {
		return "", fmt.Errorf("book %s not found in archive: %w", catalogID, library.ErrNotFound)
	}
	if lastErr == nil {
		lastErr = errors.New("no content candidate succeeded")
	}
	return "", fmt.Errorf("%w: book %s content: %w", library.ErrUpstream, catalogID, lastErr)
}

func (c *Client) fetchMetadata(ctx context.Context, catalogID string) (Metadata, error) {
	target := c.base.JoinPath("ebooks", catalogID).String()
	c.logger.Debug("fetching book metadata", zap.String("url", target))
	p, err := c.get(ctx, target)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: book %s metadata: %w", library.ErrUpstream, catalogID, err)
	}
	switch p.status {
	case http.StatusOK:
	case http.StatusNotFound:
		return Metadata{}, fmt.Errorf("book %s metadata not found: %w", catalogID, library.ErrNotFound)
	default:
		return Metadata{}, fmt.Errorf("%w: book %s metadata: status %d", library.ErrUpstream, catalogID, p.status)
	}
	meta, err := ParseMetadata(bytes.NewReader(p.body))
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: book %s metadata: %w", library.ErrUpstream, catalogID, err)
	}
	return meta, nil
}

func (c *Client) contentURLs(catalogID string) []string {
	return []string{
		c.base.JoinPath("files", catalogID, catalogID+"-0.txt").String(),
		c.base.JoinPath("files", catalogID, catalogID+".txt").String(),
		c.base.JoinPath("cache", "epub", catalogID, "pg"+catalogID+".txt").String(),
	}
}

// get runs one GET on a cloned collector. HTTP error statuses are returned
// in the page; only transport failures produce an error.
func (c *Client) get(ctx context.Context, target string) (page, error) {
	var (
		result   page
		fetchErr error
	)
	collector := c.baseCollector.Clone()
	collector.Context = ctx
	configureCollectorHooks(collector, &result, &fetchErr)

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return page{}, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if result.status != 0 {
			return result, nil
		}
		if err != nil {
			return page{}, fmt.Errorf("colly visit failed: %w", err)
		}
		if fetchErr != nil {
			return page{}, fmt.Errorf("colly response failed: %w", fetchErr)
		}
		return page{}, errors.New("colly returned no response")
	}
}

func configureCollectorHooks(hooks collectorHooks, result *page, fetchErr *error) {
	hooks.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/plain, text/html;q=0.9, */*;q=0.1")
	})

	hooks.OnResponse(func(r *colly.Response) {
		*result = page{
			status: r.StatusCode,
			body:   append([]byte(nil), r.Body...),
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*result = page{status: r.StatusCode}
			return
		}
		*fetchErr = err
	})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, library.ErrNotFound):
		return metrics.OutcomeNotFound
	default:
		return metrics.OutcomeError
	}
}

// maxBodySize bounds the download so that both the size check and the
// character truncation still see enough bytes.
func maxBodySize(cfg Config) int {
	limit := 4 * cfg.TruncateChars
	if limit <= cfg.MaxContentBytes {
		limit = cfg.MaxContentBytes + 1
	}
	return limit
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}
}
