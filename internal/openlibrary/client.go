// Package openlibrary is a best-effort client for the OpenLibrary search API.
//
// Lookups never fail into the caller: any transport, status or decoding
// error is logged and turned into an empty result.
package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/readerboard/readerboard-server/internal/domain"
	"github.com/readerboard/readerboard-server/internal/logger"
)

// DefaultBaseURL is the public OpenLibrary host.
const DefaultBaseURL = "https://openlibrary.org"

const (
	searchPath    = "/search.json"
	searchLimit   = 5
	clientTimeout = 30 * time.Second
)

// Errors returned by the lower-level lookups.
var (
	ErrRateLimited = errors.New("openlibrary: rate limited")
	ErrServer      = errors.New("openlibrary: server error")
	ErrBadStatus   = errors.New("openlibrary: unexpected status")
)

// Config configures a Client.
type Config struct {
	BaseURL  string
	CacheTTL time.Duration // zero disables caching
}

// Client queries OpenLibrary with a shared throttle and a TTL cache of
// successful responses.
type Client struct {
	baseURL     string
	http        *http.Client
	rateLimiter *rate.Limiter
	cache       *cache.Cache
	cacheTTL    time.Duration
	logger      *slog.Logger
}

// New creates a client. OpenLibrary asks for modest request rates, so the
// client allows one request per 200ms with a burst of 5.
func New(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = logger.Discard().Logger
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		baseURL:     base,
		http:        &http.Client{Timeout: clientTimeout},
		rateLimiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		cacheTTL:    cfg.CacheTTL,
		logger:      log,
	}
	if cfg.CacheTTL > 0 {
		c.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return c
}

// Close releases resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

// searchResponse is the subset of search.json the app reads.
type searchResponse struct {
	NumFound int       `json:"numFound"`
	Docs     []bookDoc `json:"docs"`
}

type bookDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	CoverI           *int     `json:"cover_i"`
	FirstPublishYear *int     `json:"first_publish_year"`
	ISBN             []string `json:"isbn"`
}

func (d bookDoc) toRef() domain.BookRef {
	ref := domain.BookRef{
		Key:              d.Key,
		Title:            d.Title,
		AuthorNames:      d.AuthorName,
		CoverID:          d.CoverI,
		FirstPublishYear: d.FirstPublishYear,
		ISBN:             d.ISBN,
	}
	if d.CoverI != nil {
		ref.CoverURL = domain.CoverURL(*d.CoverI)
	}
	return ref
}

// Search returns up to five catalog matches for query. It returns an empty
// slice on any failure.
func (c *Client) Search(ctx context.Context, query string) []domain.BookRef {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.BookRef{}
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(searchLimit))

	refs, err := c.search(ctx, params)
	if err != nil {
		c.logger.Warn("openlibrary search failed", "query", query, "error", err)
		return []domain.BookRef{}
	}
	return refs
}

// ByISBN returns the first catalog match for isbn, or nil when there is
// none or the lookup fails.
func (c *Client) ByISBN(ctx context.Context, isbn string) *domain.BookRef {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return nil
	}

	params := url.Values{}
	params.Set("isbn", isbn)

	refs, err := c.search(ctx, params)
	if err != nil {
		c.logger.Warn("openlibrary isbn lookup failed", "isbn", isbn, "error", err)
		return nil
	}
	if len(refs) == 0 {
		return nil
	}
	return &refs[0]
}

func (c *Client) search(ctx context.Context, params url.Values) ([]domain.BookRef, error) {
	searchURL := c.baseURL + searchPath + "?" + params.Encode()

	if c.cache != nil {
		if cached, ok := c.cache.Get(searchURL); ok {
			return cached.([]domain.BookRef), nil
		}
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	c.logger.Debug("querying openlibrary", "url", searchURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	refs := make([]domain.BookRef, 0, len(body.Docs))
	for _, d := range body.Docs {
		if d.Key == "" || d.Title == "" {
			continue
		}
		refs = append(refs, d.toRef())
	}

	if c.cache != nil {
		c.cache.Set(searchURL, refs, cache.DefaultExpiration)
	}
	return refs, nil
}
