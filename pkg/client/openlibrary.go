package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aeternum/aeternum/pkg/domain"
)

const (
	// DefaultOpenLibraryURL is the public Open Library host.
	DefaultOpenLibraryURL = "https://openlibrary.org"
	// DefaultQuery is listed when no usable search term is given.
	DefaultQuery = "subject:fiction"
	// MinQueryLen is the shortest query sent as typed.
	MinQueryLen = 3
	// DefaultSearchLimit caps each result page.
	DefaultSearchLimit = 50
)

// Subjects are the catalog filters offered to readers. "" lists everything.
var Subjects = []string{"", "fiction", "science", "history", "fantasy", "mystery"}

// OpenLibrary searches the public Open Library catalog. Results are cached
// and outbound requests are rate limited.
type OpenLibrary struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	log        *zap.Logger
}

// OpenLibraryConfig tunes an OpenLibrary client. Zero values pick defaults.
type OpenLibraryConfig struct {
	BaseURL  string
	Rate     float64
	CacheTTL time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
}

// NewOpenLibrary creates an Open Library client.
func NewOpenLibrary(cfg OpenLibraryConfig) *OpenLibrary {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenLibraryURL
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 2
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &OpenLibrary{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.Rate), 1),
		cache:      cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		log:        cfg.Logger,
	}
}

// NormalizeQuery trims q and falls back to DefaultQuery when it is shorter
// than MinQueryLen.
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinQueryLen {
		return DefaultQuery
	}
	return q
}

// SubjectQuery returns the search query for a subject filter.
func SubjectQuery(subject string) string {
	if subject == "" {
		return DefaultQuery
	}
	return "subject:" + subject
}

// Search runs a full-text search. Short queries list the default subject.
func (o *OpenLibrary) Search(ctx context.Context, q string, limit int) ([]domain.OpenLibraryDoc, error) {
	docs, err := o.search(ctx, NormalizeQuery(q), limit)
	if err != nil {
		return nil, fmt.Errorf("openlibrary.Search: %w", err)
	}
	return docs, nil
}

// Subject lists works filed under subject.
func (o *OpenLibrary) Subject(ctx context.Context, subject string, limit int) ([]domain.OpenLibraryDoc, error) {
	docs, err := o.search(ctx, SubjectQuery(subject), limit)
	if err != nil {
		return nil, fmt.Errorf("openlibrary.Subject: %w", err)
	}
	return docs, nil
}

// WorkURL returns the public page of a work.
func (o *OpenLibrary) WorkURL(doc domain.OpenLibraryDoc) string {
	return o.baseURL + "/works/" + url.PathEscape(doc.WorkID())
}

func (o *OpenLibrary) search(ctx context.Context, q string, limit int) ([]domain.OpenLibraryDoc, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(limit))
	key := params.Encode()

	if v, ok := o.cache.Get(key); ok {
		return v.([]domain.OpenLibraryDoc), nil
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/search.json?"+key, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	o.log.Debug("openlibrary search",
		zap.String("q", q),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // message is best-effort
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out struct {
		NumFound int                     `json:"numFound"`
		Docs     []domain.OpenLibraryDoc `json:"docs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Docs == nil {
		out.Docs = []domain.OpenLibraryDoc{}
	}
	o.cache.SetDefault(key, out.Docs)
	return out.Docs, nil
}
