// Package http implements the "HTTP" extractor adapter: a batch
// extractor that fetches one or more pages from a REST endpoint,
// applying the declarative pagination, retry and rate-limit policies
// every extractor config carries, alongside the git/sql/file adapters.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flowforge/streamline/internal/domain/envelope"
	"github.com/flowforge/streamline/internal/infrastructure/extractors"
	"github.com/flowforge/streamline/internal/ports"
	"github.com/flowforge/streamline/pkg/pipelineerr"
)

const AdapterCode = "http"

// Config is an HTTP extractor step's declarative config.
type Config struct {
	URL            string                 `json:"url" yaml:"url" validate:"required"`
	Method         string                 `json:"method,omitempty" yaml:"method,omitempty"`
	Headers        map[string]string      `json:"headers,omitempty" yaml:"headers,omitempty"`
	Query          map[string]string      `json:"query,omitempty" yaml:"query,omitempty"`
	Body           string                 `json:"body,omitempty" yaml:"body,omitempty"`
	ConnectionCode string                 `json:"connectionCode,omitempty" yaml:"connectionCode,omitempty"`
	SecretCode     string                 `json:"secretCode,omitempty" yaml:"secretCode,omitempty"`
	SecretHeader   string                 `json:"secretHeader,omitempty" yaml:"secretHeader,omitempty"`
	TimeoutMs      int                    `json:"timeoutMs,omitempty" yaml:"timeoutMs,omitempty"`
	Pagination     ports.PaginationConfig `json:"pagination,omitempty" yaml:"pagination,omitempty"`
	Retry          ports.RetryConfig      `json:"retry,omitempty" yaml:"retry,omitempty"`
	RateLimit      ports.RateLimitConfig  `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"`
}

// Extractor fetches paginated JSON collections over HTTP.
type Extractor struct {
	// Client is the transport used for every request; defaults to
	// http.DefaultClient's transport via http.Client{} when nil.
	Client *http.Client
}

// New constructs the HTTP extractor adapter.
func New() *Extractor {
	return &Extractor{Client: &http.Client{}}
}

func (e *Extractor) Category() string    { return "http" }
func (e *Extractor) AdapterCode() string { return AdapterCode }

func (e *Extractor) GetSchema() map[string]any {
	return map[string]any{
		"url":            "string, required",
		"method":         "string, optional, defaults to GET",
		"headers":        "map[string]string, optional static headers",
		"query":          "map[string]string, optional static query parameters",
		"body":           "string, optional request body for non-GET methods",
		"connectionCode": "string, optional connection to resolve base settings from",
		"secretCode":     "string, optional secret injected as a header named by secretHeader",
		"secretHeader":   "string, header name the resolved secret is placed in, defaults to Authorization",
		"timeoutMs":      "int, optional per-request timeout",
		"pagination":     "PaginationConfig, optional, defaults to strategy=none",
		"retry":          "RetryConfig, optional",
		"rateLimit":      "RateLimitConfig, optional",
	}
}

func (e *Extractor) Validate(cfg map[string]any) error {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding http extractor config")
	}
	if c.URL == "" {
		return pipelineerr.New(pipelineerr.ConfigInvalid, "http extractor requires url")
	}
	if c.Pagination.Strategy != "" && c.Pagination.Strategy != ports.PaginationNone && c.Pagination.MaxPages < 1 {
		return pipelineerr.New(pipelineerr.ConfigInvalid, "http extractor pagination requires maxPages >= 1")
	}
	return nil
}

func (e *Extractor) TestConnection(ectx ports.ExtractorContext, cfg map[string]any) error {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding http extractor config")
	}
	req, err := e.buildRequest(ectx, c, pageState{})
	if err != nil {
		return err
	}
	resp, err := e.do(ectx, c, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return pipelineerr.Newf(pipelineerr.RecoverableIO, "test connection to %s returned status %d", c.URL, resp.StatusCode)
	}
	return nil
}

// ExtractAll fetches every page up to Pagination.MaxPages (or a single
// page when pagination is none/unset) and returns one envelope per
// record found under Pagination.DataPath.
func (e *Extractor) ExtractAll(ectx ports.ExtractorContext, cfg map[string]any) (ports.ExtractResult, error) {
	var c Config
	if err := extractors.Decode(cfg, &c); err != nil {
		return ports.ExtractResult{}, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "decoding http extractor config")
	}

	limiter := newRateLimiter(c.RateLimit)
	maxPages := c.Pagination.MaxPages
	if c.Pagination.Strategy == "" || c.Pagination.Strategy == ports.PaginationNone {
		maxPages = 1
	}
	if maxPages < 1 {
		maxPages = 1
	}

	var envelopes []envelope.Envelope
	state := pageState{}
	for page := 0; page < maxPages; page++ {
		if ectx.IsCancelled != nil && ectx.IsCancelled() {
			return ports.ExtractResult{Envelopes: envelopes, Done: true}, nil
		}
		limiter.wait(ectx.Context)

		req, err := e.buildRequest(ectx, c, state)
		if err != nil {
			return ports.ExtractResult{}, err
		}
		resp, body, err := e.doWithRetry(ectx, c, req)
		if err != nil {
			return ports.ExtractResult{}, err
		}

		records, next, hasMore, err := parsePage(c.Pagination, resp, body, state)
		if err != nil {
			return ports.ExtractResult{}, err
		}
		for i, rec := range records {
			seq := int64(page)*int64(len(records)) + int64(i)
			envelopes = append(envelopes, envelope.Envelope{
				Data: rec,
				Meta: envelope.Meta{SourceID: c.URL, Sequence: &seq},
			})
		}
		if !hasMore {
			break
		}
		state = next
	}
	return ports.ExtractResult{Envelopes: envelopes, Done: true}, nil
}

// pageState threads what the next page's request needs to know from the
// previous response: an offset, a cursor, a page number, or a link-header
// URL, depending on Pagination.Strategy.
type pageState struct {
	offset   int
	page     int
	cursor   string
	nextLink string
}

func (e *Extractor) buildRequest(ectx ports.ExtractorContext, c Config, state pageState) (*http.Request, error) {
	method := c.Method
	if method == "" {
		method = http.MethodGet
	}

	url := c.URL
	if state.nextLink != "" {
		url = state.nextLink
	}

	var body io.Reader
	if c.Body != "" {
		body = strings.NewReader(c.Body)
	}

	req, err := http.NewRequestWithContext(ectx.Context, method, url, body)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, err, "building http request")
	}

	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	q := req.URL.Query()
	for k, v := range c.Query {
		q.Set(k, v)
	}
	if state.nextLink == "" {
		applyPaginationParams(q, c.Pagination, state)
	}
	req.URL.RawQuery = q.Encode()

	if c.ConnectionCode != "" && ectx.Connections != nil {
		settings, err := ectx.Connections.Resolve(ectx.Context, c.ConnectionCode)
		if err != nil {
			return nil, err
		}
		applyConnectionSettings(req, settings)
	}

	if c.SecretCode != "" && ectx.Secrets != nil {
		secret, err := ectx.Secrets.Resolve(ectx.Context, c.SecretCode)
		if err != nil {
			return nil, err
		}
		header := c.SecretHeader
		if header == "" {
			header = "Authorization"
		}
		req.Header.Set(header, secret)
	}

	return req, nil
}

func applyPaginationParams(q interface{ Set(string, string) }, p ports.PaginationConfig, state pageState) {
	switch p.Strategy {
	case ports.PaginationOffset:
		name := p.ParamName
		if name == "" {
			name = "offset"
		}
		q.Set(name, strconv.Itoa(state.offset))
	case ports.PaginationPage:
		name := p.ParamName
		if name == "" {
			name = "page"
		}
		q.Set(name, strconv.Itoa(state.page+1))
	case ports.PaginationCursor:
		if state.cursor != "" {
			name := p.ParamName
			if name == "" {
				name = "cursor"
			}
			q.Set(name, state.cursor)
		}
	}
}

func applyConnectionSettings(req *http.Request, settings map[string]any) {
	if headers, ok := settings["headers"].(map[string]any); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}
}

func (e *Extractor) do(ectx ports.ExtractorContext, c Config, req *http.Request) (*http.Response, error) {
	client := e.client(c)
	resp, err := client.Do(req)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "http request to "+req.URL.String())
	}
	return resp, nil
}

func (e *Extractor) client(c Config) *http.Client {
	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	if c.TimeoutMs > 0 {
		clone := *client
		clone.Timeout = time.Duration(c.TimeoutMs) * time.Millisecond
		return &clone
	}
	return client
}

// doWithRetry executes req, retrying per c.Retry when the response status
// is in RetryableStatusCodes or the request itself errors, with
// exponential backoff bounded by MaxDelayMs.
func (e *Extractor) doWithRetry(ectx ports.ExtractorContext, c Config, req *http.Request) (*http.Response, []byte, error) {
	attempts := c.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			cloned := req.Clone(ectx.Context)
			req = cloned
		}
		resp, err := e.do(ectx, c, req)
		if err != nil {
			lastErr = err
			if !e.sleepBeforeRetry(ectx.Context, c.Retry, attempt) {
				break
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = pipelineerr.Wrap(pipelineerr.RecoverableIO, readErr, "reading http response body")
			if !e.sleepBeforeRetry(ectx.Context, c.Retry, attempt) {
				break
			}
			continue
		}

		if isRetryableStatus(resp.StatusCode, c.Retry.RetryableStatusCodes) && attempt < attempts-1 {
			lastErr = pipelineerr.Newf(pipelineerr.RecoverableIO, "http status %d from %s", resp.StatusCode, req.URL.String())
			if !e.sleepBeforeRetry(ectx.Context, c.Retry, attempt) {
				break
			}
			continue
		}

		if resp.StatusCode >= 400 {
			return resp, body, pipelineerr.Newf(pipelineerr.AdapterFatal, "http status %d from %s", resp.StatusCode, req.URL.String())
		}

		return resp, body, nil
	}
	return nil, nil, lastErr
}

func (e *Extractor) sleepBeforeRetry(ctx context.Context, retry ports.RetryConfig, attempt int) bool {
	delay := backoffDelay(retry, attempt)
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func backoffDelay(retry ports.RetryConfig, attempt int) time.Duration {
	initial := retry.InitialDelayMs
	if initial <= 0 {
		return 0
	}
	mult := retry.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	ms := float64(initial) * math.Pow(mult, float64(attempt))
	if retry.MaxDelayMs > 0 && ms > float64(retry.MaxDelayMs) {
		ms = float64(retry.MaxDelayMs)
	}
	return time.Duration(ms) * time.Millisecond
}

func isRetryableStatus(status int, retryable []int) bool {
	if len(retryable) == 0 {
		return status == http.StatusTooManyRequests || status >= 500
	}
	for _, s := range retryable {
		if s == status {
			return true
		}
	}
	return false
}

// parsePage unmarshals body as JSON, selects the record array at
// Pagination.DataPath (root when unset), and computes the next page's
// pageState plus whether another page should be fetched.
func parsePage(p ports.PaginationConfig, resp *http.Response, body []byte, state pageState) ([]map[string]any, pageState, bool, error) {
	var parsed any
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, pageState{}, false, pipelineerr.Wrap(pipelineerr.RecoverableIO, err, "parsing http response JSON")
		}
	}

	rawRecords := selectPath(parsed, p.DataPath)
	records := toRecords(rawRecords)

	if p.Strategy == "" || p.Strategy == ports.PaginationNone {
		return records, pageState{}, false, nil
	}

	next := state
	hasMore := len(records) > 0

	switch p.Strategy {
	case ports.PaginationOffset:
		pageSize := p.PageSize
		if pageSize <= 0 {
			pageSize = len(records)
		}
		next.offset = state.offset + len(records)
		hasMore = len(records) >= pageSize && pageSize > 0
	case ports.PaginationPage:
		next.page = state.page + 1
		if p.PageSize > 0 {
			hasMore = len(records) >= p.PageSize
		}
	case ports.PaginationCursor:
		field := p.CursorField
		if field == "" {
			field = "cursor"
		}
		cursor, ok := selectPath(parsed, field).(string)
		next.cursor = cursor
		hasMore = ok && cursor != ""
	case ports.PaginationLinkHeader:
		link := parseLinkHeaderNext(resp.Header.Get("Link"))
		next.nextLink = link
		hasMore = link != ""
	}

	return records, next, hasMore, nil
}

// selectPath walks a dot-separated path ("data.items") through nested
// map[string]any values; an empty path returns root unchanged.
func selectPath(root any, path string) any {
	if path == "" {
		return root
	}
	cur := root
	for _, segment := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return cur
}

func toRecords(v any) []map[string]any {
	switch items := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{items}
	default:
		return nil
	}
}

// parseLinkHeaderNext extracts the URL from a Link header's rel="next"
// entry, e.g. `<https://api/items?page=2>; rel="next"`.
func parseLinkHeaderNext(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		url := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		for _, attr := range segments[1:] {
			attr = strings.TrimSpace(attr)
			if attr == `rel="next"` {
				return url
			}
		}
	}
	return ""
}

// rateLimiter spaces successive page fetches by 1/RequestsPerSecond; a
// zero RequestsPerSecond is a no-op. MaxConcurrent and BatchDelayMs are
// not applied.
type rateLimiter struct {
	minInterval time.Duration
	last        time.Time
}

func newRateLimiter(cfg ports.RateLimitConfig) *rateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return &rateLimiter{}
	}
	return &rateLimiter{minInterval: time.Duration(float64(time.Second) / cfg.RequestsPerSecond)}
}

func (r *rateLimiter) wait(ctx context.Context) {
	if r.minInterval <= 0 {
		return
	}
	if r.last.IsZero() {
		r.last = time.Now()
		return
	}
	elapsed := time.Since(r.last)
	if elapsed < r.minInterval {
		timer := time.NewTimer(r.minInterval - elapsed)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	r.last = time.Now()
}

var (
	_ ports.Extractor        = (*Extractor)(nil)
	_ ports.BatchExtractor   = (*Extractor)(nil)
	_ ports.Validatable      = (*Extractor)(nil)
	_ ports.SchemaProvider   = (*Extractor)(nil)
	_ ports.ConnectionTester = (*Extractor)(nil)
)
