// Package fetch retrieves specification documents and vocabularies over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Accept headers for the two kinds of upstream resources.
const (
	AcceptHTML = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5"
	AcceptRDF  = "text/turtle,application/n-triples;q=0.9,application/rdf+xml;q=0.8,application/xml;q=0.5,*/*;q=0.1"
)

const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxBody = 20 << 20
	maxRedirects   = 10
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindStatus   Kind = "status"
	KindTimeout  Kind = "timeout"
	KindNetwork  Kind = "network"
	KindTooLarge Kind = "too_large"
)

// Error describes a failed fetch. It is never retried.
type Error struct {
	Kind       Kind
	URI        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("fetch %s: HTTP %d %s", e.URI, e.StatusCode, http.StatusText(e.StatusCode))
	case KindTimeout:
		return fmt.Sprintf("fetch %s: timed out", e.URI)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Response is a successfully fetched body.
type Response struct {
	Body        []byte
	ContentType string
	// URL is the final URL after redirects.
	URL string
}

// Options configures a Fetcher. Zero values select defaults.
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	// RatePerSecond bounds outgoing requests; zero or less disables limiting.
	RatePerSecond float64
	UserAgent     string
	Client        *http.Client
}

// Fetcher performs rate-limited GET requests.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	maxBody   int64
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBody
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ldspec"
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	c := *client
	c.Timeout = opts.Timeout
	c.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("too many redirects (max %d)", maxRedirects)
		}
		return nil
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RatePerSecond > 0 {
		burst := max(int(opts.RatePerSecond), 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return &Fetcher{
		client:    &c,
		limiter:   limiter,
		userAgent: opts.UserAgent,
		maxBody:   opts.MaxBodyBytes,
	}
}

// Fetch GETs uri with the given Accept header. Any non-2xx response is a
// KindStatus error.
func (f *Fetcher) Fetch(ctx context.Context, uri, accept string) (*Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, classify(uri, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, URI: uri, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Kind: KindStatus, URI: uri, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, classify(uri, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, &Error{Kind: KindTooLarge, URI: uri, Err: fmt.Errorf("content too large (exceeds %d bytes)", f.maxBody)}
	}

	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         resp.Request.URL.String(),
	}, nil
}

func classify(uri string, err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, URI: uri, Err: err}
	}
	return &Error{Kind: KindNetwork, URI: uri, Err: err}
}
