package metadata

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sort"
	"time"

	"Embeds/internal/core/embeds"
)

// maxBodySize caps how much of a page or oEmbed response is read
const maxBodySize = 10 * 1024 * 1024

// Fetcher implements embeds.MetadataProvider. Hosts with a known oEmbed
// endpoint are asked for player markup; every page is also scanned for
// OpenGraph tags to collect image candidates and a player fallback.
type Fetcher struct {
	client    *http.Client
	breaker   *circuitBreaker
	endpoints map[string]string
	logger    *slog.Logger
	userAgent string
	timeout   time.Duration
}

var _ embeds.MetadataProvider = (*Fetcher)(nil)

// Option configures a Fetcher
type Option func(*Fetcher)

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(userAgent string) Option {
	return func(f *Fetcher) {
		f.userAgent = userAgent
	}
}

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithEndpoints replaces the host to oEmbed endpoint table
func WithEndpoints(endpoints map[string]string) Option {
	return func(f *Fetcher) {
		f.endpoints = endpoints
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a metadata fetcher
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		endpoints: DefaultEndpoints,
		userAgent: "EmbedsBot/1.0",
		timeout:   10 * time.Second,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	f.breaker = newCircuitBreaker(f.logger)

	return f
}

// Fetch gathers embed metadata for rawURL. Transport and server failures
// count against the URL's host; after repeated failures the host is skipped
// for a while and Fetch returns ErrCircuitOpen.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*embeds.Metadata, error) {
	if !isSupported(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedURL, rawURL)
	}

	provider := extractDomain(rawURL)
	if ok, err := f.breaker.canAttempt(provider); !ok {
		f.logger.Warn("[METADATA] skipping fetch", "url", rawURL, "error", err)
		return nil, err
	}

	meta, err := f.fetch(ctx, rawURL, provider)
	if err != nil {
		switch {
		case isClientError(err):
			f.breaker.recordSuccess(provider)
		case ctx.Err() != nil:
			// the caller gave up; that says nothing about the host
		default:
			f.breaker.recordFailure(provider, err)
		}
		return nil, err
	}
	f.breaker.recordSuccess(provider)

	f.logger.Debug("[METADATA] fetched",
		"url", rawURL,
		"provider", meta.ProviderName,
		"images", len(meta.Images),
		"has_code", meta.Code != "",
	)
	return meta, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL, domain string) (*embeds.Metadata, error) {
	meta := &embeds.Metadata{}

	if endpoint, ok := f.endpoints[domain]; ok {
		oembed, err := f.fetchOEmbed(ctx, endpoint, rawURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch oEmbed data: %w", err)
		}
		meta.Code = oembed.HTML
		meta.ProviderName = oembed.ProviderName
		if oembed.ThumbnailURL != "" {
			thumb := normalizeURL(oembed.ThumbnailURL)
			meta.Image = thumb
			meta.Images = append(meta.Images, embeds.Image{
				URL:    thumb,
				Width:  oembed.ThumbnailWidth,
				Height: oembed.ThumbnailHeight,
			})
		}
	}

	og, err := f.fetchOpenGraph(ctx, rawURL)
	if err != nil {
		if meta.Code == "" {
			return nil, fmt.Errorf("failed to fetch OpenGraph data: %w", err)
		}
		// oEmbed already produced markup; page images are optional
		f.logger.Debug("[METADATA] page scan failed", "url", rawURL, "error", err)
		return meta, nil
	}

	meta.Images = append(meta.Images, og.Images...)
	// candidates run from smallest to largest
	sort.SliceStable(meta.Images, func(i, j int) bool {
		return area(meta.Images[i]) < area(meta.Images[j])
	})
	if meta.ProviderName == "" {
		meta.ProviderName = og.SiteName
	}
	if meta.Image == "" && len(og.Images) > 0 {
		meta.Image = og.Images[0].URL
	}
	if meta.Code == "" && og.PlayerURL != "" {
		meta.Code = iframeMarkup(og.PlayerURL, og.Width, og.Height)
	}

	return meta, nil
}

func (f *Fetcher) fetchOpenGraph(ctx context.Context, rawURL string) (*openGraphData, error) {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	base, _ := url.Parse(rawURL)
	return parseOpenGraph(body, base)
}

// get issues a GET and returns the size-limited body of a 200 response
func (f *Fetcher) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		var netErr net.Error
		if ctx.Err() == nil && errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("failed to fetch %s: %w: %w", target, embeds.ErrProviderUnavailable, err)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	return struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, maxBodySize), resp.Body}, nil
}

func area(img embeds.Image) int {
	return img.Width * img.Height
}

func iframeMarkup(src string, width, height int) string {
	markup := `<iframe src="` + html.EscapeString(src) + `"`
	if width > 0 {
		markup += fmt.Sprintf(` width="%d"`, width)
	}
	if height > 0 {
		markup += fmt.Sprintf(` height="%d"`, height)
	}
	return markup + ` frameborder="0" allowfullscreen></iframe>`
}
