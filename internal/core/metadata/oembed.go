package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// DefaultEndpoints maps provider hosts (without "www.") to their oEmbed endpoint
var DefaultEndpoints = map[string]string{
	"youtube.com":      "https://www.youtube.com/oembed",
	"m.youtube.com":    "https://www.youtube.com/oembed",
	"youtu.be":         "https://www.youtube.com/oembed",
	"vimeo.com":        "https://vimeo.com/api/oembed.json",
	"player.vimeo.com": "https://vimeo.com/api/oembed.json",
	"streamable.com":   "https://api.streamable.com/oembed",
	"dailymotion.com":  "https://www.dailymotion.com/services/oembed",
	"dai.ly":           "https://www.dailymotion.com/services/oembed",
	"soundcloud.com":   "https://soundcloud.com/oembed",
}

// oEmbedResponse holds the oEmbed fields the resolver consumes
type oEmbedResponse struct {
	Type            string `json:"type"`
	Title           string `json:"title"`
	ProviderName    string `json:"provider_name"`
	HTML            string `json:"html"`
	ThumbnailURL    string `json:"thumbnail_url"`
	ThumbnailWidth  int    `json:"thumbnail_width"`
	ThumbnailHeight int    `json:"thumbnail_height"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// fetchOEmbed queries endpoint for rawURL in JSON format
func (f *Fetcher) fetchOEmbed(ctx context.Context, endpoint, rawURL string) (*oEmbedResponse, error) {
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	oembedURL := fmt.Sprintf("%s%surl=%s&format=json", endpoint, sep, url.QueryEscape(rawURL))

	body, err := f.get(ctx, oembedURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	var oembed oEmbedResponse
	if err := json.NewDecoder(body).Decode(&oembed); err != nil {
		return nil, fmt.Errorf("failed to parse oEmbed response: %w", err)
	}
	return &oembed, nil
}

// extractDomain returns the host of rawURL without a leading "www."
func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}

// isSupported reports whether rawURL is an absolute http(s) URL
func isSupported(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}

// normalizeURL turns protocol-relative URLs into https URLs
func normalizeURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
