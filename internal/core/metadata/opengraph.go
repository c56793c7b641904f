package metadata

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"Embeds/internal/core/embeds"
)

// openGraphData is what a page declares about itself in meta tags
type openGraphData struct {
	Title     string
	SiteName  string
	PlayerURL string
	Images    []embeds.Image
	Width     int
	Height    int
}

// parseOpenGraph reads OpenGraph and Twitter card tags. Image candidates are
// kept in document order; og:image:width/height apply to the image before them.
// Relative image URLs are resolved against base when it is non-nil.
func parseOpenGraph(r io.Reader, base *url.URL) (*openGraphData, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	og := &openGraphData{}
	var twitterPlayer, twitterImage string

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key := s.AttrOr("property", "")
		if key == "" {
			key = s.AttrOr("name", "")
		}
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}

		switch strings.ToLower(key) {
		case "og:title":
			if og.Title == "" {
				og.Title = content
			}
		case "og:site_name":
			if og.SiteName == "" {
				og.SiteName = content
			}
		case "og:image", "og:image:url":
			og.Images = append(og.Images, embeds.Image{URL: resolveURL(base, content)})
		case "og:image:width":
			if n := len(og.Images); n > 0 {
				og.Images[n-1].Width = atoi(content)
			}
		case "og:image:height":
			if n := len(og.Images); n > 0 {
				og.Images[n-1].Height = atoi(content)
			}
		case "og:video:secure_url":
			og.PlayerURL = resolveURL(base, content)
		case "og:video", "og:video:url":
			if og.PlayerURL == "" {
				og.PlayerURL = resolveURL(base, content)
			}
		case "og:video:width":
			og.Width = atoi(content)
		case "og:video:height":
			og.Height = atoi(content)
		case "twitter:player":
			if twitterPlayer == "" {
				twitterPlayer = resolveURL(base, content)
			}
		case "twitter:image", "twitter:image:src":
			if twitterImage == "" {
				twitterImage = resolveURL(base, content)
			}
		}
	})

	if og.PlayerURL == "" {
		og.PlayerURL = twitterPlayer
	}
	if len(og.Images) == 0 && twitterImage != "" {
		og.Images = append(og.Images, embeds.Image{URL: twitterImage})
	}
	if og.Title == "" {
		og.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	return og, nil
}

func resolveURL(base *url.URL, ref string) string {
	ref = normalizeURL(ref)
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
