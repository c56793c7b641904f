package embeds

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	// sizeAttrPattern matches fixed width/height attributes in provider markup
	sizeAttrPattern = regexp.MustCompile(`\s*(width|height)=["'][^"']+["']`)

	// vimeoImageSizePattern matches the trailing _<w>x<h>.<ext> of a Vimeo thumbnail
	vimeoImageSizePattern = regexp.MustCompile(`_(\d+)?(x)?(\d+)?\.[\w-]+$`)

	// youtubeIDPattern captures the video id (group 7) from the known YouTube URL shapes
	youtubeIDPattern = regexp.MustCompile(`^.*((youtu.be/)|(v/)|(/u/\w/)|(embed/)|(watch\?))\??v?=?([^#&?]*).*`)

	// vimeoIDPattern captures the numeric video id (group 5), optionally behind a channel or group path
	vimeoIDPattern = regexp.MustCompile(`^.*(vimeo\.com/)((channels/[A-z]+/)|(groups/[A-z]+/videos/))?([0-9]+)`)
)

const youtubeIDLength = 11

// EmbedResolver normalizes provider markup into one of the three output shapes.
// It holds no state besides its provider and never touches storage.
type EmbedResolver struct {
	provider MetadataProvider
}

// NewResolver creates a resolver backed by the given metadata provider
func NewResolver(provider MetadataProvider) (*EmbedResolver, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: metadata provider", ErrNilDependency)
	}
	return &EmbedResolver{provider: provider}, nil
}

// Resolve fetches url through the metadata provider and shapes the result.
// A blank url resolves to (nil, nil). The literal "0" is not blank.
func (r *EmbedResolver) Resolve(ctx context.Context, url string, format OutputFormat) (*EmbedValue, error) {
	link := strings.TrimSpace(url)
	if link == "" {
		return nil, nil
	}

	meta, err := r.provider.Fetch(ctx, link)
	if err != nil {
		return nil, &ProviderFetchError{URL: link, Err: err}
	}
	if meta == nil || strings.TrimSpace(meta.Code) == "" {
		return nil, &ProviderFetchError{URL: link, Err: ErrEmptyMarkup}
	}

	markup := normalizeMarkup(meta.Code)

	switch format {
	case FormatSrc:
		return &EmbedValue{Format: FormatSrc, Text: extractSrc(markup, link)}, nil

	case FormatArray:
		provider := strings.ToLower(meta.ProviderName)
		data := &EmbedData{
			IFrame:   markup,
			Src:      extractSrc(markup, link),
			Image:    selectImage(provider, meta),
			Provider: provider,
			ID:       extractID(provider, link),
		}
		return &EmbedValue{Format: FormatArray, Data: data}, nil

	default:
		return &EmbedValue{Format: FormatIFrame, Text: markup}, nil
	}
}

// normalizeMarkup strips fixed dimensions and escapes bare ampersands so the
// fragment stays well-formed.
func normalizeMarkup(code string) string {
	return escapeAmpersands(sizeAttrPattern.ReplaceAllString(code, ""))
}

// escapeAmpersands rewrites every "&" that does not start "&amp;"
func escapeAmpersands(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 16)
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && !strings.HasPrefix(s[i+1:], "amp;") {
			b.WriteString("&amp;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// extractSrc returns the src of the first iframe in markup, or fallback when
// there is no parseable iframe carrying a src.
func extractSrc(markup, fallback string) string {
	if !strings.Contains(strings.ToLower(markup), "<iframe") {
		return fallback
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fallback
	}

	iframe := findElement(doc, "iframe")
	if iframe == nil {
		return fallback
	}
	if src := getAttr(iframe, "src"); src != "" {
		return src
	}
	return fallback
}

// selectImage picks the preview image, correcting for provider quirks when
// more than one candidate is available.
func selectImage(provider string, meta *Metadata) *string {
	image := meta.Image
	images := meta.Images

	if len(images) > 1 {
		switch provider {
		case "youtube":
			// YouTube pages end with a tracking pixel; the largest real image precedes it.
			if isTrackingPixel(images[len(images)-1]) {
				images = images[:len(images)-1]
			}
			image = images[len(images)-1].URL
		case "vimeo":
			// Vimeo overlays a play button on its largest image. Reuse the
			// smallest image's URL with the largest dimensions instead.
			small, large := images[0], images[len(images)-1]
			image = vimeoImageSizePattern.ReplaceAllLiteralString(
				small.URL,
				fmt.Sprintf("_%dx%d.jpg", large.Width, large.Height),
			)
		}
	}

	if image == "" {
		return nil
	}
	return &image
}

// isTrackingPixel reports a candidate with no usable size
func isTrackingPixel(img Image) bool {
	return img.Width <= 1 && img.Height <= 1
}

// extractID runs the provider-specific id pattern against the original URL
func extractID(provider, link string) *string {
	switch provider {
	case "youtube":
		match := youtubeIDPattern.FindStringSubmatch(link)
		if match == nil || len(match[7]) != youtubeIDLength {
			return nil
		}
		id := match[7]
		return &id
	case "vimeo":
		match := vimeoIDPattern.FindStringSubmatch(link)
		if match == nil {
			return nil
		}
		id := match[5]
		return &id
	default:
		return nil
	}
}

// findElement returns the first element named tag in document order
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// getAttr gets an attribute value from an HTML node
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
