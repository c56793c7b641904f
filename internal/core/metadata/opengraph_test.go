package metadata

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Embeds/internal/core/embeds"
)

func TestParseOpenGraph_VideoPage(t *testing.T) {
	page := `
<!DOCTYPE html>
<html>
<head>
    <title>Fallback title</title>
    <meta property="og:site_name" content="Vimeo" />
    <meta property="og:title" content="A short film" />
    <meta property="og:image" content="https://i.vimeocdn.com/video/1-a_100x50.jpg" />
    <meta property="og:image:width" content="100" />
    <meta property="og:image:height" content="50" />
    <meta property="og:image" content="https://i.vimeocdn.com/filter/overlay?src=1.jpg" />
    <meta property="og:image:width" content="1280" />
    <meta property="og:image:height" content="720" />
    <meta property="og:video:url" content="https://player.vimeo.com/video/1" />
    <meta property="og:video:secure_url" content="https://player.vimeo.com/video/1?secure=1" />
    <meta property="og:video:width" content="1280" />
    <meta property="og:video:height" content="720" />
</head>
<body></body>
</html>
`

	og, err := parseOpenGraph(strings.NewReader(page), nil)
	require.NoError(t, err)

	assert.Equal(t, "A short film", og.Title)
	assert.Equal(t, "Vimeo", og.SiteName)
	assert.Equal(t, "https://player.vimeo.com/video/1?secure=1", og.PlayerURL)
	assert.Equal(t, 1280, og.Width)
	assert.Equal(t, 720, og.Height)
	assert.Equal(t, []embeds.Image{
		{URL: "https://i.vimeocdn.com/video/1-a_100x50.jpg", Width: 100, Height: 50},
		{URL: "https://i.vimeocdn.com/filter/overlay?src=1.jpg", Width: 1280, Height: 720},
	}, og.Images)
}

func TestParseOpenGraph_TwitterFallbacks(t *testing.T) {
	page := `
<html><head>
    <title> Page Title </title>
    <meta name="twitter:player" content="https://www.dailymotion.com/embed/video/x1" />
    <meta name="twitter:image" content="//s1.dmcdn.net/x1.jpg" />
</head></html>
`

	og, err := parseOpenGraph(strings.NewReader(page), nil)
	require.NoError(t, err)

	assert.Equal(t, "Page Title", og.Title)
	assert.Equal(t, "https://www.dailymotion.com/embed/video/x1", og.PlayerURL)
	require.Len(t, og.Images, 1)
	assert.Equal(t, "https://s1.dmcdn.net/x1.jpg", og.Images[0].URL)
}

func TestParseOpenGraph_RelativeURLs(t *testing.T) {
	page := `<html><head><meta property="og:image" content="/thumbs/a.jpg"></head></html>`
	base, err := url.Parse("https://media.example.com/watch/42")
	require.NoError(t, err)

	og, err := parseOpenGraph(strings.NewReader(page), base)
	require.NoError(t, err)

	require.Len(t, og.Images, 1)
	assert.Equal(t, "https://media.example.com/thumbs/a.jpg", og.Images[0].URL)
}

func TestParseOpenGraph_Empty(t *testing.T) {
	og, err := parseOpenGraph(strings.NewReader(`<html><body><p>no tags</p></body></html>`), nil)
	require.NoError(t, err)

	assert.Empty(t, og.Images)
	assert.Empty(t, og.PlayerURL)
	assert.Empty(t, og.SiteName)
}

func TestParseOpenGraph_IgnoresBadDimensions(t *testing.T) {
	page := `<html><head>
    <meta property="og:image:width" content="640" />
    <meta property="og:image" content="https://a.example/i.jpg" />
    <meta property="og:image:width" content="wide" />
</head></html>`

	og, err := parseOpenGraph(strings.NewReader(page), nil)
	require.NoError(t, err)

	require.Len(t, og.Images, 1)
	assert.Equal(t, 0, og.Images[0].Width)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "protocol-relative URL", input: "//cdn.example.com/image.jpg", expected: "https://cdn.example.com/image.jpg"},
		{name: "https URL unchanged", input: "https://example.com/image.jpg", expected: "https://example.com/image.jpg"},
		{name: "http URL unchanged", input: "http://example.com/image.jpg", expected: "http://example.com/image.jpg"},
		{name: "empty string", input: "", expected: ""},
		{
			name:     "streamable thumbnail",
			input:    "//cdn-cf-east.streamable.com/image/7kpdft.jpg?Expires=1762932720",
			expected: "https://cdn-cf-east.streamable.com/image/7kpdft.jpg?Expires=1762932720",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeURL(tt.input))
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, isSupported("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.True(t, isSupported("HTTP://vimeo.com/1"))
	assert.False(t, isSupported("ftp://example.com/video"))
	assert.False(t, isSupported("0"))
	assert.False(t, isSupported("/relative/path"))
	assert.False(t, isSupported("https://"))
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "youtube.com", extractDomain("https://www.youtube.com/watch?v=x"))
	assert.Equal(t, "youtu.be", extractDomain("https://youtu.be/x"))
	assert.Equal(t, "vimeo.com", extractDomain("https://WWW.Vimeo.com/1"))
	assert.Equal(t, "", extractDomain("::not a url"))
}
