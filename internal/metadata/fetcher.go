package metadata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/dishant0406/lazyweb-backend/internal/models"
)

const maxBodyBytes = 2 << 20

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// Fetcher reads a page's title and description.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Fetcher{client: client}
}

// FormatURL adds an https scheme when missing and trims trailing slashes.
func FormatURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !schemePattern.MatchString(raw) {
		raw = "https://" + raw
	}
	return strings.TrimRight(raw, "/")
}

func (f *Fetcher) GetMetaData(ctx context.Context, rawURL string) (models.Metadata, error) {
	if strings.TrimSpace(rawURL) == "" {
		return models.Metadata{}, fmt.Errorf("url is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, FormatURL(rawURL), nil)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "lazyweb-metadata/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Metadata{}, fmt.Errorf("page returned status %d", resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxBodyBytes))
}

// Parse extracts the title and description from an HTML document. Open Graph
// values win over <title> and the plain description meta tag.
func Parse(r io.Reader) (models.Metadata, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("failed to parse html: %w", err)
	}

	var title, ogTitle, desc, ogDesc string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				content := strings.TrimSpace(attr(n, "content"))
				switch key {
				case "og:title":
					ogTitle = content
				case "og:description":
					ogDesc = content
				case "description":
					desc = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return models.Metadata{
		Title:       firstNonEmpty(ogTitle, title),
		Description: firstNonEmpty(ogDesc, desc),
	}, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
