// Package scraper fetches article detail pages and normalizes their markup
// into clean, human-readable text.
package scraper

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Detail is the normalized result of one article detail page.
type Detail struct {
	Content string
	Images  []string
}

var (
	lineBreakRe = regexp.MustCompile(`(?i)<br\s*/?>`)
	blankRunRe  = regexp.MustCompile(`\n\s*\n`)
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	commaNLRe   = regexp.MustCompile(`,\s*\n`)
	semiDashRe  = regexp.MustCompile(`;\s*-\s*`)
	leadDashRe  = regexp.MustCompile(`(?m)^[-–]\s*`)

	nbspReplacer = strings.NewReplacer("&nbsp;", " ", "\u00a0", " ")
)

// Fetcher retrieves detail pages over HTTP with a bounded timeout.
type Fetcher struct {
	client      *http.Client
	dedupeLines bool
}

func NewFetcher(timeout time.Duration, dedupeLines bool) *Fetcher {
	return &Fetcher{
		client:      &http.Client{Timeout: timeout},
		dedupeLines: dedupeLines,
	}
}

// FetchDetail retrieves and normalizes one article page. Any fetch or parse
// failure yields an empty Detail: a broken detail page must not abort the tick.
func (f *Fetcher) FetchDetail(ctx context.Context, url string) Detail {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Error("detail request build failed", "url", url, "err", err)
		return Detail{}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		slog.Error("detail fetch failed", "url", url, "err", err)
		return Detail{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("detail fetch bad status", "url", url, "status", resp.StatusCode)
		return Detail{}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("detail parse failed", "url", url, "err", err)
		return Detail{}
	}

	return ExtractDetail(doc, url, f.dedupeLines)
}

// ExtractDetail normalizes the description container of a detail page.
// When the container has no direct paragraph children its whole inner markup
// is treated as one block; otherwise each paragraph is processed on its own.
// The canonical article URL is always appended as a trailing labeled line.
func ExtractDetail(doc *goquery.Document, url string, dedupeLines bool) Detail {
	desc := doc.Find(".description").First()

	var blocks []string
	paragraphs := desc.ChildrenFiltered("p")
	if paragraphs.Length() == 0 {
		if raw, err := desc.Html(); err == nil {
			if text := cleanBlock(raw); text != "" {
				blocks = append(blocks, text)
			}
		}
	} else {
		paragraphs.Each(func(_ int, p *goquery.Selection) {
			raw, err := p.Html()
			if err != nil {
				return
			}
			if text := cleanBlock(raw); text != "" {
				blocks = append(blocks, text)
			}
		})
	}

	content := normalizeLines(strings.Join(blocks, "\n\n"), dedupeLines)

	images := galleryImages(doc)
	if len(images) > 0 {
		var b strings.Builder
		b.WriteString(content)
		b.WriteString("\n\n🖼 Фото:")
		for _, img := range images {
			b.WriteString("\n" + img)
		}
		content = b.String()
	}

	content = strings.TrimSpace(content + "\n\n📎 Новость на оф.сайте: " + url)

	return Detail{Content: content, Images: images}
}

// cleanBlock turns one fragment of raw markup into plain text: explicit line
// breaks become newlines, remaining tags are stripped, the non-breaking-space
// entity becomes a literal space, run-together punctuation around breaks is
// collapsed and dash bullet markers become a bullet glyph.
func cleanBlock(raw string) string {
	text := lineBreakRe.ReplaceAllString(raw, "\n")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	text = tagRe.ReplaceAllString(text, "")
	text = nbspReplacer.Replace(text)
	text = commaNLRe.ReplaceAllString(text, ", ")
	text = semiDashRe.ReplaceAllString(text, "\n• ")
	text = leadDashRe.ReplaceAllString(text, "• ")
	return strings.TrimSpace(text)
}

// normalizeLines re-splits the aggregate text, trims every line, drops empty
// ones and rejoins with blank-line separation. Duplicate-line removal across
// the whole text is a cleanup policy, not a requirement, so it is optional.
func normalizeLines(s string, dedupe bool) string {
	var out []string
	seen := make(map[string]struct{})
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if dedupe {
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n\n")
}

// galleryImages collects image-gallery anchor targets in document order.
func galleryImages(doc *goquery.Document) []string {
	var images []string
	collect := func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok && href != "" {
			images = append(images, href)
		}
	}
	doc.Find(".fotorama a").Each(collect)
	if len(images) == 0 {
		doc.Find("a.gallery-item").Each(collect)
	}
	return images
}
