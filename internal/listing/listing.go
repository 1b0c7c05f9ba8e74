// Package listing parses the municipal site's news listing page into candidates.
package listing

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"citynews/internal/news"
)

// dateLayout matches the listing's localized date label, e.g. "27.08.25".
const dateLayout = "02.01.06"

// Parse extracts candidates from raw listing markup, in document order.
// Items without a link carry no identity and are dropped silently; items with
// a non-numeric trailing link segment or an invalid date are dropped with a
// warning. Malformed markup never fails the whole listing.
func Parse(r io.Reader) ([]news.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing markup: %w", err)
	}

	var candidates []news.Candidate
	doc.Find(".list-item").Each(func(_ int, item *goquery.Selection) {
		anchor := item.Find(".caption a.item").First()
		link, ok := anchor.Attr("href")
		if !ok || link == "" {
			return
		}

		title := strings.Join(strings.Fields(anchor.Text()), " ")

		id, err := externalID(link)
		if err != nil {
			slog.Warn("listing item has non-numeric external id, skipping", "link", link)
			return
		}

		dateStr := strings.TrimSpace(item.Find(".date").First().Text())
		date, err := parseDate(dateStr)
		if err != nil {
			slog.Warn("listing item has invalid date, skipping", "date", dateStr, "link", link)
			return
		}

		candidates = append(candidates, news.Candidate{
			ExternalID: id,
			Title:      title,
			Link:       link,
			Date:       date,
		})
	})

	return candidates, nil
}

// externalID takes the final path segment of the link as the source site's id.
func externalID(link string) (int64, error) {
	trimmed := strings.TrimRight(link, "/")
	seg := trimmed[strings.LastIndex(trimmed, "/")+1:]
	return strconv.ParseInt(seg, 10, 64)
}

// parseDate composes a full date from the day.month.two-digit-year label.
// Two-digit years always resolve to 2000+yy.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if d.Year() < 2000 {
		d = d.AddDate(100, 0, 0)
	}
	return d, nil
}
