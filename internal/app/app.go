// Package app drives the ingestion pipeline: one tick fetches the listing,
// then walks each candidate through dedupe, detail fetch, categorization,
// persistence, summarization and notification.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"citynews/internal/config"
	"citynews/internal/listing"
	"citynews/internal/metrics"
	"citynews/internal/news"
	"citynews/internal/scraper"
	"citynews/internal/summary"
)

// Store is the article repository. Insert reports created=false without an
// error on a unique-violation: that is the benign already-ingested case.
type Store interface {
	Exists(ctx context.Context, externalID int64) (bool, error)
	Insert(ctx context.Context, a *news.Article) (bool, error)
}

// DetailFetcher retrieves and normalizes one article detail page. Failures
// yield an empty Detail, never an error.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, url string) scraper.Detail
}

type Summarizer interface {
	Summarize(ctx context.Context, text string) summary.Result
}

type Notifier interface {
	Send(ctx context.Context, content string, category news.Category) error
}

type Orchestrator struct {
	listingURL string
	keywords   news.Keywords
	client     *http.Client
	store      Store
	fetcher    DetailFetcher
	summarizer Summarizer
	notifier   Notifier
	metrics    *metrics.Metrics
}

func NewOrchestrator(
	cfg *config.Config,
	keywords news.Keywords,
	store Store,
	fetcher DetailFetcher,
	summarizer Summarizer,
	notifier Notifier,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		listingURL: cfg.ListingURL,
		keywords:   keywords,
		client:     &http.Client{Timeout: cfg.RequestTimeout},
		store:      store,
		fetcher:    fetcher,
		summarizer: summarizer,
		notifier:   notifier,
		metrics:    m,
	}
}

// RunTick executes one full ingestion cycle. Only a listing fetch or parse
// failure aborts the tick; every other failure is scoped to one candidate.
func (o *Orchestrator) RunTick(ctx context.Context) error {
	start := time.Now()
	defer func() {
		o.metrics.RecordTickDuration(time.Since(start))
	}()
	o.metrics.IncrementTicks()

	candidates, err := o.fetchListing(ctx)
	if err != nil {
		o.metrics.SetError(err.Error())
		return err
	}
	slog.Info("listing parsed", "candidates", len(candidates))

	for _, c := range candidates {
		if err := o.processCandidate(ctx, c); err != nil {
			slog.Error("candidate processing failed", "external_id", c.ExternalID, "err", err)
			o.metrics.IncrementItemFailures()
		}
	}

	o.metrics.SetLastRun()
	return nil
}

func (o *Orchestrator) fetchListing(ctx context.Context) ([]news.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing: status %d", resp.StatusCode)
	}

	candidates, err := listing.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	// Listing hrefs may be site-relative.
	base, err := url.Parse(o.listingURL)
	if err != nil {
		return candidates, nil
	}
	for i := range candidates {
		if ref, err := url.Parse(candidates[i].Link); err == nil {
			candidates[i].Link = base.ResolveReference(ref).String()
		}
	}
	return candidates, nil
}

// processCandidate walks one candidate through the per-item state machine.
// The existence check runs before the detail fetch so that already-ingested
// articles cost no network call. Persist comes before summarize/notify so a
// downstream outage loses a notification, never ingested data.
func (o *Orchestrator) processCandidate(ctx context.Context, c news.Candidate) error {
	o.metrics.IncrementCandidates()

	exists, err := o.store.Exists(ctx, c.ExternalID)
	if err != nil {
		return fmt.Errorf("existence check: %w", err)
	}
	if exists {
		o.metrics.IncrementSkippedExisting()
		slog.Debug("already ingested, skipping", "external_id", c.ExternalID)
		return nil
	}

	// Empty content on fetch failure is acceptable; losing the listing
	// metadata is not, so the article is persisted either way.
	detail := o.fetcher.FetchDetail(ctx, c.Link)

	article := &news.Article{
		ExternalID: c.ExternalID,
		Title:      c.Title,
		Link:       c.Link,
		Content:    detail.Content,
		Category:   o.keywords.Categorize(c.Title),
		Date:       c.Date,
	}

	created, err := o.store.Insert(ctx, article)
	if err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	if !created {
		// Benign race with an overlapping tick.
		o.metrics.IncrementConflicts()
		slog.Debug("already ingested (conflict on persist)", "external_id", c.ExternalID)
		return nil
	}
	o.metrics.IncrementPersisted()
	slog.Info("article ingested",
		"external_id", article.ExternalID,
		"category", article.Category,
		"title", article.Title,
	)

	res := o.summarizer.Summarize(ctx, article.Content)
	msg := news.FormatNotification(*article, res.Text, res.Shortened)
	if err := o.notifier.Send(ctx, msg, article.Category); err != nil {
		// The article stays persisted; the notification is simply lost.
		slog.Error("notification failed", "external_id", article.ExternalID, "err", err)
		return nil
	}
	o.metrics.IncrementNotified()
	return nil
}
