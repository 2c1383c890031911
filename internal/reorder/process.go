package reorder

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"reorderflow/internal"
	"reorderflow/internal/config"
	"reorderflow/internal/notify"
	"reorderflow/internal/sheet"
)

const detailChunkSize = 20

// Pipeline runs the full reorder flow for one brand: freshness gate,
// exclusion resolution, extraction, log/archive append and Slack
// reporting.
type Pipeline struct {
	brand    config.BrandConfig
	holidays []string
	window   int
	store    sheet.Store
	gateway  notify.Gateway
	retry    *sheet.Retryer
	loc      *time.Location
	now      func() time.Time
}

func NewPipeline(env config.Config, brand config.BrandConfig, holidays []string, store sheet.Store, gateway notify.Gateway, loc *time.Location) *Pipeline {
	if gateway == nil {
		gateway = notify.NopGateway{}
	}
	if loc == nil {
		loc = time.UTC
	}
	window := env.ExclusionWindowDays
	if window <= 0 {
		window = 60
	}
	return &Pipeline{
		brand:    brand,
		holidays: holidays,
		window:   window,
		store:    store,
		gateway:  gateway,
		retry:    sheet.NewRetryerWith(env.RetryAttempts, time.Duration(env.RetryBaseMs)*time.Millisecond),
		loc:      loc,
		now:      time.Now,
	}
}

// Run executes the pipeline. Stale upstream data and skip days return
// normally; genuine failures are notified best-effort and propagated.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.run(ctx); err != nil {
		log.Printf("[reorder] %s: run failed: %v", p.brand.Name, err)
		p.notify(ctx, fmt.Sprintf(":x: [%s] reorder run failed: %v %s", p.brand.Name, err, p.gateway.Mention()))
		return err
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context) error {
	today := p.now().In(p.loc)

	if IsSkipDay(today, p.loc, p.holidays, p.store) {
		log.Printf("[reorder] %s: %s is a weekend or holiday, skipping", p.brand.Name, today.Format("2006-01-02"))
		return nil
	}

	queryTab, err := p.store.Tab(p.brand.QueryTab)
	if err != nil {
		return fmt.Errorf("query tab %q: %w", p.brand.QueryTab, err)
	}

	extractor := NewExtractor(p.brand, p.loc)
	extractor.now = p.now

	dateInfo, err := sheet.RetryValue(p.retry, "query freshness", func() (internal.QueryDateInfo, error) {
		return extractor.ValidateQueryDate(queryTab)
	})
	if err != nil {
		return err
	}
	if !dateInfo.IsToday {
		log.Printf("[reorder] %s: query data is stale (executed %s), skipping extraction", p.brand.Name, dateInfo.FullDateTime)
		p.notify(ctx, fmt.Sprintf(
			":warning: [%s] reorder skipped: source query was last executed %s, not today. %s\n%s",
			p.brand.Name, dateInfo.FullDateTime, p.gateway.Mention(), p.brand.SheetURL))
		return nil
	}

	resolver := NewResolver(p.brand, p.window, p.loc)
	resolver.now = p.now
	excluded := resolver.Load(p.store)

	items, err := sheet.RetryValue(p.retry, "extract reorder rows", func() ([]internal.ReorderItem, error) {
		return extractor.Extract(queryTab, excluded)
	})
	if err != nil {
		return err
	}

	if len(items) == 0 {
		log.Printf("[reorder] %s: no reorder items today", p.brand.Name)
		p.notify(ctx, fmt.Sprintf("[%s] reorder run finished: nothing to reorder today.", p.brand.Name))
		return nil
	}

	appender := NewAppender(p.brand, p.loc, p.retry)
	if err := appender.AppendLog(p.store, items, today); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	if err := appender.AppendArchive(p.store, items, today); err != nil {
		return fmt.Errorf("append archive: %w", err)
	}

	log.Printf("[reorder] %s: appended %d items (%d keys excluded)", p.brand.Name, len(items), len(excluded))
	p.report(ctx, items, len(excluded))
	return nil
}

// Preview runs extraction without any writes or notifications.
func (p *Pipeline) Preview(ctx context.Context) ([]internal.ReorderItem, internal.QueryDateInfo, error) {
	queryTab, err := p.store.Tab(p.brand.QueryTab)
	if err != nil {
		return nil, internal.QueryDateInfo{}, fmt.Errorf("query tab %q: %w", p.brand.QueryTab, err)
	}

	extractor := NewExtractor(p.brand, p.loc)
	extractor.now = p.now
	dateInfo, err := extractor.ValidateQueryDate(queryTab)
	if err != nil {
		return nil, internal.QueryDateInfo{}, err
	}

	resolver := NewResolver(p.brand, p.window, p.loc)
	resolver.now = p.now
	items, err := extractor.Extract(queryTab, resolver.Load(p.store))
	return items, dateInfo, err
}

func (p *Pipeline) report(ctx context.Context, items []internal.ReorderItem, excludedCount int) {
	summary := fmt.Sprintf(
		":white_check_mark: [%s] reorder run finished: %d items appended to %s (excluded keys: %d)\n%s",
		p.brand.Name, len(items), p.brand.LogTab, excludedCount, p.brand.SheetURL)
	if err := p.gateway.StartThread(ctx, summary); err != nil {
		log.Printf("[reorder] summary notification failed: %v", err)
		return
	}

	for start := 0; start < len(items); start += detailChunkSize {
		end := start + detailChunkSize
		if end > len(items) {
			end = len(items)
		}
		var b strings.Builder
		for _, item := range items[start:end] {
			fmt.Fprintf(&b, "%s  x%.0f\n", item.ProductCode, item.ReorderQty)
		}
		p.notify(ctx, b.String())
	}
	if err := p.gateway.ClearThread(); err != nil {
		log.Printf("[reorder] clear thread failed: %v", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, text string) {
	if err := p.gateway.Post(ctx, text); err != nil {
		log.Printf("[reorder] notification failed: %v", err)
	}
}

