package dispatch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"reorderflow/internal"
	"reorderflow/internal/config"
	"reorderflow/internal/kakao"
	"reorderflow/internal/notify"
	"reorderflow/internal/render"
	"reorderflow/internal/sheet"
)

// Mode selects how a dispatch invocation treats persisted state.
type Mode int

const (
	// ModeNormal runs the full vendor list and clears the stored
	// failed-vendor list first.
	ModeNormal Mode = iota
	// ModeResume continues from the stored checkpoint after a timeout.
	ModeResume
	// ModeRetry processes only the stored failed vendors, sending only
	// the categories that failed.
	ModeRetry
)

const retryPrefix = "[resend after delivery error] "

const summaryFailedCap = 10

// Scheduler drives the per-vendor chat dispatch loop. The loop is
// single-threaded and cooperative: the execution-time ceiling is
// checked before each vendor, and an exceeded ceiling checkpoints and
// returns cleanly so a resume invocation can pick up where it stopped.
type Scheduler struct {
	cfg      config.DispatchConfig
	state    *StateRepo
	sender   kakao.Sender
	renderer render.TableRenderer
	gateway  notify.Gateway
	retry    *sheet.Retryer
	loc      *time.Location

	maxRun    time.Duration
	pageRows  int
	sendDelay time.Duration
	adminChat string

	now   func() time.Time
	sleep func(time.Duration)
}

func NewScheduler(env config.Config, cfg config.DispatchConfig, state *StateRepo, sender kakao.Sender, renderer render.TableRenderer, gateway notify.Gateway, loc *time.Location) *Scheduler {
	if gateway == nil {
		gateway = notify.NopGateway{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cfg:       cfg,
		state:     state,
		sender:    sender,
		renderer:  renderer,
		gateway:   gateway,
		retry:     sheet.NewRetryerWith(env.RetryAttempts, time.Duration(env.RetryBaseMs)*time.Millisecond),
		loc:       loc,
		maxRun:    time.Duration(env.DispatchMaxRunMs) * time.Millisecond,
		pageRows:  env.DispatchPageRows,
		sendDelay: time.Duration(env.KakaoSendDelayMs) * time.Millisecond,
		adminChat: env.KakaoAdminChatID,
		now:       time.Now,
		sleep:     time.Sleep,
	}
}

// Run executes one dispatch invocation. Timeouts are a planned
// suspension, not an error; only setup failures (login, sheet reads)
// propagate.
func (s *Scheduler) Run(ctx context.Context, store sheet.Store, mode Mode) error {
	start := s.now()

	loggedIn, err := s.sender.IsLoggedIn(ctx)
	if err != nil {
		s.notify(ctx, fmt.Sprintf(":x: dispatch aborted: chat session check failed: %v %s", err, s.gateway.Mention()))
		return fmt.Errorf("chat session check: %w", err)
	}
	if !loggedIn {
		s.notify(ctx, fmt.Sprintf(":x: dispatch aborted: chat session is logged out %s", s.gateway.Mention()))
		return fmt.Errorf("chat session is logged out")
	}

	vendors, buckets, headers, err := s.loadSources(store)
	if err != nil {
		s.notify(ctx, fmt.Sprintf(":x: dispatch aborted: %v %s", err, s.gateway.Mention()))
		return err
	}

	if mode == ModeRetry {
		return s.runRetry(ctx, start, vendors, buckets, headers)
	}
	return s.runMain(ctx, start, mode, vendors, buckets, headers)
}

func (s *Scheduler) loadSources(store sheet.Store) (map[string]string, Buckets, []string, error) {
	vendorTab, err := store.Tab(s.cfg.VendorTab)
	if err != nil {
		return nil, Buckets{}, nil, fmt.Errorf("vendor tab %q: %w", s.cfg.VendorTab, err)
	}
	vendors, err := sheet.RetryValue(s.retry, "load vendors", func() (map[string]string, error) {
		return LoadVendors(vendorTab, s.cfg, s.loc)
	})
	if err != nil {
		return nil, Buckets{}, nil, err
	}

	orderTab, err := store.Tab(s.cfg.OrderTab)
	if err != nil {
		return nil, Buckets{}, nil, fmt.Errorf("order tab %q: %w", s.cfg.OrderTab, err)
	}
	rows, err := sheet.RetryValue(s.retry, "load order rows", func() ([][]sheet.Value, error) {
		lastRow, err := orderTab.LastRow()
		if err != nil {
			return nil, err
		}
		firstRow := s.cfg.HeaderRows + 1
		if lastRow < firstRow {
			return nil, nil
		}
		return orderTab.GetRange(firstRow, 1, lastRow-firstRow+1, s.cfg.OrderWidth)
	})
	if err != nil {
		return nil, Buckets{}, nil, err
	}

	headers := s.headerRow(orderTab)
	buckets := BucketOrders(rows, s.cfg, s.loc, s.now())
	return vendors, buckets, headers, nil
}

func (s *Scheduler) headerRow(tab sheet.Tab) []string {
	headers := make([]string, s.cfg.OrderWidth)
	cells, err := tab.GetRange(s.cfg.HeaderRows, 1, 1, s.cfg.OrderWidth)
	if err == nil && len(cells) > 0 {
		for col := 1; col <= s.cfg.OrderWidth; col++ {
			headers[col-1] = sheet.Text(cellAt(cells[0], col), s.loc)
		}
	}
	for col := 1; col <= s.cfg.OrderWidth; col++ {
		if strings.TrimSpace(headers[col-1]) == "" {
			headers[col-1] = sheet.ColumnName(col)
		}
	}
	return headers
}

func (s *Scheduler) runMain(ctx context.Context, start time.Time, mode Mode, vendors map[string]string, buckets Buckets, headers []string) error {
	ordering := buckets.Order
	total := len(ordering)

	startIndex := 0
	successCount, failCount := 0, 0
	var failed []internal.FailedVendor

	switch mode {
	case ModeResume:
		progress, err := s.state.LoadProgress()
		if err != nil {
			return err
		}
		if progress == nil {
			log.Printf("[dispatch] no checkpoint found, running the full vendor list")
		} else {
			startIndex = progress.LastIndex + 1
			successCount = progress.SuccessCount
			failCount = progress.FailCount
			log.Printf("[dispatch] resuming at vendor %d/%d (checkpoint saved %s)",
				startIndex+1, total, progress.SavedAt.Format(time.RFC3339))
		}
		stored, err := s.state.LoadFailed()
		if err != nil {
			return err
		}
		failed = stored
		s.notify(ctx, fmt.Sprintf(":arrow_forward: dispatch resumed at vendor %d/%d", startIndex+1, total))
	default:
		if err := s.state.ClearFailed(); err != nil {
			return err
		}
		if err := s.gateway.StartThread(ctx, fmt.Sprintf(":truck: dispatch started: %d vendors (%d with today's orders)",
			total, len(buckets.Today))); err != nil {
			log.Printf("[dispatch] start notification failed: %v", err)
		}
		s.notifyAdmin(ctx, buckets)
	}

	for i := startIndex; i < total; i++ {
		if s.now().Sub(start) >= s.maxRun {
			return s.checkpoint(ctx, i, total, successCount, failCount, failed, ordering)
		}

		vendor := ordering[i]
		channel, known := vendors[vendor]
		if !known {
			log.Printf("[dispatch] vendor %q has no channel mapping", vendor)
			failCount++
			failed = upsertFailed(failed, vendor, true, true)
			continue
		}

		failedToday, failedPrevious := s.processVendor(ctx, vendor, channel,
			buckets.Today[vendor], buckets.Previous[vendor], headers, "", true, true)
		if !failedToday && !failedPrevious {
			successCount++
			failed = removeFailed(failed, vendor)
		} else {
			failCount++
			failed = upsertFailed(failed, vendor, failedToday, failedPrevious)
		}
	}

	if err := s.state.ClearProgress(); err != nil {
		log.Printf("[dispatch] clear checkpoint failed: %v", err)
	}
	if err := s.state.SaveFailed(failed); err != nil {
		log.Printf("[dispatch] persist failed list failed: %v", err)
	}

	s.notify(ctx, s.summaryText(total, successCount, failCount, failed))
	if len(failed) == 0 {
		if err := s.gateway.ClearThread(); err != nil {
			log.Printf("[dispatch] clear thread failed: %v", err)
		}
	}
	log.Printf("[dispatch] completed: %d ok, %d failed of %d", successCount, failCount, total)
	return nil
}

// checkpoint persists progress when the time ceiling is hit before
// vendor index i. Every unattempted vendor is marked fully failed so a
// retry run can still reach it even if the checkpoint is discarded.
func (s *Scheduler) checkpoint(ctx context.Context, i, total, successCount, failCount int, failed []internal.FailedVendor, ordering []string) error {
	merged := failed
	for j := i; j < total; j++ {
		merged = upsertFailed(merged, ordering[j], true, true)
	}

	progress := internal.DispatchProgress{
		LastIndex:     i - 1,
		SuccessCount:  successCount,
		FailCount:     failCount,
		FailedVendors: merged,
		TotalVendors:  total,
		SavedAt:       s.now(),
	}
	if err := s.state.SaveProgress(progress); err != nil {
		log.Printf("[dispatch] checkpoint save failed: %v", err)
	}
	if err := s.state.SaveFailed(merged); err != nil {
		log.Printf("[dispatch] persist failed list failed: %v", err)
	}

	s.notify(ctx, fmt.Sprintf(
		":hourglass: dispatch paused at the time ceiling: %d/%d vendors done (%d ok, %d failed). Run dispatch:resume to continue.",
		i, total, successCount, failCount))
	log.Printf("[dispatch] time ceiling hit at vendor %d/%d, checkpoint saved", i, total)
	return nil
}

func (s *Scheduler) runRetry(ctx context.Context, start time.Time, vendors map[string]string, buckets Buckets, headers []string) error {
	stored, err := s.state.LoadFailed()
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		s.notify(ctx, "dispatch retry: no failed vendors recorded, nothing to do.")
		return nil
	}

	names := make([]string, 0, len(stored))
	for _, entry := range stored {
		names = append(names, fmt.Sprintf("%s (%s)", entry.Name, categoryLabel(entry)))
	}
	s.notify(ctx, fmt.Sprintf(":repeat: dispatch retry started: %d vendors: %s",
		len(stored), strings.Join(names, ", ")))

	working := make([]internal.FailedVendor, len(stored))
	copy(working, stored)
	successCount, failCount := 0, 0

	for _, entry := range stored {
		if s.now().Sub(start) >= s.maxRun {
			if err := s.state.SaveFailed(working); err != nil {
				log.Printf("[dispatch] persist failed list failed: %v", err)
			}
			s.notify(ctx, fmt.Sprintf(
				":hourglass: dispatch retry paused at the time ceiling: %d vendors still failed. Run dispatch:retry again.",
				len(working)))
			return nil
		}

		channel, known := vendors[entry.Name]
		if !known {
			log.Printf("[dispatch] retry: vendor %q has no channel mapping", entry.Name)
			failCount++
			continue
		}

		failedToday, failedPrevious := s.processVendor(ctx, entry.Name, channel,
			buckets.Today[entry.Name], buckets.Previous[entry.Name], headers, retryPrefix,
			entry.Today, entry.Previous)

		if entry.Today && !failedToday {
			working = clearFailedCategory(working, entry.Name, true)
		}
		if entry.Previous && !failedPrevious {
			working = clearFailedCategory(working, entry.Name, false)
		}
		if !failedToday && !failedPrevious {
			successCount++
		} else {
			failCount++
		}
	}

	if err := s.state.SaveFailed(working); err != nil {
		log.Printf("[dispatch] persist failed list failed: %v", err)
	}
	s.notify(ctx, s.summaryText(len(stored), successCount, failCount, working))
	if len(working) == 0 {
		if err := s.gateway.ClearThread(); err != nil {
			log.Printf("[dispatch] clear thread failed: %v", err)
		}
	}
	log.Printf("[dispatch] retry completed: %d ok, %d failed of %d", successCount, failCount, len(stored))
	return nil
}

// processVendor sends the eligible nonempty categories to one vendor.
// Failures are contained here: an escaping panic marks both categories
// failed instead of aborting the loop.
func (s *Scheduler) processVendor(ctx context.Context, vendor, channel string, todayRows, previousRows [][]sheet.Value, headers []string, prefix string, wantToday, wantPrevious bool) (failedToday, failedPrevious bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[dispatch] vendor %q: panic during processing: %v", vendor, r)
			failedToday, failedPrevious = true, true
		}
	}()

	if wantToday && len(todayRows) > 0 {
		if err := s.sendCategory(ctx, vendor, channel, "today", todayRows, headers, prefix); err != nil {
			log.Printf("[dispatch] vendor %q: today category failed: %v", vendor, err)
			failedToday = true
		}
	}
	if wantPrevious && len(previousRows) > 0 {
		if err := s.sendCategory(ctx, vendor, channel, "previous", previousRows, headers, prefix); err != nil {
			log.Printf("[dispatch] vendor %q: previous category failed: %v", vendor, err)
			failedPrevious = true
		}
	}
	return failedToday, failedPrevious
}

func (s *Scheduler) sendCategory(ctx context.Context, vendor, channel, label string, rows [][]sheet.Value, headers []string, prefix string) error {
	brands := BrandNames(rows, s.loc)
	text := fmt.Sprintf("%s[%s orders] %s / %s: %d items. Please confirm the tables below.",
		prefix, label, vendor, strings.Join(brands, ", "), len(rows))
	if err := s.sender.SendText(ctx, channel, text); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	s.sleep(s.sendDelay)

	// A broken page does not stop the rest of the tables: the vendor
	// still gets every page that can be delivered, and the category is
	// marked failed afterwards.
	cells := tableCells(rows, s.cfg.OrderWidth, s.loc)
	pages := Paginate(cells, s.pageRows)
	failedPages := 0
	for pageNo, page := range pages {
		title := fmt.Sprintf("%s - %s orders (%d/%d)", vendor, label, pageNo+1, len(pages))
		png, err := s.renderer.RenderTable(ctx, title, headers, page)
		if err != nil {
			log.Printf("[dispatch] vendor %q: render page %d/%d failed: %v", vendor, pageNo+1, len(pages), err)
			failedPages++
			continue
		}
		if err := s.sender.SendImage(ctx, channel, png); err != nil {
			log.Printf("[dispatch] vendor %q: send page %d/%d failed: %v", vendor, pageNo+1, len(pages), err)
			failedPages++
		}
		s.sleep(s.sendDelay)
	}
	if failedPages > 0 {
		return fmt.Errorf("%d of %d pages failed", failedPages, len(pages))
	}
	return nil
}

func (s *Scheduler) summaryText(total, successCount, failCount int, failed []internal.FailedVendor) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":package: dispatch finished: %d ok, %d failed of %d vendors.", successCount, failCount, total)
	if len(failed) > 0 {
		fmt.Fprintf(&b, "\nStill failed (%d):", len(failed))
		for i, f := range failed {
			if i == summaryFailedCap {
				fmt.Fprintf(&b, "\n… and %d more", len(failed)-summaryFailedCap)
				break
			}
			fmt.Fprintf(&b, "\n- %s (%s)", f.Name, categoryLabel(f))
		}
		b.WriteString("\nRun dispatch:retry to resend.")
	}
	return b.String()
}

// notifyAdmin pings the admin chat with the day's vendor counts on a
// normal run. Best effort.
func (s *Scheduler) notifyAdmin(ctx context.Context, buckets Buckets) {
	if s.adminChat == "" {
		return
	}
	text := fmt.Sprintf("Dispatch starting: %d vendors queued (%d today, %d previous-only).",
		len(buckets.Order), len(buckets.Today), len(buckets.Order)-len(buckets.Today))
	if err := s.sender.SendText(ctx, s.adminChat, text); err != nil {
		log.Printf("[dispatch] admin notification failed: %v", err)
	}
	s.sleep(s.sendDelay)
}

func (s *Scheduler) notify(ctx context.Context, text string) {
	if err := s.gateway.Post(ctx, text); err != nil {
		log.Printf("[dispatch] notification failed: %v", err)
	}
}
