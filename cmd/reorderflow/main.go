package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"reorderflow/internal/config"
	"reorderflow/internal/dispatch"
	"reorderflow/internal/kakao"
	"reorderflow/internal/notify"
	"reorderflow/internal/render"
	"reorderflow/internal/reorder"
	"reorderflow/internal/sheet"
	"reorderflow/internal/storage"
	"reorderflow/internal/syncer"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	brands, err := config.LoadBrands(cfg.BrandsPath)
	must(err)

	db, err := storage.Open(cfg.StatePath)
	must(err)
	defer db.Close()

	ctx := context.Background()
	loc := cfg.Location()
	gateway := notify.NewSlackGateway(cfg, brands.Mentions, db)

	cmd := os.Args[1]
	switch cmd {
	case "reorder:run":
		brand := brandFlag(cmd, brands)
		store, err := openStore(ctx, cfg, brand.SpreadsheetID)
		must(err)
		pipeline := reorder.NewPipeline(cfg, brand, brands.Holidays, store, gateway, loc)
		must(pipeline.Run(ctx))
		fmt.Printf("reorder run complete brand=%s\n", brand.Name)
	case "reorder:preview":
		brand := brandFlag(cmd, brands)
		store, err := openStore(ctx, cfg, brand.SpreadsheetID)
		must(err)
		pipeline := reorder.NewPipeline(cfg, brand, brands.Holidays, store, notify.NopGateway{}, loc)
		items, dateInfo, err := pipeline.Preview(ctx)
		must(err)
		fmt.Printf("query executed at: %s (today=%v)\n", dateInfo.FullDateTime, dateInfo.IsToday)
		for _, item := range items {
			fmt.Printf("%-24s %-16s x%.0f\n", item.ProductCode, item.VendorCategory, item.ReorderQty)
		}
		fmt.Printf("%d items\n", len(items))
	case "sync:run":
		orderStore, err := openStore(ctx, cfg, brands.Sync.OrderSpreadsheetID)
		must(err)
		cumulStore, err := openStore(ctx, cfg, brands.Sync.CumulSpreadsheetID)
		must(err)
		reorderStore, err := openStore(ctx, cfg, brands.Sync.ReorderSpreadsheetID)
		must(err)

		orderTab, err := orderStore.Tab(brands.Sync.OrderTab)
		must(err)
		cumulTab, err := cumulStore.Tab(brands.Sync.CumulTab)
		must(err)
		reorderTab, err := reorderStore.Tab(brands.Sync.ReorderTab)
		must(err)

		s := syncer.New(brands.Sync, cfg)
		appended, err := s.Accumulate(orderTab, cumulTab, cumulStore)
		must(err)
		written, err := s.ReplaceFiltered(reorderTab, orderTab, orderStore)
		must(err)
		fmt.Printf("sync complete accumulated=%d written=%d\n", appended, written)
	case "dispatch:run":
		must(runDispatch(ctx, cfg, brands, db, gateway, dispatch.ModeNormal))
	case "dispatch:resume":
		must(runDispatch(ctx, cfg, brands, db, gateway, dispatch.ModeResume))
	case "dispatch:retry":
		must(runDispatch(ctx, cfg, brands, db, gateway, dispatch.ModeRetry))
	case "dispatch:status":
		repo := dispatch.NewStateRepo(db)
		progress, err := repo.LoadProgress()
		must(err)
		failed, err := repo.LoadFailed()
		must(err)
		if progress == nil {
			fmt.Println("checkpoint: none")
		} else {
			fmt.Printf("checkpoint: lastIndex=%d ok=%d failed=%d total=%d savedAt=%s\n",
				progress.LastIndex, progress.SuccessCount, progress.FailCount,
				progress.TotalVendors, progress.SavedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("failed vendors: %d\n", len(failed))
		for _, f := range failed {
			fmt.Printf("- %s today=%v previous=%v\n", f.Name, f.Today, f.Previous)
		}
	case "dispatch:clear":
		repo := dispatch.NewStateRepo(db)
		must(repo.ClearProgress())
		must(repo.ClearFailed())
		must(gateway.ClearThread())
		fmt.Println("dispatch state cleared")
	case "vendors:check":
		store, err := openStore(ctx, cfg, brands.Dispatch.SpreadsheetID)
		must(err)
		tab, err := store.Tab(brands.Dispatch.VendorTab)
		must(err)
		vendors, err := dispatch.LoadVendors(tab, brands.Dispatch, loc)
		must(err)
		for name, channel := range vendors {
			fmt.Printf("%-24s %s\n", name, channel)
		}
		fmt.Printf("%d vendors mapped\n", len(vendors))
	case "holidays:seed":
		brand := brandFlag(cmd, brands)
		store, err := openStore(ctx, cfg, brand.SpreadsheetID)
		must(err)
		count, err := reorder.SeedHolidays(store, brands.Holidays)
		must(err)
		fmt.Printf("seeded %d holidays into %s\n", count, reorder.HolidayTab)
	default:
		usage()
		os.Exit(1)
	}
}

func runDispatch(ctx context.Context, cfg config.Config, brands config.Brands, db storage.StateStore, gateway notify.Gateway, mode dispatch.Mode) error {
	store, err := openStore(ctx, cfg, brands.Dispatch.SpreadsheetID)
	if err != nil {
		return err
	}
	scheduler := dispatch.NewScheduler(cfg, brands.Dispatch, dispatch.NewStateRepo(db),
		kakao.NewClient(cfg), render.NewClient(cfg), gateway, cfg.Location())
	return scheduler.Run(ctx, store, mode)
}

// openStore binds a spreadsheet id to a tabular store: a path ending
// in .xlsx opens a local workbook, anything else goes to the Sheets API.
func openStore(ctx context.Context, cfg config.Config, id string) (sheet.Store, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("empty spreadsheet id")
	}
	if strings.HasSuffix(id, ".xlsx") {
		return sheet.OpenWorkbook(id)
	}
	client, err := sheet.NewGoogleClient(ctx, sheet.GoogleAuth{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURI:  cfg.GoogleRedirectURI,
		RefreshToken: cfg.GoogleRefreshToken,
	})
	if err != nil {
		return nil, err
	}
	return client.Open(id), nil
}

func brandFlag(cmd string, brands config.Brands) config.BrandConfig {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	name := fs.String("brand", "", "brand name from the brands config")
	_ = fs.Parse(os.Args[2:])
	if strings.TrimSpace(*name) == "" {
		must(fmt.Errorf("--brand is required"))
	}
	brand, err := brands.Brand(*name)
	must(err)
	return brand
}

func usage() {
	fmt.Println("usage: reorderflow <command>")
	fmt.Println("commands:")
	fmt.Println("  reorder:run --brand=<name>")
	fmt.Println("  reorder:preview --brand=<name>")
	fmt.Println("  sync:run")
	fmt.Println("  dispatch:run")
	fmt.Println("  dispatch:resume")
	fmt.Println("  dispatch:retry")
	fmt.Println("  dispatch:status")
	fmt.Println("  dispatch:clear")
	fmt.Println("  vendors:check")
	fmt.Println("  holidays:seed --brand=<name>")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
