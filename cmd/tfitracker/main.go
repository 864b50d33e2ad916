package main

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tfitracker-data/internal/common/config"
	"github.com/tfitracker-data/internal/common/logger"
	"github.com/tfitracker-data/internal/dart"
	"github.com/tfitracker-data/internal/gtfs/importer"
	"github.com/tfitracker-data/internal/gtfs/registry"
	"github.com/tfitracker-data/internal/gtfs/scraper"
	"github.com/tfitracker-data/internal/gtfs/store"
)

func main() {
	// .env is optional; plain environment variables work too
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(logger.LoggerConfig{
		Level:           logger.ParseLogLevel(cfg.Logging.Level),
		Console:         true,
		File:            true,
		FilePath:        cfg.Logging.FilePath,
		MaxSizeMB:       10,
		MaxBackups:      5,
		MaxAgeDays:      30,
		Compress:        true,
		TimeFieldFormat: "2006-01-02T15:04:05Z07:00",
	})
	log := logger.New(
		logger.ConsoleWriter(),
		logger.FileWriter(cfg.Logging.FilePath),
	)

	log.Info("TFI Tracker Data Service starting",
		"log_level", cfg.Logging.Level,
		"operator", cfg.Feed.Operator,
		"store_path", cfg.Store.Path,
	)

	snapshot, err := store.NewSnapshot(cfg.Store.Path, log)
	if err != nil {
		log.Fatal("Invalid store configuration", "error", err)
	}
	data, err := snapshot.Load()
	if err != nil {
		log.Fatal("Failed to load store snapshot", "error", err)
	}
	st := store.New()
	st.Restore(data)

	sources := scraper.NewHTTPSourceFetcher(cfg.Feed.RegistryURL, log)
	reg := registry.New(st, sources, []string{cfg.Feed.Operator}, log)
	imp := importer.New(st, reg,
		scraper.NewHTTPFeedFetcher(log),
		scraper.NewCache(cfg.Store.CacheDir),
		snapshot, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	link := cfg.Feed.Link
	if link == "" {
		if err := reg.Refresh(ctx); err != nil {
			log.Fatal("Failed to refresh source list", "error", err)
		}
		links := st.Registry().Operators[cfg.Feed.Operator]
		var names []string
		for l := range links {
			names = append(names, l)
		}
		if len(names) == 0 {
			log.Fatal("No feed links registered for operator", "operator", cfg.Feed.Operator)
		}
		sort.Strings(names)
		link = names[0]
		log.Info("Using first registered feed link", "link", link)
	}

	if err := imp.LoadData(ctx, cfg.Feed.Operator, link, importer.Options{
		FreshnessDays:     cfg.Feed.FreshnessDays,
		ForceReplace:      cfg.Feed.ForceReplace,
		AllowUnknownFile:  cfg.Feed.AllowUnknownFile,
		AllowUnknownField: cfg.Feed.AllowUnknownField,
	}); err != nil {
		log.Fatal("Feed load failed", "error", err)
	}

	engine, err := dart.New(st, dart.DARTRoute())
	if err != nil {
		log.Warn("DART route not available in store", "error", err)
		os.Exit(0)
	}
	today := time.Now().Truncate(24 * time.Hour).UTC()
	services, entries := engine.DaySchedule(today)
	trains := engine.WalkTrains(services)
	log.Info("Day schedule ready",
		"day", today.Format("2006-01-02"),
		"services", len(services),
		"schedules", len(entries),
		"physical_trains", len(trains),
	)
}
