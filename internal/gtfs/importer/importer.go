// Package importer orchestrates one feed load: registry refresh, freshness
// decisions, ZIP acquisition, ordered table extraction and row dispatch into
// the entity store.
package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tfitracker-data/internal/common/logger"
	"github.com/tfitracker-data/internal/gtfs/registry"
	"github.com/tfitracker-data/internal/gtfs/schema"
	"github.com/tfitracker-data/internal/gtfs/scraper"
	"github.com/tfitracker-data/internal/gtfs/store"
)

// downloaded ZIPs younger than this are reused from the disk cache
const cacheFreshnessDays = 1.0

// RowError is a row that could not be applied to the store.
type RowError struct {
	File string
	Row  int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s/%d: %v", e.File, e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Options are the per-load knobs of LoadData.
type Options struct {
	FreshnessDays     int
	ForceReplace      bool
	AllowUnknownFile  bool
	AllowUnknownField bool
	Override          string
}

type tableLocation struct {
	operator string
	link     string
	file     string
}

func (l tableLocation) String() string {
	return fmt.Sprintf("%s / %s / %s", l.operator, l.link, l.file)
}

// Importer runs ingestion sessions against one store.
type Importer struct {
	store     *store.Store
	registry  *registry.Registry
	feeds     scraper.FeedFetcher
	cache     *scraper.Cache
	snapshot  *store.Snapshot
	validator *schema.Validator
	logger    logger.Logger
}

func New(
	st *store.Store,
	reg *registry.Registry,
	feeds scraper.FeedFetcher,
	cache *scraper.Cache,
	snapshot *store.Snapshot,
	log logger.Logger,
) *Importer {
	return &Importer{
		store:     st,
		registry:  reg,
		feeds:     feeds,
		cache:     cache,
		snapshot:  snapshot,
		validator: schema.NewValidator(log),
		logger:    log,
	}
}

// LoadData refreshes the registry if stale, then parses the feed at
// (operator, link) unless the stored metadata is still fresh. An explicit
// override path always parses.
func (i *Importer) LoadData(ctx context.Context, operator, link string, opts Options) error {
	operator, link = strings.TrimSpace(operator), strings.TrimSpace(link)
	if age := i.registry.AgeDays(); !i.registry.Fresh(opts.FreshnessDays) {
		i.logger.Info("Loading source list", "age_days", fmt.Sprintf("%.2f", age))
		if err := i.registry.Refresh(ctx); err != nil {
			return err
		}
	} else {
		i.logger.Info("Source list is fresh, skipping refresh",
			"age_days", fmt.Sprintf("%.2f", i.registry.AgeDays()))
	}

	if opts.Override != "" {
		i.logger.Info("Override feed source", "path", opts.Override)
		return i.loadSource(ctx, operator, link, opts)
	}

	if !opts.ForceReplace {
		metadata, err := i.registry.Metadata(operator, link)
		if err != nil {
			return err
		}
		if metadata != nil {
			if age := ageDays(metadata.FirstSeen); age <= float64(opts.FreshnessDays) {
				i.logger.Info("Feed is fresh, skipping parse",
					"age_days", fmt.Sprintf("%.2f", age), "version", metadata.Version)
				return nil
			}
		}
	}
	return i.loadSource(ctx, operator, link, opts)
}

// loadSource is one parsing session: caches are invalidated on entry, on
// every error path, and on exit; the snapshot is written whenever the store
// changed, success or not.
func (i *Importer) loadSource(ctx context.Context, operator, link string, opts Options) (err error) {
	if _, err = i.registry.Metadata(operator, link); err != nil {
		return err
	}

	i.store.InvalidateCaches()
	defer func() {
		if i.store.Changed() {
			if saveErr := i.snapshot.Save(i.store.Data()); saveErr != nil {
				if err == nil {
					err = saveErr
				} else {
					i.logger.Error("Snapshot save failed after session error", "error", saveErr)
				}
			} else {
				i.store.MarkSaved()
			}
		}
		i.store.InvalidateCaches()
	}()

	feedBytes, err := i.feedBytes(ctx, operator, link, opts)
	if err != nil {
		return err
	}
	return i.parseZip(ctx, operator, link, feedBytes, opts)
}

// feedBytes obtains the ZIP from the override path, a fresh disk cache, or
// the network (persisting new downloads to the cache).
func (i *Importer) feedBytes(ctx context.Context, operator, link string, opts Options) ([]byte, error) {
	if opts.Override != "" {
		data, err := os.ReadFile(opts.Override)
		if err != nil {
			return nil, fmt.Errorf("override file not readable: %w", err)
		}
		return data, nil
	}
	if !opts.ForceReplace {
		if age, ok := i.cache.AgeDays(link); ok && age <= cacheFreshnessDays {
			i.logger.Warn("Loading feed from disk cache",
				"age_days", fmt.Sprintf("%.2f", age), "link", link)
			return i.cache.Read(link)
		}
	}
	data, err := i.feeds.FetchFeed(ctx, link)
	if err != nil {
		return nil, err
	}
	i.logger.Info("Fetched feed data",
		"operator", operator, "size_bytes", len(data), "link", link)
	if err := i.cache.Write(link, data); err != nil {
		return nil, err
	}
	return data, nil
}

// parseZip extracts the feed files in dependency order and streams their
// rows into the store. Unknown files come last. An identical-version signal
// from feed_info skips the remaining files unless ForceReplace is set.
func (i *Importer) parseZip(ctx context.Context, operator, link string, feed []byte, opts Options) error {
	reader, err := zip.NewReader(bytes.NewReader(feed), int64(len(feed)))
	if err != nil {
		return fmt.Errorf("opening feed ZIP: %w", err)
	}

	fileMap := map[string]*zip.File{}
	for _, f := range reader.File {
		fileMap[strings.TrimSpace(f.Name)] = f
	}
	var names []string
	for _, table := range schema.LoadOrder {
		if _, ok := fileMap[table.Name]; ok {
			names = append(names, table.Name)
		}
	}
	var extras []string
	for name := range fileMap {
		if _, ok := schema.ByName(name); !ok {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	names = append(names, extras...)

	done := map[string]bool{}
	for _, name := range names {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		location := tableLocation{operator: operator, link: link, file: name}
		err := i.loadFile(location, fileMap[name], opts)
		done[name] = true
		if err != nil {
			if errors.Is(err, registry.ErrIdenticalVersion) {
				if opts.ForceReplace {
					i.logger.Warn("Replacing existing feed data", "error", err)
					continue
				}
				i.logger.Warn("Feed version already known, skipping remaining files", "error", err)
				return nil
			}
			return err
		}
	}

	var missing []string
	for name := range schema.RequiredFiles {
		if !done[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &schema.ParseError{
			File: strings.Join(missing, ","),
			Msg:  fmt.Sprintf("missing required files for %s", operator),
		}
	}
	i.store.MarkChanged()
	return nil
}

// loadFile validates and dispatches every row of one feed file. Unknown or
// empty files are warned about in lenient mode and rejected in strict mode.
func (i *Importer) loadFile(location tableLocation, file *zip.File, opts Options) error {
	table, known := schema.ByName(location.file)
	content, err := readZipFile(file)
	if err != nil {
		return err
	}
	if !known || len(content) == 0 {
		msg := fmt.Sprintf("unsupported feed file: %s (%d bytes)", location.file, len(content))
		if opts.AllowUnknownFile {
			i.logger.Warn("Unsupported feed file", "file", location.file, "size_bytes", len(content))
			return nil
		}
		return &schema.ParseError{File: location.file, Msg: msg}
	}
	i.logger.Info("Processing feed file", "file", location.file, "size_bytes", len(content))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return &schema.ParseError{File: location.file, Msg: fmt.Sprintf("reading header: %v", err)}
	}
	for idx := range header {
		header[idx] = strings.TrimSpace(header[idx])
	}

	handler := i.handler(table)
	count := 0
	for rowIndex := 0; ; rowIndex++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &schema.ParseError{
				File: location.file, Row: rowIndex, Msg: fmt.Sprintf("reading record: %v", err),
			}
		}
		raw := make(map[string]string, len(header))
		for idx, name := range header {
			raw[name] = record[idx]
		}
		row, err := i.validator.ValidateRow(table, rowIndex, raw, opts.AllowUnknownField)
		if err != nil {
			return err
		}
		if err := handler(location, rowIndex, row); err != nil {
			return err
		}
		count++
	}
	i.logger.Info("Feed file parsed", "file", location.file, "records", count)
	i.store.MarkChanged()
	return nil
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", file.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file.Name, err)
	}
	return data, nil
}

func ageDays(t time.Time) float64 {
	if t.IsZero() {
		return 1 << 20
	}
	return time.Since(t).Hours() / 24
}
