// Package registry maintains the known operator/link table and the
// per-link feed version metadata.
package registry

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tfitracker-data/internal/common/logger"
	"github.com/tfitracker-data/internal/gtfs/scraper"
	"github.com/tfitracker-data/internal/gtfs/store"
	"github.com/tfitracker-data/pkg/gtfs/models"
)

// ErrIdenticalVersion marks a feed whose version tuple is already loaded.
// It is a skip signal, not a failure; match it with errors.Is.
var ErrIdenticalVersion = errors.New("identical feed version already loaded")

// VersionError carries the details of an identical-version detection.
type VersionError struct {
	Operator  string
	Link      string
	Version   string
	FirstSeen time.Time
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("version %q @ %s already loaded for %s / %s",
		e.Version, e.FirstSeen.Format(time.RFC3339), e.Operator, e.Link)
}

func (e *VersionError) Is(target error) bool { return target == ErrIdenticalVersion }

// Registry wraps the store's operator/link table with refresh and version
// transition logic.
type Registry struct {
	store   *store.Store
	fetcher scraper.SourceFetcher
	known   []string
	logger  logger.Logger
}

// New builds a registry. knownOperators must all be present after every
// refresh, otherwise the refresh fails.
func New(st *store.Store, fetcher scraper.SourceFetcher, knownOperators []string, log logger.Logger) *Registry {
	return &Registry{store: st, fetcher: fetcher, known: knownOperators, logger: log}
}

// AgeDays is the age of the operator/link table in days.
func (r *Registry) AgeDays() float64 {
	fetched := r.store.Registry().FetchedAt
	if fetched.IsZero() {
		return 1 << 20 // never fetched
	}
	return time.Since(fetched).Hours() / 24
}

// Fresh reports whether the table is younger than the freshness window.
// A zero window means always refresh.
func (r *Registry) Fresh(freshnessDays int) bool {
	return r.AgeDays() <= float64(freshnessDays)
}

// Refresh replaces the operator/link table from the source list. The list
// must be exactly two columns with the literal header "Operator,Link", and
// every known operator must appear in it.
func (r *Registry) Refresh(ctx context.Context) error {
	body, err := r.fetcher.FetchSources(ctx)
	if err != nil {
		return fmt.Errorf("refreshing source list: %w", err)
	}
	defer body.Close()

	operators := map[string]map[string]*models.FileMetadata{}
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	links := 0
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("reading source list: %w", err)
		}
		if len(record) != 2 {
			return fmt.Errorf("unexpected row in source list: %q", record)
		}
		if i == 0 {
			if record[0] != "Operator" || record[1] != "Link" {
				return fmt.Errorf("unexpected start of source list: %q", record)
			}
			continue
		}
		operator, link := record[0], record[1]
		if operators[operator] == nil {
			operators[operator] = map[string]*models.FileMetadata{}
		}
		operators[operator][link] = nil
		links++
	}

	for _, operator := range r.known {
		if _, ok := operators[operator]; !ok {
			return fmt.Errorf("operator %q not in loaded source list", operator)
		}
	}

	// keep metadata of links that survived the refresh
	current := r.store.Registry()
	for operator, oldLinks := range current.Operators {
		newLinks, ok := operators[operator]
		if !ok {
			continue
		}
		for link, metadata := range oldLinks {
			if _, ok := newLinks[link]; ok && metadata != nil {
				newLinks[link] = metadata
			}
		}
	}

	current.Operators = operators
	current.FetchedAt = time.Now()
	r.store.MarkChanged()
	r.logger.Info("Loaded official sources",
		"operators", len(operators), "links", links)
	return nil
}

// Metadata returns the stored feed metadata for a known (operator, link),
// which may be nil if no feed was parsed yet. Unknown pairs are errors.
func (r *Registry) Metadata(operator, link string) (*models.FileMetadata, error) {
	operators := r.store.Registry().Operators
	operatorLinks, ok := operators[operator]
	if !ok || operator == "" {
		return nil, fmt.Errorf("invalid operator %q", operator)
	}
	metadata, ok := operatorLinks[link]
	if !ok || link == "" {
		return nil, fmt.Errorf("invalid URL %q", link)
	}
	return metadata, nil
}

// ApplyFeedInfo records the feed_info of the feed being parsed. An incoming
// tuple identical to the stored one yields a VersionError (errors.Is
// ErrIdenticalVersion) and keeps the original first-seen timestamp; a
// differing tuple records the version transition.
func (r *Registry) ApplyFeedInfo(operator, link string, incoming *models.FileMetadata) error {
	current, err := r.Metadata(operator, link)
	if err != nil {
		return err
	}
	if current == nil {
		r.logger.Info("Loading feed version",
			"version", incoming.Version, "operator", operator, "link", link)
	} else {
		if current.SameVersion(incoming) {
			return &VersionError{
				Operator:  operator,
				Link:      link,
				Version:   current.Version,
				FirstSeen: current.FirstSeen,
			}
		}
		r.logger.Info("Updating feed version",
			"old_version", current.Version,
			"old_first_seen", current.FirstSeen.Format(time.RFC3339),
			"new_version", incoming.Version,
			"operator", operator, "link", link)
	}
	r.store.Registry().Operators[operator][link] = incoming
	r.store.MarkChanged()
	return nil
}
