package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-lens/app/metrics"
	"github.com/lysyi3m/rss-lens/app/outlet"
)

// RecordStore is the raw record relation the collector appends to.
type RecordStore interface {
	RecordHashes() (HashSet, error)
	AppendRecords(records []Record) (int, error)
}

type CollectReport struct {
	Outlet        string
	Category      string
	Endpoints     int
	Fetched       int
	Duplicates    int
	AlreadyStored int
	Stored        int
	Failures      []EndpointError
}

type Collector struct {
	registry   *outlet.Registry
	normalizer *Normalizer
	store      RecordStore
}

func NewCollector(registry *outlet.Registry, normalizer *Normalizer, store RecordStore) *Collector {
	return &Collector{
		registry:   registry,
		normalizer: normalizer,
		store:      store,
	}
}

// Collect normalizes one outlet and appends the records whose hash is not
// stored yet.
func (c *Collector) Collect(ctx context.Context, outletName, category string) (*CollectReport, error) {
	batch, err := c.normalizer.Normalize(ctx, outletName, category)
	if err != nil {
		return nil, err
	}

	report := &CollectReport{
		Outlet:    batch.Outlet,
		Category:  category,
		Endpoints: batch.Endpoints,
		Fetched:   len(batch.Records),
		Failures:  batch.Failures,
	}

	kept, dropped := Dedup(batch.Records)
	report.Duplicates = dropped

	existing, err := c.store.RecordHashes()
	if err != nil {
		return report, fmt.Errorf("failed to read stored hashes: %w", err)
	}

	fresh := make([]Record, 0, len(kept))
	for _, record := range kept {
		if existing.Has(record.ContentHash) {
			report.AlreadyStored++
			continue
		}
		fresh = append(fresh, record)
	}

	if len(fresh) > 0 {
		stored, err := c.store.AppendRecords(fresh)
		if err != nil {
			return report, fmt.Errorf("failed to store records: %w", err)
		}
		report.Stored = stored
	}

	metrics.DuplicatesDropped.WithLabelValues(report.Outlet).Add(float64(report.Duplicates + report.AlreadyStored))
	metrics.RecordsStored.WithLabelValues(report.Outlet).Add(float64(report.Stored))

	slog.Debug("Outlet collected",
		"outlet", report.Outlet,
		"category", category,
		"endpoints", report.Endpoints,
		"fetched", report.Fetched,
		"duplicates", report.Duplicates,
		"already_stored", report.AlreadyStored,
		"stored", report.Stored,
		"failed_endpoints", len(report.Failures))

	return report, nil
}

// CollectAll runs Collect for every registered outlet in name order. A store
// failure for one outlet does not stop the others.
func (c *Collector) CollectAll(ctx context.Context) ([]*CollectReport, error) {
	var (
		reports []*CollectReport
		errs    []error
	)

	for _, name := range c.registry.Names() {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		report, err := c.Collect(ctx, name, "")
		if err != nil {
			errs = append(errs, fmt.Errorf("outlet '%s': %w", name, err))
			continue
		}
		reports = append(reports, report)
	}

	return reports, errors.Join(errs...)
}
