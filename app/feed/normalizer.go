package feed

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/rss-lens/app/metrics"
	"github.com/lysyi3m/rss-lens/app/outlet"
)

const tagTermKey = "term"

// Normalize maps raw entries onto the canonical schema using an outlet
// mapping. Unmapped fields are nil; mapped fields missing from an entry are
// nil too. It has no side effects.
func Normalize(entries []Entry, m outlet.Mapping) []Record {
	records := make([]Record, 0, len(entries))

	for _, entry := range entries {
		record := Record{
			Title:        stringField(entry, m, outlet.FieldTitle),
			Link:         stringField(entry, m, outlet.FieldLink),
			Summary:      stringField(entry, m, outlet.FieldSummary),
			Published:    stringField(entry, m, outlet.FieldPublished),
			Updated:      stringField(entry, m, outlet.FieldUpdated),
			Tags:         tagsField(entry, m),
			MediaContent: stringField(entry, m, outlet.FieldMediaContent),
			Content:      stringField(entry, m, outlet.FieldContent),
			Authors:      stringField(entry, m, outlet.FieldAuthors),
			ID:           stringField(entry, m, outlet.FieldID),
		}
		record.ContentHash = ContentHash(record.Title)
		records = append(records, record)
	}

	return records
}

func stringField(entry Entry, m outlet.Mapping, field string) *string {
	native, ok := m.Native(field)
	if !ok {
		return nil
	}

	value, ok := entry[native].(string)
	if !ok {
		return nil
	}
	return &value
}

func tagsField(entry Entry, m outlet.Mapping) []*string {
	native, ok := m.Native(outlet.FieldTags)
	if !ok {
		return nil
	}

	tags := []*string{}

	switch list := entry[native].(type) {
	case []Tag:
		for _, tag := range list {
			tags = append(tags, term(tag))
		}
	case []map[string]string:
		for _, tag := range list {
			tags = append(tags, term(tag))
		}
	case []any:
		for _, raw := range list {
			switch tag := raw.(type) {
			case Tag:
				tags = append(tags, term(tag))
			case map[string]string:
				tags = append(tags, term(tag))
			case map[string]any:
				if value, ok := tag[tagTermKey].(string); ok {
					tags = append(tags, &value)
				} else {
					tags = append(tags, nil)
				}
			default:
				tags = append(tags, nil)
			}
		}
	}

	return tags
}

func term(tag map[string]string) *string {
	value, ok := tag[tagTermKey]
	if !ok {
		return nil
	}
	return &value
}

// Normalizer fetches every endpoint of an outlet and normalizes the entries
// into one batch.
type Normalizer struct {
	registry    *outlet.Registry
	fetcher     Fetcher
	concurrency int
	timeout     time.Duration
}

func NewNormalizer(registry *outlet.Registry, fetcher Fetcher, concurrency int, timeout time.Duration) *Normalizer {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Normalizer{
		registry:    registry,
		fetcher:     fetcher,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// Normalize runs one outlet, or a single category of it when category is
// not empty. Unknown outlets and categories fail before any fetch. A failing
// endpoint is reported in Batch.Failures and does not fail the batch.
func (n *Normalizer) Normalize(ctx context.Context, outletName, category string) (*Batch, error) {
	o, err := n.registry.Get(outletName)
	if err != nil {
		return nil, err
	}

	endpoints, err := n.registry.Endpoints(outletName, category)
	if err != nil {
		return nil, err
	}

	results := make([][]Record, len(endpoints))
	errs := make([]error, len(endpoints))

	var g errgroup.Group
	g.SetLimit(n.concurrency)

	for i, endpoint := range endpoints {
		g.Go(func() error {
			fetchCtx := ctx
			if n.timeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(ctx, n.timeout)
				defer cancel()
			}

			entries, err := n.fetcher.Fetch(fetchCtx, endpoint.URL)
			if err != nil {
				errs[i] = err
				return nil
			}

			records := Normalize(entries, o.Mapping)
			for j := range records {
				records[j].Outlet = endpoint.Outlet
				records[j].Category = endpoint.Category
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	batch := &Batch{Outlet: o.Name, Endpoints: len(endpoints)}
	for i, endpoint := range endpoints {
		if errs[i] != nil {
			slog.Warn("Endpoint fetch failed, skipping", "outlet", endpoint.Outlet, "category", endpoint.Category, "url", endpoint.URL, "error", errs[i])
			batch.Failures = append(batch.Failures, EndpointError{Endpoint: endpoint, Err: errs[i]})
			continue
		}
		batch.Records = append(batch.Records, results[i]...)
	}

	metrics.EntriesFetched.WithLabelValues(o.Name).Add(float64(len(batch.Records)))
	metrics.EndpointFailures.WithLabelValues(o.Name).Add(float64(len(batch.Failures)))

	return batch, nil
}
