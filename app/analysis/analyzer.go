// Package analysis classifies stored records that have not been classified
// yet and appends the parsed results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/rss-lens/app/classifier"
	"github.com/lysyi3m/rss-lens/app/database"
	"github.com/lysyi3m/rss-lens/app/feed"
	"github.com/lysyi3m/rss-lens/app/metrics"
)

var ErrTooSoon = errors.New("analysis requested too soon after the previous run")

type RecordSource interface {
	AllRecords() ([]feed.Record, error)
}

type ResultStore interface {
	ClassifiedHashes() (feed.HashSet, error)
	AppendResults(results []database.Classification) (int, error)
}

type RunOptions struct {
	// Limit caps the number of records classified; zero or less is no cap.
	Limit       int
	MinInterval time.Duration
	LastRun     time.Time
}

type Analyzer struct {
	records     RecordSource
	results     ResultStore
	classifier  classifier.Classifier
	concurrency int
	timeout     time.Duration
}

func NewAnalyzer(records RecordSource, results ResultStore, c classifier.Classifier, concurrency int, timeout time.Duration) *Analyzer {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Analyzer{
		records:     records,
		results:     results,
		classifier:  c,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

type outcome struct {
	result  *Result
	failure *Failure
}

// Run classifies every stored record without a stored classification. The
// classified set is read once before the first call. Service and parse
// failures are reported per record and never stored; the results that did
// succeed are appended in one transaction.
func (a *Analyzer) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	if !opts.LastRun.IsZero() && opts.MinInterval > 0 {
		if since := time.Since(opts.LastRun); since < opts.MinInterval {
			metrics.AnalysisRuns.WithLabelValues("too_soon").Inc()
			return nil, fmt.Errorf("%w: last run %s ago, minimum interval is %s",
				ErrTooSoon, since.Round(time.Second), opts.MinInterval)
		}
	}

	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}

	records, err := a.records.AllRecords()
	if err != nil {
		metrics.AnalysisRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	classified, err := a.results.ClassifiedHashes()
	if errors.Is(err, database.ErrRelationMissing) {
		slog.Debug("No classified records yet", "run_id", report.RunID)
		classified = nil
	} else if err != nil {
		metrics.AnalysisRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read classified hashes: %w", err)
	}

	candidates := SelectCandidates(records, classified, opts.Limit)
	report.Candidates = len(candidates)

	slog.Debug("Analysis started",
		"run_id", report.RunID,
		"classifier", a.classifier.Name(),
		"records", len(records),
		"classified", len(classified),
		"candidates", len(candidates),
		"limit", opts.Limit)

	outcomes := make([]outcome, len(candidates))

	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, record := range candidates {
		g.Go(func() error {
			outcomes[i] = a.classify(ctx, record)
			return nil
		})
	}
	_ = g.Wait()

	classifiedAt := time.Now().UTC()
	for _, o := range outcomes {
		switch {
		case o.failure != nil:
			a.logFailure(report.RunID, o.failure)
			metrics.Classifications.WithLabelValues(string(o.failure.Kind)).Inc()
			report.Failures = append(report.Failures, *o.failure)
		case o.result != nil:
			o.result.ClassifiedAt = classifiedAt
			metrics.Classifications.WithLabelValues("success").Inc()
			report.Results = append(report.Results, *o.result)
		}
	}

	if len(report.Results) > 0 {
		stored, err := a.results.AppendResults(toRows(report.Results))
		if err != nil {
			metrics.AnalysisRuns.WithLabelValues("error").Inc()
			return report, fmt.Errorf("failed to store classification results: %w", err)
		}
		report.Stored = stored
	}

	report.Duration = time.Since(report.StartedAt)
	metrics.AnalysisRuns.WithLabelValues("completed").Inc()

	slog.Info("Analysis completed",
		"run_id", report.RunID,
		"duration", report.Duration,
		"candidates", report.Candidates,
		"classified", len(report.Results),
		"service_failures", report.FailureCount(FailureService),
		"parse_failures", report.FailureCount(FailureParse))

	return report, nil
}

func (a *Analyzer) classify(ctx context.Context, record feed.Record) outcome {
	title, summary := deref(record.Title), deref(record.Summary)

	if err := ctx.Err(); err != nil {
		return outcome{failure: &Failure{ContentHash: record.ContentHash, Title: title, Kind: FailureService, Err: err}}
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := a.classifier.Classify(callCtx, title, summary)
	metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return outcome{failure: &Failure{ContentHash: record.ContentHash, Title: title, Kind: FailureService, Err: err}}
	}

	result, err := ParseResponse(raw, record.ContentHash)
	if err != nil {
		return outcome{failure: &Failure{ContentHash: record.ContentHash, Title: title, Kind: FailureParse, Err: err}}
	}

	return outcome{result: &result}
}

func (a *Analyzer) logFailure(runID string, f *Failure) {
	switch f.Kind {
	case FailureParse:
		slog.Warn("Classification reply rejected", "run_id", runID, "kind", f.Kind, "hash", f.ContentHash, "title", f.Title, "error", f.Err)
	default:
		slog.Error("Classification service failed", "run_id", runID, "kind", f.Kind, "hash", f.ContentHash, "title", f.Title, "error", f.Err)
	}
}

func toRows(results []Result) []database.Classification {
	rows := make([]database.Classification, 0, len(results))
	for _, r := range results {
		rows = append(rows, database.Classification{
			ContentHash:  r.ContentHash,
			Topic:        r.Topic,
			Individuals:  r.Individuals,
			Sentiment:    r.Sentiment,
			ClassifiedAt: r.ClassifiedAt,
		})
	}
	return rows
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
