package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-lens/app/feed"
)

type Collector interface {
	Collect(ctx context.Context, outletName, category string) (*feed.CollectReport, error)
}

var _ Collector = (*feed.Collector)(nil)

type CollectOutletTask struct {
	Task
	Category  string
	collector Collector
}

func NewCollectOutletTask(outletName, category string, collector Collector) *CollectOutletTask {
	return &CollectOutletTask{
		Task:      NewTask(TaskTypeCollectOutlet, outletName),
		Category:  category,
		collector: collector,
	}
}

func (t *CollectOutletTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	report, err := t.collector.Collect(ctx, t.Target, t.Category)
	if err != nil {
		return fmt.Errorf("failed to collect outlet: %w", err)
	}

	// Retry only when nothing could be fetched at all.
	if report.Endpoints > 0 && len(report.Failures) == report.Endpoints {
		return fmt.Errorf("all %d endpoints failed: %w", report.Endpoints, report.Failures[0])
	}

	slog.Info("Task completed",
		"type", "CollectedOutlet",
		"outlet", t.Target,
		"duration", t.GetDuration(),
		"fetched", report.Fetched,
		"duplicates", report.Duplicates,
		"already_stored", report.AlreadyStored,
		"new", report.Stored,
		"failed_endpoints", len(report.Failures))

	return nil
}
