package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-lens/app/analysis"
)

type Analyzer interface {
	Run(ctx context.Context, limit int) (*analysis.Report, error)
}

var _ Analyzer = (*analysis.RunGuard)(nil)

// AnalyzeTask runs one incremental analysis. It is never retried since the
// next run picks up every record this one could not classify.
type AnalyzeTask struct {
	Task
	Limit    int
	analyzer Analyzer
}

func NewAnalyzeTask(limit int, analyzer Analyzer) *AnalyzeTask {
	task := &AnalyzeTask{
		Task:     NewTask(TaskTypeAnalyze, "all"),
		Limit:    limit,
		analyzer: analyzer,
	}
	task.MaxRetries = 0
	return task
}

func (t *AnalyzeTask) Execute(ctx context.Context) error {
	report, err := t.analyzer.Run(ctx, t.Limit)
	if errors.Is(err, analysis.ErrTooSoon) || errors.Is(err, analysis.ErrRunInProgress) {
		slog.Debug("Analysis skipped", "reason", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run analysis: %w", err)
	}

	slog.Info("Task completed",
		"type", "Analyzed",
		"run_id", report.RunID,
		"duration", t.GetDuration(),
		"candidates", report.Candidates,
		"classified", len(report.Results),
		"failed", len(report.Failures))

	return nil
}
