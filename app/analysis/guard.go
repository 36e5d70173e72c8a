package analysis

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrRunInProgress = errors.New("analysis run already in progress")

// RunGuard allows one analysis run at a time and remembers when the last
// run that reached classification started.
type RunGuard struct {
	analyzer    *Analyzer
	minInterval time.Duration

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

func NewRunGuard(analyzer *Analyzer, minInterval time.Duration) *RunGuard {
	return &RunGuard{analyzer: analyzer, minInterval: minInterval}
}

func (g *RunGuard) Run(ctx context.Context, limit int) (*Report, error) {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil, ErrRunInProgress
	}
	g.running = true
	lastRun := g.lastRun
	g.mu.Unlock()

	startedAt := time.Now()
	report, err := g.analyzer.Run(ctx, RunOptions{
		Limit:       limit,
		MinInterval: g.minInterval,
		LastRun:     lastRun,
	})

	g.mu.Lock()
	g.running = false
	// A nil report means the run stopped before reading the classified set.
	if report != nil {
		g.lastRun = startedAt
	}
	g.mu.Unlock()

	return report, err
}

func (g *RunGuard) LastRun() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRun
}
