package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	taskTimeout   = 5 * time.Minute
	maxRetryDelay = 30 * time.Second
)

type OutletLister interface {
	Names() []string
}

// Scheduler runs collection cycles on a fixed interval. A cycle enqueues
// one collect task per outlet and, once all of them have finished, one
// analysis task.
type Scheduler struct {
	outlets       OutletLister
	collector     Collector
	analyzer      Analyzer
	interval      time.Duration
	workerCount   int
	analysisLimit int
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	enqueueMu     sync.RWMutex
	taskQueue     chan TaskInterface
}

func NewScheduler(outlets OutletLister, collector Collector, analyzer Analyzer,
	interval time.Duration, workerCount, analysisLimit int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if workerCount < 1 {
		workerCount = 1
	}

	return &Scheduler{
		outlets:       outlets,
		collector:     collector,
		analyzer:      analyzer,
		interval:      interval,
		workerCount:   workerCount,
		analysisLimit: analysisLimit,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runCycle()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runCycle()
			}
		}
	}()
}

// Stop cancels running tasks and waits for the workers. The queue is left
// open so that pending retries cannot send on a closed channel; tasks still
// queued are finished without running.
func (s *Scheduler) Stop() {
	s.cancel()

	// Wait out enqueues that passed the context check.
	s.enqueueMu.Lock()
	s.enqueueMu.Unlock()

	s.wg.Wait()
	s.drainQueue()
}

func (s *Scheduler) drainQueue() {
	for {
		select {
		case task := <-s.taskQueue:
			slog.Debug("Dropping queued task on stop", "type", string(task.GetType()), "id", task.GetID())
			task.Finish()
		default:
			return
		}
	}
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	s.enqueueMu.RLock()
	defer s.enqueueMu.RUnlock()

	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) runCycle() {
	names := s.outlets.Names()
	if len(names) == 0 {
		slog.Debug("No outlets configured")
	}

	var group sync.WaitGroup
	for _, name := range names {
		task := NewCollectOutletTask(name, "", s.collector)
		task.Attach(&group)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue CollectOutletTask", "outlet", name, "error", err)
			task.Finish()
		}
	}

	collected := make(chan struct{})
	go func() {
		group.Wait()
		close(collected)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			return
		case <-collected:
		}

		if err := s.EnqueueTask(NewAnalyzeTask(s.analysisLimit, s.analyzer)); err != nil {
			slog.Warn("Failed to enqueue AnalyzeTask", "error", err)
		}
	}()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		task.Finish()
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
		task.Finish()
		return
	}

	task.IncrementRetryCount()
	retryDelay := min(time.Duration(1<<uint(task.GetRetryCount()-1))*time.Second, maxRetryDelay)

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		select {
		case <-time.After(retryDelay):
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			task.Finish()
			return
		}

		if retryErr := s.EnqueueTask(task); retryErr != nil {
			slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			task.Finish()
		}
	}()
}
