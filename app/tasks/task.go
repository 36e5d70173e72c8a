package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeCollectOutlet TaskType = "collect_outlet"
	TaskTypeAnalyze       TaskType = "analyze"
)

const (
	DefaultMaxRetries = 3
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetTarget() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	Finish()
	GetDuration() time.Duration
}

type Task struct {
	ID         string
	Type       TaskType
	Target     string
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time

	group *sync.WaitGroup
	done  *sync.Once
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

// GetTarget names what the task works on, e.g. an outlet.
func (t *Task) GetTarget() string {
	return t.Target
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

// Attach makes Finish release one slot of group.
func (t *Task) Attach(group *sync.WaitGroup) {
	group.Add(1)
	t.group = group
	t.done = &sync.Once{}
}

// Finish marks the task as done for good, after success or the last retry.
func (t *Task) Finish() {
	if t.group == nil {
		return
	}
	t.done.Do(t.group.Done)
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, target string) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		Target:     target,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}
