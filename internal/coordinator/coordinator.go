package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"DiskMR/internal/logger"
	"DiskMR/internal/types"
)

// TaskEnvKey is the environment variable that turns a process into a worker.
const TaskEnvKey = "DISKMR_TASK"

var (
	ErrWorkerFailed   = errors.New("worker failed")
	ErrWorkerPanicked = errors.New("worker panicked")
)

// Task is one unit of work handed to a worker.
type Task struct {
	ID    string
	Phase types.Phase
	Index int
}

func (t Task) String() string {
	return fmt.Sprintf("%s-%d(%s)", t.Phase, t.Index, t.ID)
}

// Encode renders the task as "phase:index:id" for the worker environment.
func (t Task) Encode() string {
	return fmt.Sprintf("%s:%d:%s", t.Phase, t.Index, t.ID)
}

// ParseTask is the inverse of Encode.
func ParseTask(s string) (Task, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Task{}, fmt.Errorf("malformed task %q", s)
	}

	phase := types.Phase(parts[0])
	if phase != types.PhaseMap && phase != types.PhaseReduce {
		return Task{}, fmt.Errorf("unknown phase %q in task %q", parts[0], s)
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil || index < 0 {
		return Task{}, fmt.Errorf("invalid index in task %q", s)
	}
	return Task{ID: parts[2], Phase: phase, Index: index}, nil
}

// TaskFromEnv reports the task this process was started for, if any.
func TaskFromEnv() (Task, bool, error) {
	s, ok := os.LookupEnv(TaskEnvKey)
	if !ok {
		return Task{}, false, nil
	}
	t, err := ParseTask(s)
	return t, true, err
}

// Launcher runs one task and blocks until its worker has exited. It must
// return once ctx is done.
type Launcher interface {
	Launch(ctx context.Context, task Task) error
}

// Coordinator fans a phase out to workers and waits for all of them.
type Coordinator struct {
	launcher Launcher
	timeout  time.Duration
	logger   *logger.Logger
}

// New creates a coordinator. A zero timeout waits for workers forever.
func New(launcher Launcher, timeout time.Duration, lg *logger.Logger) *Coordinator {
	return &Coordinator{
		launcher: launcher,
		timeout:  timeout,
		logger:   lg,
	}
}

// RunPhase starts one worker per index and returns only after every worker
// has exited. This is the barrier between phases: nothing of the next phase
// may start before RunPhase returns. Failures of all workers are joined into
// the returned error; none are retried.
func (c *Coordinator) RunPhase(ctx context.Context, phase types.Phase, indices []int) ([]types.TaskReport, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Info("Starting phase: phase=%s tasks=%d", phase, len(indices))
	start := time.Now()

	reports := make([]types.TaskReport, len(indices))
	var wg sync.WaitGroup
	wg.Add(len(indices))

	for i, index := range indices {
		task := Task{
			ID:    "task-" + uuid.New().String()[:8],
			Phase: phase,
			Index: index,
		}
		go func(slot int, t Task) {
			defer wg.Done()
			reports[slot] = c.run(ctx, t)
		}(i, task)
	}

	wg.Wait()

	var errs []error
	for _, r := range reports {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	if len(errs) > 0 {
		c.logger.Error("Phase failed: phase=%s failed=%d/%d elapsed=%s", phase, len(errs), len(indices), time.Since(start))
		return reports, errors.Join(errs...)
	}

	c.logger.Info("Phase completed: phase=%s tasks=%d elapsed=%s", phase, len(indices), time.Since(start))
	return reports, nil
}

func (c *Coordinator) run(ctx context.Context, t Task) types.TaskReport {
	report := types.TaskReport{TaskID: t.ID, Phase: t.Phase, Index: t.Index, Status: types.TaskRunning}
	c.logger.Debug("Launching worker: task=%s", t)

	start := time.Now()
	err := c.launcher.Launch(ctx, t)
	report.Duration = time.Since(start)

	if err != nil {
		report.Status = types.TaskFailed
		report.Err = fmt.Errorf("%s %d: %w", t.Phase, t.Index, err)
		c.logger.Error("Worker failed: task=%s err=%v", t, err)
		return report
	}

	report.Status = types.TaskCompleted
	c.logger.Debug("Worker exited: task=%s elapsed=%s", t, report.Duration)
	return report
}
