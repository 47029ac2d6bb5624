package mapreduce

import (
	"cmp"
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	raft "github.com/hashicorp/raft"

	"DiskMR/internal/config"
	"DiskMR/internal/coordinator"
	"DiskMR/internal/ledger"
	"DiskMR/internal/logger"
	"DiskMR/internal/paths"
	"DiskMR/internal/splitter"
	"DiskMR/internal/types"
)

// Mapper defines the map function interface. It must not depend on shared
// mutable state: each call may run in a different process.
type Mapper[V any] interface {
	Map(key, value string) []types.Pair[V]
}

// Reducer defines the reduce function interface. The order of values is not
// guaranteed, so Reduce should not depend on it.
type Reducer[V, A any] interface {
	Reduce(key string, values []V) types.Pair[A]
}

// Strategy is the caller-supplied map and reduce logic of a job.
type Strategy[V, A any] interface {
	Mapper[V]
	Reducer[V, A]
}

// Option customizes an Engine.
type Option func(*options)

type options struct {
	launcher    coordinator.Launcher
	inProcess   bool
	ledgerStore raft.StableStore
}

// WithLauncher replaces the default process launcher.
func WithLauncher(l coordinator.Launcher) Option {
	return func(o *options) { o.launcher = l }
}

// WithInProcessWorkers runs tasks as goroutines instead of processes.
func WithInProcessWorkers() Option {
	return func(o *options) { o.inProcess = true }
}

// WithLedgerStore keeps the job ledger in store instead of the BoltDB file in
// the output directory.
func WithLedgerStore(store raft.StableStore) Option {
	return func(o *options) { o.ledgerStore = store }
}

// Engine is the MapReduce execution engine. All exchange between phases goes
// through files named by its layout.
type Engine[V any, A cmp.Ordered] struct {
	cfg         config.Config
	layout      paths.Layout
	strategy    Strategy[V, A]
	coordinator *coordinator.Coordinator
	ledgerStore raft.StableStore
	runID       string
	logger      *logger.Logger
}

// New creates an engine and splits the input into cfg.Mappers chunks.
func New[V any, A cmp.Ordered](cfg config.Config, strategy Strategy[V, A], opts ...Option) (*Engine[V, A], error) {
	e, err := attach(cfg, strategy)
	if err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	e.ledgerStore = o.ledgerStore

	launcher := o.launcher
	switch {
	case launcher != nil:
	case o.inProcess:
		launcher = coordinator.FuncLauncher(func(_ context.Context, t coordinator.Task) error {
			return e.runTask(t)
		})
	default:
		encoded, err := cfg.Encode()
		if err != nil {
			return nil, err
		}
		pl, err := coordinator.NewProcessLauncher(config.EnvKey + "=" + encoded)
		if err != nil {
			return nil, err
		}
		launcher = pl
	}
	e.coordinator = coordinator.New(launcher, cfg.WaitTimeout, e.logger.Named("coordinator"))

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := e.split(); err != nil {
		return nil, err
	}

	e.logger.Info("Engine ready: %s", e.logger.WithContext(map[string]interface{}{
		"run_id":   e.runID,
		"input":    cfg.InputDir,
		"output":   cfg.OutputDir,
		"mappers":  cfg.Mappers,
		"reducers": cfg.Reducers,
		"cleanup":  cfg.Cleanup,
	}))
	return e, nil
}

// attach builds an engine over an existing job without splitting. Workers
// use it: the parent has already written their input.
func attach[V any, A cmp.Ordered](cfg config.Config, strategy Strategy[V, A]) (*Engine[V, A], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, fmt.Errorf("strategy cannot be nil")
	}

	return &Engine[V, A]{
		cfg:      cfg,
		layout:   paths.New(cfg.InputDir, cfg.OutputDir),
		strategy: strategy,
		runID:    "run-" + uuid.New().String()[:8],
		logger:   logger.New(cfg.LogLevel),
	}, nil
}

func (e *Engine[V, A]) split() error {
	content, err := os.ReadFile(e.layout.InputFile())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	chunks, err := splitter.Split(content, e.cfg.Mappers)
	if err != nil {
		return err
	}
	if err := splitter.WriteChunks(e.layout, chunks); err != nil {
		return err
	}

	for _, c := range chunks {
		e.logger.Debug("Split written: index=%d bytes=%d", c.Index, len(c.Value))
	}
	e.logger.Info("Input split: bytes=%d chunks=%d", len(content), len(chunks))

	return e.withLedger(func(l *ledger.Ledger) error {
		return l.RecordSplit(e.runID, len(chunks))
	})
}

// Config returns the job configuration.
func (e *Engine[V, A]) Config() config.Config {
	return e.cfg
}

// Layout returns the file layout of the job.
func (e *Engine[V, A]) Layout() paths.Layout {
	return e.layout
}

// Execute runs the phases mode asks for. With more than one reducer every
// partition is reduced; with exactly one, only partition reducerThreadID is,
// which lets an outside controller run one reducer per invocation.
func (e *Engine[V, A]) Execute(ctx context.Context, mode types.Mode, reducerThreadID int) error {
	if !mode.IncludesMap() && !mode.IncludesReduce() {
		return fmt.Errorf("mode %q runs no phase", mode)
	}

	if mode.IncludesMap() {
		if _, err := e.coordinator.RunPhase(ctx, types.PhaseMap, indices(e.cfg.Mappers)); err != nil {
			return fmt.Errorf("map phase failed: %w", err)
		}
		if err := e.withLedger(func(l *ledger.Ledger) error {
			return l.RecordMapDone(e.cfg.Mappers, e.cfg.Reducers)
		}); err != nil {
			return err
		}
	}

	if mode.IncludesReduce() {
		var tasks []int
		if e.cfg.Reducers > 1 {
			tasks = indices(e.cfg.Reducers)
		} else {
			if reducerThreadID < 0 {
				return fmt.Errorf("reducer thread id must not be negative, got %d", reducerThreadID)
			}
			tasks = []int{reducerThreadID}
		}

		if err := e.withLedger(func(l *ledger.Ledger) error {
			return l.CheckReduce(e.cfg.Mappers, e.cfg.Reducers, reducerThreadID)
		}); err != nil {
			return err
		}

		reports, err := e.coordinator.RunPhase(ctx, types.PhaseReduce, tasks)
		if ledgerErr := e.withLedger(func(l *ledger.Ledger) error {
			for _, r := range reports {
				if r.Status == types.TaskCompleted {
					if err := l.RecordReduceDone(r.Index); err != nil {
						return err
					}
				}
			}
			return nil
		}); ledgerErr != nil && err == nil {
			err = ledgerErr
		}
		if err != nil {
			return fmt.Errorf("reduce phase failed: %w", err)
		}
	}
	return nil
}

// runTask is what a worker does, whether it is a process or a goroutine.
func (e *Engine[V, A]) runTask(t coordinator.Task) error {
	switch t.Phase {
	case types.PhaseMap:
		return e.RunMapper(t.Index)
	case types.PhaseReduce:
		return e.RunReducer(t.Index)
	default:
		return fmt.Errorf("unknown phase %q", t.Phase)
	}
}

func (e *Engine[V, A]) withLedger(fn func(*ledger.Ledger) error) error {
	lg := e.logger.Named("ledger")
	if e.ledgerStore != nil {
		return fn(ledger.New(e.ledgerStore, lg))
	}

	l, err := ledger.Open(e.layout.LedgerFile(), e.cfg.LedgerTimeout, lg)
	if err != nil {
		return err
	}
	defer l.Close()
	return fn(l)
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
