package mapreduce

import (
	"cmp"
	"fmt"
	"os"

	"DiskMR/internal/config"
	"DiskMR/internal/coordinator"
)

// ServeWorker runs the task this process was started for by the process
// launcher. It reports false when the process is not a worker, in which case
// the caller carries on normally. Programs call it first thing in main, with
// the same strategy they pass to New.
func ServeWorker[V any, A cmp.Ordered](strategy Strategy[V, A]) (bool, error) {
	task, ok, err := coordinator.TaskFromEnv()
	if !ok {
		return false, nil
	}
	if err != nil {
		return true, err
	}

	raw, ok := os.LookupEnv(config.EnvKey)
	if !ok {
		return true, fmt.Errorf("worker %s started without %s", task, config.EnvKey)
	}
	cfg, err := config.Decode(raw)
	if err != nil {
		return true, err
	}

	e, err := attach(cfg, strategy)
	if err != nil {
		return true, err
	}
	e.logger.Debug("Worker started: task=%s pid=%d", task, os.Getpid())
	return true, e.runTask(task)
}
