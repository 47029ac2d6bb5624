package types

import (
	"fmt"
	"strings"
	"time"
)

// Pair is a key with its value. Shards, reducer outputs and the joined result
// are all stored as JSON arrays of pairs.
type Pair[V any] struct {
	Key   string `json:"key"`
	Value V      `json:"value"`
}

// Chunk is one whitespace-aligned slice of the job input.
type Chunk struct {
	Index int
	Key   string // first line of the split file
	Value []byte
}

// Mode selects which phases a single invocation runs.
type Mode string

const (
	ModeMap       Mode = "map"
	ModeReduce    Mode = "reduce"
	ModeMapReduce Mode = "mapreduce"
)

// ParseMode validates a mode string coming from the command line.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeMap, ModeReduce, ModeMapReduce:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q: expected map, reduce or mapreduce", s)
	}
}

// IncludesMap reports whether the map phase should run.
func (m Mode) IncludesMap() bool {
	return strings.Contains(string(m), "map")
}

// IncludesReduce reports whether the reduce phase should run.
func (m Mode) IncludesReduce() bool {
	return strings.Contains(string(m), "reduce")
}

// Phase is the kind of work a worker performs.
type Phase string

const (
	PhaseMap    Phase = "map"
	PhaseReduce Phase = "reduce"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// TaskReport is the outcome of one worker run, as observed by the coordinator.
type TaskReport struct {
	TaskID   string
	Phase    Phase
	Index    int
	Status   TaskStatus
	Err      error
	Duration time.Duration
}
