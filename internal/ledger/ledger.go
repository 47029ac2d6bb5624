package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	raft "github.com/hashicorp/raft"
	raftboltdb "github.com/hashicorp/raft-boltdb/v2"
	bolt "go.etcd.io/bbolt"

	"DiskMR/internal/logger"
)

var ErrPartitionMismatch = errors.New("partition count mismatch")

var (
	keyRunID    = []byte("run_id")
	keySplits   = []byte("splits")
	keyMappers  = []byte("mappers")
	keyReducers = []byte("reducers")
	keyMapDone  = []byte("map_done")
	keyJoins    = []byte("joins")
)

func reduceDoneKey(index int) []byte {
	return []byte(fmt.Sprintf("reduce_done/%d", index))
}

// Manifest is what the ledger knows about the job in an output directory.
type Manifest struct {
	RunID        string
	Splits       int
	Mappers      int // as of the last completed map phase
	Reducers     int // as of the last completed map phase
	MapDone      bool
	ReducersDone []int
	Joins        int
}

// Ledger records job progress across independent invocations, so a reduce
// phase started later (or by another controller) can check it uses the same
// partitioning as the map phase that produced its shards.
//
// Only the scheduling process opens the ledger. Workers never touch it.
type Ledger struct {
	store  raft.StableStore
	logger *logger.Logger
}

// New wraps an existing store, e.g. raft.NewInmemStore() in tests.
func New(store raft.StableStore, lg *logger.Logger) *Ledger {
	return &Ledger{store: store, logger: lg}
}

// Open opens (or creates) the BoltDB-backed ledger at path. timeout bounds the
// wait for the file lock held by another invocation.
func Open(path string, timeout time.Duration, lg *logger.Logger) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	store, err := raftboltdb.New(raftboltdb.Options{
		Path:        path,
		BoltOptions: &bolt.Options{Timeout: timeout},
	})
	if err != nil {
		lg.Error("Failed to open ledger: path=%s err=%v", path, err)
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	return New(store, lg), nil
}

// Close releases the underlying store if it holds resources.
func (l *Ledger) Close() error {
	if closer, ok := l.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// RecordSplit notes that the input was split into mappers chunks for run runID.
func (l *Ledger) RecordSplit(runID string, mappers int) error {
	if err := l.store.Set(keyRunID, []byte(runID)); err != nil {
		return fmt.Errorf("failed to record run id: %w", err)
	}
	if err := l.store.SetUint64(keySplits, uint64(mappers)); err != nil {
		return fmt.Errorf("failed to record split count: %w", err)
	}
	l.logger.Debug("Recorded split: run_id=%s splits=%d", runID, mappers)
	return nil
}

// RecordMapDone stores the partitioning of a completed map phase and clears
// the reduce markers of any earlier job.
func (l *Ledger) RecordMapDone(mappers, reducers int) error {
	for i := 0; i < reducers; i++ {
		if err := l.store.SetUint64(reduceDoneKey(i), 0); err != nil {
			return fmt.Errorf("failed to reset reducer %d: %w", i, err)
		}
	}
	if err := l.store.SetUint64(keyMappers, uint64(mappers)); err != nil {
		return fmt.Errorf("failed to record mapper count: %w", err)
	}
	if err := l.store.SetUint64(keyReducers, uint64(reducers)); err != nil {
		return fmt.Errorf("failed to record reducer count: %w", err)
	}
	if err := l.store.SetUint64(keyMapDone, 1); err != nil {
		return fmt.Errorf("failed to record map phase: %w", err)
	}
	l.logger.Info("Recorded map phase: mappers=%d reducers=%d", mappers, reducers)
	return nil
}

// RecordReduceDone marks reducer index as finished.
func (l *Ledger) RecordReduceDone(index int) error {
	if err := l.store.SetUint64(reduceDoneKey(index), 1); err != nil {
		return fmt.Errorf("failed to record reducer %d: %w", index, err)
	}
	return nil
}

// RecordJoin counts a consolidation.
func (l *Ledger) RecordJoin() error {
	joins, err := l.getUint64(keyJoins)
	if err != nil {
		return err
	}
	if err := l.store.SetUint64(keyJoins, joins+1); err != nil {
		return fmt.Errorf("failed to record join: %w", err)
	}
	return nil
}

// Manifest reads the current state.
func (l *Ledger) Manifest() (Manifest, error) {
	var m Manifest

	runID, err := l.store.Get(keyRunID)
	if err != nil && !isNotFound(err) {
		return m, fmt.Errorf("failed to read run id: %w", err)
	}
	m.RunID = string(runID)

	for _, field := range []struct {
		key []byte
		dst *int
	}{
		{keySplits, &m.Splits},
		{keyMappers, &m.Mappers},
		{keyReducers, &m.Reducers},
		{keyJoins, &m.Joins},
	} {
		v, err := l.getUint64(field.key)
		if err != nil {
			return m, err
		}
		*field.dst = int(v)
	}

	done, err := l.getUint64(keyMapDone)
	if err != nil {
		return m, err
	}
	m.MapDone = done == 1

	for i := 0; i < m.Reducers; i++ {
		v, err := l.getUint64(reduceDoneKey(i))
		if err != nil {
			return m, err
		}
		if v == 1 {
			m.ReducersDone = append(m.ReducersDone, i)
		}
	}
	return m, nil
}

// CheckReduce verifies that a reduce phase over mappers shards, with the given
// reducer count and thread id, matches the recorded map phase. With one
// reducer, tid names the partition to reduce and must be one the map phase
// wrote. Without a recorded map phase there is nothing to compare against.
func (l *Ledger) CheckReduce(mappers, reducers, tid int) error {
	m, err := l.Manifest()
	if err != nil {
		return err
	}
	if !m.MapDone {
		l.logger.Warn("No map phase recorded, skipping partition check")
		return nil
	}

	if m.Mappers != mappers {
		return fmt.Errorf("%w: map phase ran %d mappers, reduce expects %d", ErrPartitionMismatch, m.Mappers, mappers)
	}
	if reducers > 1 && reducers != m.Reducers {
		return fmt.Errorf("%w: map phase wrote %d partitions, reduce expects %d", ErrPartitionMismatch, m.Reducers, reducers)
	}
	if reducers == 1 && tid >= m.Reducers {
		return fmt.Errorf("%w: reducer thread %d outside the %d partitions written", ErrPartitionMismatch, tid, m.Reducers)
	}
	return nil
}

func (l *Ledger) getUint64(key []byte) (uint64, error) {
	v, err := l.store.GetUint64(key)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, nil
}

// Stores signal a missing key with a "not found" error, the same check raft
// itself applies to its stable store.
func isNotFound(err error) bool {
	return err != nil && err.Error() == "not found"
}
