package mapreduce

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"DiskMR/internal/ledger"
	"DiskMR/internal/store"
	"DiskMR/internal/types"
)

// ErrMissingOutput means some, but not all, reducer outputs are absent.
var ErrMissingOutput = errors.New("reducer output missing")

// JoinStatus tells a successful join apart from one that found nothing left.
type JoinStatus int

const (
	Joined JoinStatus = iota
	AlreadyJoined
)

func (s JoinStatus) String() string {
	switch s {
	case Joined:
		return "joined"
	case AlreadyJoined:
		return "already-joined"
	default:
		return fmt.Sprintf("JoinStatus(%d)", int(s))
	}
}

// JoinOptions controls consolidation.
type JoinOptions struct {
	Cleanup    bool // delete reducer outputs once read
	Sort       bool
	Descending bool
}

// DefaultJoinOptions deletes consumed outputs and sorts by value, highest first.
func DefaultJoinOptions() JoinOptions {
	return JoinOptions{Cleanup: true, Sort: true, Descending: true}
}

// JoinResult is the outcome of Join.
type JoinResult[A any] struct {
	Status JoinStatus
	Pairs  []types.Pair[A]
	Path   string // where the joined result was written; empty when AlreadyJoined
}

// Join merges the reducer outputs into one result and writes it to the
// joined file.
//
// When final is set the number of outputs read is the mapper count, not the
// reducer count. Invocations that run one reducer each are started with a
// reducer count of one, and this is how the last of them finds every output.
// It reads past the real outputs whenever mappers and reducers differ, which
// then surfaces as ErrMissingOutput.
//
// A join that finds no outputs at all reports AlreadyJoined with no error.
func (e *Engine[V, A]) Join(final bool, opts JoinOptions) (JoinResult[A], error) {
	count := e.cfg.Reducers
	if final {
		if count != e.cfg.Mappers {
			e.logger.Warn("Final join reads %d outputs (mapper count) instead of %d (reducer count)", e.cfg.Mappers, count)
		}
		count = e.cfg.Mappers
	}

	var present, missing []int
	for i := 0; i < count; i++ {
		ok, err := store.Exists(e.layout.ReducerOutputFile(i))
		if err != nil {
			return JoinResult[A]{}, fmt.Errorf("failed to stat reducer output %d: %w", i, err)
		}
		if ok {
			present = append(present, i)
		} else {
			missing = append(missing, i)
		}
	}

	if len(present) == 0 {
		e.logger.Warn("No reducer outputs found: the join has probably been performed already")
		return JoinResult[A]{Status: AlreadyJoined, Pairs: []types.Pair[A]{}}, nil
	}
	if len(missing) > 0 {
		return JoinResult[A]{}, fmt.Errorf("%w: outputs %v of %d", ErrMissingOutput, missing, count)
	}

	var joined []types.Pair[A]
	for _, i := range present {
		pairs, err := store.ReadPairs[A](e.layout.ReducerOutputFile(i))
		if err != nil {
			return JoinResult[A]{}, err
		}
		joined = append(joined, pairs...)
	}

	if opts.Sort {
		slices.SortStableFunc(joined, func(a, b types.Pair[A]) int {
			c := cmp.Compare(a.Value, b.Value)
			if opts.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
			return strings.Compare(a.Key, b.Key)
		})
	}

	path := e.layout.JoinedFile()
	if err := store.WritePairs(path, joined); err != nil {
		return JoinResult[A]{}, err
	}

	if opts.Cleanup {
		for _, i := range present {
			if err := store.Remove(e.layout.ReducerOutputFile(i)); err != nil {
				return JoinResult[A]{}, err
			}
		}
	}

	if err := e.withLedger(func(l *ledger.Ledger) error { return l.RecordJoin() }); err != nil {
		return JoinResult[A]{}, err
	}

	e.logger.Info("Join completed: outputs=%d pairs=%d path=%s", len(present), len(joined), path)
	if joined == nil {
		joined = []types.Pair[A]{}
	}
	return JoinResult[A]{Status: Joined, Pairs: joined, Path: path}, nil
}
