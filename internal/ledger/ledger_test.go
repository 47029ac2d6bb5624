package ledger

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	raft "github.com/hashicorp/raft"

	"DiskMR/internal/logger"
)

func newTestLedger() *Ledger {
	return New(raft.NewInmemStore(), logger.New("ERROR"))
}

func TestManifestEmpty(t *testing.T) {
	m, err := newTestLedger().Manifest()
	if err != nil {
		t.Fatalf("Manifest failed: %v", err)
	}
	if m.MapDone || m.Mappers != 0 || m.RunID != "" || len(m.ReducersDone) != 0 {
		t.Fatalf("expected empty manifest, got %+v", m)
	}
}

func TestRecordPhases(t *testing.T) {
	l := newTestLedger()

	if err := l.RecordSplit("run-1", 3); err != nil {
		t.Fatalf("RecordSplit failed: %v", err)
	}
	if err := l.RecordMapDone(3, 4); err != nil {
		t.Fatalf("RecordMapDone failed: %v", err)
	}
	for _, i := range []int{0, 2} {
		if err := l.RecordReduceDone(i); err != nil {
			t.Fatalf("RecordReduceDone failed: %v", err)
		}
	}
	if err := l.RecordJoin(); err != nil {
		t.Fatalf("RecordJoin failed: %v", err)
	}

	m, err := l.Manifest()
	if err != nil {
		t.Fatalf("Manifest failed: %v", err)
	}
	want := Manifest{RunID: "run-1", Splits: 3, Mappers: 3, Reducers: 4, MapDone: true, ReducersDone: []int{0, 2}, Joins: 1}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("unexpected manifest:\n got  %+v\n want %+v", m, want)
	}

	// a new map phase forgets the reducers of the previous one
	if err := l.RecordMapDone(3, 4); err != nil {
		t.Fatalf("RecordMapDone failed: %v", err)
	}
	m, _ = l.Manifest()
	if len(m.ReducersDone) != 0 {
		t.Fatalf("expected reduce markers to be reset, got %v", m.ReducersDone)
	}
}

func TestCheckReduce(t *testing.T) {
	l := newTestLedger()

	if err := l.CheckReduce(2, 3, 0); err != nil {
		t.Fatalf("check without a recorded map phase should pass: %v", err)
	}
	if err := l.RecordMapDone(2, 3); err != nil {
		t.Fatalf("RecordMapDone failed: %v", err)
	}

	cases := []struct {
		name     string
		mappers  int
		reducers int
		tid      int
		wantErr  bool
	}{
		{"same partitioning", 2, 3, 0, false},
		{"one reducer per invocation", 2, 1, 2, false},
		{"thread outside partitions", 2, 1, 3, true},
		{"changed reducer count", 2, 4, 0, true},
		{"changed mapper count", 3, 3, 0, true},
	}
	for _, tc := range cases {
		err := l.CheckReduce(tc.mappers, tc.reducers, tc.tid)
		if tc.wantErr && !errors.Is(err, ErrPartitionMismatch) {
			t.Fatalf("%s: expected ErrPartitionMismatch, got %v", tc.name, err)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestOpenBoltLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.ledger")

	l, err := Open(path, time.Second, logger.New("ERROR"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := l.RecordMapDone(2, 2); err != nil {
		t.Fatalf("RecordMapDone failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path, time.Second, logger.New("ERROR"))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	m, err := reopened.Manifest()
	if err != nil {
		t.Fatalf("Manifest failed: %v", err)
	}
	if !m.MapDone || m.Mappers != 2 || m.Reducers != 2 {
		t.Fatalf("ledger did not persist: %+v", m)
	}
	t.Logf("✓ Ledger persisted across reopen: %+v", m)
}
