package mapreduce

import (
	"encoding/json"
	"fmt"
	"sort"

	"DiskMR/internal/partition"
	"DiskMR/internal/splitter"
	"DiskMR/internal/store"
	"DiskMR/internal/types"
)

// RunMapper maps split index and routes every emitted pair to exactly one
// shard. A shard is written for every partition, empty or not, so the reducer
// can rely on finding all of them.
func (e *Engine[V, A]) RunMapper(index int) error {
	lg := e.logger.Named(fmt.Sprintf("mapper-%d", index))

	chunk, err := splitter.ReadChunk(e.layout, index)
	if err != nil {
		return err
	}
	if e.cfg.Cleanup {
		if err := store.Remove(e.layout.SplitFile(index)); err != nil {
			return err
		}
	}
	lg.Debug("Processing split: key=%s bytes=%d partitions=%d", chunk.Key, len(chunk.Value), e.cfg.Reducers)

	emitted := e.strategy.Map(chunk.Key, string(chunk.Value))

	buckets := make([][]types.Pair[V], e.cfg.Reducers)
	for _, kv := range emitted {
		r := partition.For(kv.Key, e.cfg.Reducers)
		buckets[r] = append(buckets[r], kv)
	}

	for r, bucket := range buckets {
		if err := store.WritePairs(e.layout.ShardFile(index, r), bucket); err != nil {
			return fmt.Errorf("failed to write shard %d-%d: %w", index, r, err)
		}
	}

	lg.Info("Mapper done: emitted=%d shards=%d", len(emitted), len(buckets))
	return nil
}

// RunReducer groups the values of every shard addressed to partition index
// and reduces each key once.
func (e *Engine[V, A]) RunReducer(index int) error {
	lg := e.logger.Named(fmt.Sprintf("reducer-%d", index))

	groups, err := e.groupShards(index)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]types.Pair[A], 0, len(keys))
	for _, k := range keys {
		results = append(results, e.strategy.Reduce(k, groups[k]))
	}

	if err := store.WritePairs(e.layout.ReducerOutputFile(index), results); err != nil {
		return fmt.Errorf("failed to write reducer output %d: %w", index, err)
	}

	lg.Info("Reducer done: shards=%d keys=%d", e.cfg.Mappers, len(keys))
	return nil
}

// groupShards reads shard (m, index) for every mapper m. A key is only
// complete once all of them have been read.
//
// A value that does not decode into V is logged and dropped; the key keeps
// its entry and the task goes on.
func (e *Engine[V, A]) groupShards(index int) (map[string][]V, error) {
	lg := e.logger.Named(fmt.Sprintf("reducer-%d", index))
	groups := make(map[string][]V)

	for m := 0; m < e.cfg.Mappers; m++ {
		path := e.layout.ShardFile(m, index)
		pairs, err := store.ReadRawPairs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read shard %d-%d: %w", m, index, err)
		}

		for _, kv := range pairs {
			if _, ok := groups[kv.Key]; !ok {
				groups[kv.Key] = []V{}
			}
			var v V
			if err := json.Unmarshal(kv.Value, &v); err != nil {
				lg.Warn("Dropping value while inserting key: key=%q shard=%d-%d err=%v", kv.Key, m, index, err)
				continue
			}
			groups[kv.Key] = append(groups[kv.Key], v)
		}

		if e.cfg.Cleanup {
			if err := store.Remove(path); err != nil {
				return nil, err
			}
		}
	}
	return groups, nil
}
