package splitter

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"DiskMR/internal/paths"
	"DiskMR/internal/store"
	"DiskMR/internal/types"
)

// Split cuts content into exactly n chunks of roughly equal size.
//
// A boundary is only taken on a whitespace byte once the running offset has
// passed chunkSize*k+1, so no token is ever broken and chunk sizes drift from
// the target. The whitespace byte stays at the end of the earlier chunk. When
// the input runs out of boundaries first, the remaining chunks are empty.
func Split(content []byte, n int) ([]types.Chunk, error) {
	if n < 1 {
		return nil, fmt.Errorf("number of splits must be at least 1, got %d", n)
	}

	chunkSize := (len(content)+n-1)/n + 1
	chunks := make([]types.Chunk, 0, n)
	start, current := 0, 1

	for i, b := range content {
		offset := i + 1
		if current < n && offset > chunkSize*current+1 && isSpace(b) {
			chunks = append(chunks, newChunk(len(chunks), content[start:offset]))
			start = offset
			current++
		}
	}
	chunks = append(chunks, newChunk(len(chunks), content[start:]))

	for len(chunks) < n {
		chunks = append(chunks, newChunk(len(chunks), nil))
	}
	return chunks, nil
}

func newChunk(index int, value []byte) types.Chunk {
	return types.Chunk{Index: index, Key: strconv.Itoa(index), Value: value}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// WriteChunks stores every chunk at its split path, key line first.
func WriteChunks(layout paths.Layout, chunks []types.Chunk) error {
	for _, c := range chunks {
		data := make([]byte, 0, len(c.Key)+1+len(c.Value))
		data = append(data, c.Key...)
		data = append(data, '\n')
		data = append(data, c.Value...)
		if err := store.WriteFile(layout.SplitFile(c.Index), data); err != nil {
			return fmt.Errorf("failed to write split %d: %w", c.Index, err)
		}
	}
	return nil
}

// ReadChunk loads split index. The first line is the key, the rest is the
// payload, byte for byte.
func ReadChunk(layout paths.Layout, index int) (types.Chunk, error) {
	data, err := os.ReadFile(layout.SplitFile(index))
	if err != nil {
		return types.Chunk{}, fmt.Errorf("failed to read split %d: %w", index, err)
	}

	c := types.Chunk{Index: index}
	if nl := bytes.IndexByte(data, '\n'); nl >= 0 {
		c.Key, c.Value = string(data[:nl]), data[nl+1:]
	} else {
		c.Key = string(data)
	}
	return c, nil
}
