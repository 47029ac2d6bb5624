// Package paths names every file a job reads or writes. Each (kind, indices)
// tuple maps to exactly one path, so concurrent workers never share a file.
package paths

import (
	"fmt"
	"path/filepath"
)

type Layout struct {
	InputDir  string
	OutputDir string
}

func New(inputDir, outputDir string) Layout {
	return Layout{InputDir: inputDir, OutputDir: outputDir}
}

// InputFile is the job's raw input.
func (l Layout) InputFile() string {
	return filepath.Join(l.InputDir, "file.ext")
}

// SplitFile is the chunk consumed by mapper index.
func (l Layout) SplitFile(index int) string {
	return filepath.Join(l.InputDir, fmt.Sprintf("file_%d.ext", index))
}

// ShardFile holds the pairs mapper routed to reducer.
func (l Layout) ShardFile(mapper, reducer int) string {
	return filepath.Join(l.OutputDir, fmt.Sprintf("map_file_%d-%d.ext", mapper, reducer))
}

func (l Layout) ReducerOutputFile(reducer int) string {
	return filepath.Join(l.OutputDir, fmt.Sprintf("reduce_file_%d.out", reducer))
}

func (l Layout) JoinedFile() string {
	return filepath.Join(l.OutputDir, "output.out")
}

func (l Layout) LedgerFile() string {
	return filepath.Join(l.OutputDir, "job.ledger")
}
