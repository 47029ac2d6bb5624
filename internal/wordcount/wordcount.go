package wordcount

import (
	"fmt"
	"io"
	"strings"

	"DiskMR/internal/types"
)

// WordCount counts how often each word occurs. It implements both halves of
// the engine's strategy.
type WordCount struct{}

func New() *WordCount {
	return &WordCount{}
}

// Map implements the Mapper interface for word count.
// It emits (word, 1) for every valid whitespace-separated word, lowercased.
func (wc *WordCount) Map(key, value string) []types.Pair[int] {
	var results []types.Pair[int]
	for _, word := range strings.Fields(value) {
		if IsWord(word) {
			results = append(results, types.Pair[int]{Key: strings.ToLower(word), Value: 1})
		}
	}
	return results
}

// IsWord reports whether every character of word is in the accepted range
// (code points 65 through 127). Digits and punctuation disqualify the whole
// word.
func IsWord(word string) bool {
	for _, r := range word {
		if r <= 64 || r >= 128 {
			return false
		}
	}
	return true
}

// Reduce implements the Reducer interface for word count.
func (wc *WordCount) Reduce(key string, values []int) types.Pair[int] {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return types.Pair[int]{Key: key, Value: sum}
}

// PrintResults writes at most limit results, one "word count" per line.
func PrintResults(w io.Writer, results []types.Pair[int], limit int) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No words found")
		return
	}

	if limit <= 0 || limit > len(results) {
		limit = len(results)
	}
	for _, kv := range results[:limit] {
		fmt.Fprintf(w, "%s %d\n", kv.Key, kv.Value)
	}
}
