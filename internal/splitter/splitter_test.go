package splitter

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"DiskMR/internal/paths"
)

var splitInputs = []string{
	"",
	"word",
	"the cat the dog the cat",
	"  leading and trailing  ",
	"line one\nline two\n\tline three\r\nline four\n",
	strings.Repeat("lorem ipsum dolor sit amet ", 200),
	"unicode wörds crossing ñ boundaries ünd more ünd more ünd more",
	"averyveryverylongtokenwithoutanyspaceatall short",
}

// TestSplitRoundTrip checks that joining the chunk values gives back the input
// and that every boundary lands on whitespace.
func TestSplitRoundTrip(t *testing.T) {
	for _, input := range splitInputs {
		for n := 1; n <= 7; n++ {
			chunks, err := Split([]byte(input), n)
			if err != nil {
				t.Fatalf("Split(%q, %d) failed: %v", input, n, err)
			}
			if len(chunks) != n {
				t.Fatalf("Split(%q, %d) returned %d chunks", input, n, len(chunks))
			}

			var joined bytes.Buffer
			for i, c := range chunks {
				if c.Index != i {
					t.Fatalf("chunk %d has index %d", i, c.Index)
				}
				joined.Write(c.Value)

				// a chunk followed by content was cut at a boundary
				if i < n-1 && len(chunks[i+1].Value) > 0 && !isSpace(c.Value[len(c.Value)-1]) {
					t.Fatalf("Split(%q, %d): chunk %d ends inside a token: %q", input, n, i, c.Value)
				}
			}
			if joined.String() != input {
				t.Fatalf("Split(%q, %d) round trip mismatch: got %q", input, n, joined.String())
			}
		}
	}
	t.Logf("✓ Split round trip holds for %d inputs", len(splitInputs))
}

func TestSplitKnownBoundary(t *testing.T) {
	chunks, err := Split([]byte("the cat the dog the cat"), 2)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	// chunk size is ceil(23/2)+1 = 13, so the first boundary needs offset > 14
	if got := string(chunks[0].Value); got != "the cat the dog " {
		t.Fatalf("unexpected first chunk: %q", got)
	}
	if got := string(chunks[1].Value); got != "the cat" {
		t.Fatalf("unexpected second chunk: %q", got)
	}
}

func TestSplitPadsWhenBoundariesRunOut(t *testing.T) {
	chunks, err := Split([]byte("onlyonetoken"), 4)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	if string(chunks[0].Value) != "onlyonetoken" {
		t.Fatalf("first chunk should hold the whole token, got %q", chunks[0].Value)
	}
	for _, c := range chunks[1:] {
		if len(c.Value) != 0 {
			t.Fatalf("chunk %d should be empty, got %q", c.Index, c.Value)
		}
	}
}

func TestSplitRejectsZeroSplits(t *testing.T) {
	if _, err := Split([]byte("a b"), 0); err == nil {
		t.Fatalf("expected an error for zero splits")
	}
}

func TestWriteAndReadChunks(t *testing.T) {
	layout := paths.New(t.TempDir(), t.TempDir())
	input := "first line\nsecond line\n\nfourth"

	chunks, err := Split([]byte(input), 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if err := WriteChunks(layout, chunks); err != nil {
		t.Fatalf("WriteChunks failed: %v", err)
	}

	var joined strings.Builder
	for i := range chunks {
		c, err := ReadChunk(layout, i)
		if err != nil {
			t.Fatalf("ReadChunk(%d) failed: %v", i, err)
		}
		if c.Key != chunks[i].Key {
			t.Fatalf("chunk %d key mismatch: expected %q, got %q", i, chunks[i].Key, c.Key)
		}
		joined.Write(c.Value)
	}
	if joined.String() != input {
		t.Fatalf("payload round trip mismatch: got %q", joined.String())
	}

	data, err := os.ReadFile(layout.SplitFile(0))
	if err != nil {
		t.Fatalf("failed to read split file: %v", err)
	}
	if !strings.HasPrefix(string(data), "0\n") {
		t.Fatalf("split file should start with its index line, got %q", data)
	}
}

func TestReadChunkMissing(t *testing.T) {
	layout := paths.New(t.TempDir(), t.TempDir())
	if _, err := ReadChunk(layout, 3); err == nil {
		t.Fatalf("expected an error for a missing split")
	}
}
