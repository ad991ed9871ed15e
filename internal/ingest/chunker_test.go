package ingest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestNewChunkerRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap above size", 100, 150},
		{"zero size", 0, 0},
		{"negative overlap", 100, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			if !errors.Is(err, apperr.ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestSplitEmptyInput(t *testing.T) {
	c, err := NewChunker(800, 120)
	if err != nil {
		t.Fatal(err)
	}
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		if got := c.Split(text); len(got) != 0 {
			t.Fatalf("Split(%q) = %d chunks, want 0", text, len(got))
		}
	}
}

func TestSplitWindowOffsets(t *testing.T) {
	// 2000 words at size 800 / overlap 120 must start at 0, 680, 1360
	// and the last window must end at word 2000.
	c, err := NewChunker(800, 120)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Split(words(2000))
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	wantStarts := []int{0, 680, 1360}
	for i, chunk := range chunks {
		first := strings.SplitN(chunk, " ", 2)[0]
		if want := fmt.Sprintf("w%d", wantStarts[i]); first != want {
			t.Fatalf("chunk %d starts at %s, want %s", i, first, want)
		}
	}
	last := chunks[len(chunks)-1]
	fields := strings.Fields(last)
	if got := fields[len(fields)-1]; got != "w1999" {
		t.Fatalf("last chunk ends at %s, want w1999", got)
	}
}

func TestSplitReconstructsInput(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		text    string
	}{
		{"short text single window", 50, 10, words(30)},
		{"exact multiple", 10, 0, words(40)},
		{"with overlap", 10, 3, words(47)},
		{"messy whitespace", 8, 2, "  a\tb\n c   d e\nf g h i j k l m n o p  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(tt.size, tt.overlap)
			if err != nil {
				t.Fatal(err)
			}
			chunks := c.Split(tt.text)
			var rebuilt []string
			for i, chunk := range chunks {
				parts := strings.Split(chunk, " ")
				if i > 0 {
					if len(parts) < tt.overlap {
						t.Fatalf("chunk %d shorter than overlap", i)
					}
					parts = parts[tt.overlap:]
				}
				rebuilt = append(rebuilt, parts...)
			}
			if got, want := strings.Join(rebuilt, " "), Normalize(tt.text); got != want {
				t.Fatalf("reconstruction mismatch:\n got %q\nwant %q", got, want)
			}
		})
	}
}

func TestSplitOverlapBetweenWindows(t *testing.T) {
	c, err := NewChunker(10, 4)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Split(words(26))
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := strings.Split(chunks[i-1], " ")
		cur := strings.Split(chunks[i], " ")
		tail := strings.Join(prev[len(prev)-4:], " ")
		head := strings.Join(cur[:4], " ")
		if tail != head {
			t.Fatalf("windows %d/%d share %q vs %q, want identical", i-1, i, tail, head)
		}
	}
}

func TestChunkNumbersAndMetadata(t *testing.T) {
	c, err := NewChunker(5, 1)
	if err != nil {
		t.Fatal(err)
	}
	doc := &model.SourceDocument{
		FileName: "report.csv",
		Format:   "csv",
		Content:  words(12),
		Metadata: map[string]string{"rows": "12"},
	}
	chunks := c.Chunk(doc)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i, chunk := range chunks {
		if chunk.ChunkID != i {
			t.Fatalf("chunk %d has id %d", i, chunk.ChunkID)
		}
		if chunk.FileName != "report.csv" || chunk.Format != "csv" {
			t.Fatalf("chunk %d lost document identity", i)
		}
		if chunk.Metadata["rows"] != "12" {
			t.Fatalf("chunk %d lost metadata", i)
		}
	}
	// metadata maps must be independent copies
	chunks[0].Metadata["rows"] = "changed"
	if chunks[1].Metadata["rows"] != "12" {
		t.Fatal("chunk metadata maps are shared")
	}
}
