package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/stratumlab/sowforge/internal/model"
	"github.com/stratumlab/sowforge/internal/pkg/apperr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Chunker splits normalized text into overlapping word windows. Window
// geometry is fixed at construction; overlap must stay below size.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", apperr.ErrInvalidConfig)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap must be smaller than chunk size", apperr.ErrInvalidConfig)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative", apperr.ErrInvalidConfig)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Normalize collapses whitespace runs to single spaces and trims the ends.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// Split returns the overlapping windows of the normalized text. Every
// word of the input is covered, consecutive windows share exactly
// `overlap` words, and the final window may be shorter.
func (c *Chunker) Split(text string) []string {
	sanitized := Normalize(text)
	if sanitized == "" {
		return nil
	}
	words := strings.Split(sanitized, " ")
	var chunks []string
	start := 0
	for start < len(words) {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.TrimSpace(strings.Join(words[start:end], " "))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
		start = end - c.overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

// Chunk turns an extracted document into ordered chunks numbered from 0,
// each carrying the document-level extraction facts.
func (c *Chunker) Chunk(doc *model.SourceDocument) []model.Chunk {
	pieces := c.Split(doc.Content)
	chunks := make([]model.Chunk, 0, len(pieces))
	for idx, content := range pieces {
		metadata := map[string]string{}
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		chunks = append(chunks, model.Chunk{
			ChunkID:  idx,
			Content:  content,
			FileName: doc.FileName,
			Format:   doc.Format,
			Metadata: metadata,
		})
	}
	return chunks
}
