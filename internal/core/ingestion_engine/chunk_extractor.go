package ingestion_engine

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

// defaultSeparators are tried in order; the empty separator splits into single characters.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// TextChunker splits text on the coarsest boundary that exists, recursing into
// pieces that are still too long, then merges small pieces back into chunks of at
// most maxSize characters with up to overlap characters repeated between neighbours.
type TextChunker struct {
	maxSize    int
	overlap    int
	separators []string
}

// NewTextChunker validates the sizes. Lengths are counted in characters (runes).
func NewTextChunker(maxSize, overlap int) (*TextChunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrConfig, maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", core.ErrConfig, overlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("%w: chunk overlap (%d) must be smaller than chunk size (%d)", core.ErrConfig, overlap, maxSize)
	}
	return &TextChunker{maxSize: maxSize, overlap: overlap, separators: defaultSeparators}, nil
}

// Chunk returns the chunks of text in order. Empty or blank text gives no chunks.
func (c *TextChunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{}
	}
	return c.split(text, c.separators)
}

func (c *TextChunker) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			rest = separators[i+1:]
			break
		}
	}

	var (
		chunks []string
		good   []string
	)
	for _, piece := range splitKeepingSeparator(text, separator) {
		if runeLen(piece) < c.maxSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, c.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
		} else {
			chunks = append(chunks, c.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, c.merge(good)...)
	}
	return chunks
}

// merge packs pieces greedily. When a chunk is emitted, pieces are dropped from the
// front until what is left fits in the overlap and leaves room for the next piece.
func (c *TextChunker) merge(pieces []string) []string {
	var (
		out     []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > c.maxSize && len(current) > 0 {
			if doc := joinPieces(current); doc != "" {
				out = append(out, doc)
			}
			for len(current) > 0 && (total > c.overlap || total+n > c.maxSize) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := joinPieces(current); doc != "" {
		out = append(out, doc)
	}
	return out
}

// splitKeepingSeparator splits text and glues each separator to the start of the piece
// that follows it. Empty pieces are dropped.
func splitKeepingSeparator(text, separator string) []string {
	if separator == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	parts := strings.Split(text, separator)
	out := make([]string, 0, len(parts))
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, separator+p)
	}
	return out
}

func joinPieces(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, ""))
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
