package ingestion_engine

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/contexta-ingest/internal/core"
)

func TestNewTextChunkerRejectsInvalidSizes(t *testing.T) {
	cases := []struct {
		name             string
		maxSize, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap above size", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTextChunker(tc.maxSize, tc.overlap)
			require.ErrorIs(t, err, core.ErrConfig)
		})
	}
}

func TestChunkEmptyText(t *testing.T) {
	c, err := NewTextChunker(800, 100)
	require.NoError(t, err)

	assert.Empty(t, c.Chunk(""))
	assert.Empty(t, c.Chunk("  \n\n\t "))
}

func TestChunkShortTextIsSingleChunk(t *testing.T) {
	c, err := NewTextChunker(800, 100)
	require.NoError(t, err)

	chunks := c.Chunk("  A short note about quarterly revenue.  ")
	assert.Equal(t, []string{"A short note about quarterly revenue."}, chunks)
}

func TestChunkFifteenHundredCharsGivesTwoChunks(t *testing.T) {
	text := "xxxxx" + strings.Repeat(" xxxx", 299)
	require.Len(t, text, 1500)

	c, err := NewTextChunker(800, 100)
	require.NoError(t, err)

	chunks := c.Chunk(text)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 800)
	assert.Len(t, chunks[1], 799)

	// the second chunk starts with the last 100 characters of the first, minus the leading space
	tail := strings.TrimSpace(chunks[0][len(chunks[0])-100:])
	assert.True(t, strings.HasPrefix(chunks[1], tail))
}

func TestChunkPrefersParagraphBoundaries(t *testing.T) {
	para := func(word string) string { return strings.TrimSpace(strings.Repeat(word+" ", 12)) }
	text := para("alpha") + "\n\n" + para("beta") + "\n\n" + para("gamma")

	c, err := NewTextChunker(80, 0)
	require.NoError(t, err)

	chunks := c.Chunk(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, para("alpha"), chunks[0])
	assert.Equal(t, para("beta"), chunks[1])
	assert.Equal(t, para("gamma"), chunks[2])
}

func TestChunkInvariants(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("# Section heading\n\n")
		sb.WriteString("The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs. ")
		sb.WriteString("Sphinx of black quartz, judge my vow.\n")
		sb.WriteString("Ünïcödé lines count characters, not bytes: ĀĂĄĆĈĊČĎĐĒĔĖĘĚĜĞ.\n\n")
	}
	text := sb.String()

	for _, sizes := range [][2]int{{800, 100}, {200, 50}, {64, 0}, {50, 49}} {
		c, err := NewTextChunker(sizes[0], sizes[1])
		require.NoError(t, err)

		chunks := c.Chunk(text)
		require.NotEmpty(t, chunks)
		for _, ch := range chunks {
			assert.NotEmpty(t, ch)
			assert.Equal(t, strings.TrimSpace(ch), ch)
			assert.LessOrEqual(t, utf8.RuneCountInString(ch), sizes[0], "chunk exceeds %d: %q", sizes[0], ch)
		}

		// deterministic
		assert.Equal(t, chunks, c.Chunk(text))
	}
}

// uniqueWordText builds sentences and paragraphs out of words that never repeat,
// so every chunk has exactly one position in the text.
func uniqueWordText(sentences int) string {
	var sb strings.Builder
	word := 0
	for s := 0; s < sentences; s++ {
		for w := 0; w < s%7+3; w++ {
			if w > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "t%04d", word)
			word++
		}
		sb.WriteString(".")
		switch {
		case s%5 == 4:
			sb.WriteString("\n\n")
		case s%7 == 3:
			sb.WriteString("\n")
		default:
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func TestChunksCoverTextWithBoundedOverlap(t *testing.T) {
	text := uniqueWordText(150)

	for _, sizes := range [][2]int{{800, 100}, {120, 30}, {40, 10}, {60, 0}} {
		maxSize, overlap := sizes[0], sizes[1]
		t.Run(fmt.Sprintf("%d/%d", maxSize, overlap), func(t *testing.T) {
			c, err := NewTextChunker(maxSize, overlap)
			require.NoError(t, err)
			chunks := c.Chunk(text)
			require.NotEmpty(t, chunks)

			prevStart, prevEnd := -1, 0
			for i, ch := range chunks {
				off := strings.Index(text[prevStart+1:], ch)
				require.GreaterOrEqual(t, off, 0, "chunk %d not found after the previous one: %q", i, ch)
				start := prevStart + 1 + off

				if start > prevEnd {
					assert.Empty(t, strings.TrimSpace(text[prevEnd:start]), "gap before chunk %d", i)
				} else {
					assert.LessOrEqual(t, prevEnd-start, overlap, "chunk %d repeats too much", i)
				}
				prevStart, prevEnd = start, start+len(ch)
			}
			assert.Empty(t, strings.TrimSpace(text[prevEnd:]), "text after the last chunk is lost")
		})
	}
}

func TestChunkWithoutSeparatorsFallsBackToCharacters(t *testing.T) {
	c, err := NewTextChunker(10, 2)
	require.NoError(t, err)

	chunks := c.Chunk(strings.Repeat("a", 25))
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch), 10)
	}
	assert.Equal(t, strings.Repeat("a", 10), chunks[0])
}

func TestSplitKeepingSeparator(t *testing.T) {
	assert.Equal(t, []string{"a", " b", " c"}, splitKeepingSeparator("a b c", " "))
	assert.Equal(t, []string{"\n\nx"}, splitKeepingSeparator("\n\nx", "\n\n"))
	assert.Equal(t, []string{"h", "é"}, splitKeepingSeparator("hé", ""))
}
