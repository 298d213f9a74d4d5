package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyContent(t *testing.T) {
	assert.Nil(t, Split("", Strategy{MaxLength: 100}))
	assert.Nil(t, Split("   \n\t  ", Strategy{MaxLength: 100}))
}

func TestSplitShortContentSingleSegment(t *testing.T) {
	content := "A short paragraph that fits."
	segments := Split(content, Strategy{MaxLength: 100, MinLength: 5, Method: MethodSemantic})
	require.Len(t, segments, 1)
	assert.Equal(t, content, segments[0])
}

func TestSplitSemanticParagraphBoundaries(t *testing.T) {
	p1 := strings.Repeat("alpha ", 10) + "end."
	p2 := strings.Repeat("bravo ", 10) + "end."
	p3 := strings.Repeat("delta ", 10) + "end."
	content := p1 + "\n\n" + p2 + "\n\n" + p3

	segments := Split(content, Strategy{MaxLength: 80, MinLength: 10, Method: MethodSemantic})
	require.True(t, len(segments) >= 2)

	// Paragraph order is preserved: rejoining reproduces the source order.
	joined := strings.Join(segments, "\n\n")
	assert.Equal(t, content, joined)

	for _, s := range segments {
		assert.LessOrEqual(t, utf8.RuneCountInString(s), 80)
	}
}

func TestSplitFlushesUnterminatedParagraphOnSize(t *testing.T) {
	// No terminal punctuation anywhere; size alone must force flushes.
	content := strings.Repeat("word ", 100) + "\n\n" + strings.Repeat("more ", 100)
	segments := Split(content, Strategy{MaxLength: 120, MinLength: 10, Method: MethodSemantic})
	require.True(t, len(segments) >= 2)
}

func TestSplitMergesUndersizedTrailingFragment(t *testing.T) {
	p1 := strings.Repeat("alpha ", 20) + "end."
	tail := "Tiny."
	content := p1 + "\n\n" + tail

	segments := Split(content, Strategy{MaxLength: 125, MinLength: 50, Method: MethodSemantic})
	require.NotEmpty(t, segments)

	// The fragment is not dropped: every input word survives somewhere.
	joined := strings.Join(segments, " ")
	assert.Contains(t, joined, "Tiny.")
	// And it did not become its own undersized segment.
	last := segments[len(segments)-1]
	assert.GreaterOrEqual(t, utf8.RuneCountInString(last), 50)
}

func TestSplitHybridBreaksOversizedParagraphAtSentences(t *testing.T) {
	sentence := "This sentence has exactly enough words to matter. "
	paragraph := strings.TrimSpace(strings.Repeat(sentence, 10))

	segments := Split(paragraph, Strategy{MaxLength: 120, MinLength: 20, Method: MethodHybrid})
	require.True(t, len(segments) >= 2)
	for _, s := range segments {
		assert.LessOrEqual(t, utf8.RuneCountInString(s), 120)
		// Hybrid segments end at sentence boundaries.
		assert.True(t, strings.HasSuffix(s, "."), "segment should end at a sentence: %q", s)
	}
}

func TestSplitSmartAppliesOverlap(t *testing.T) {
	p1 := strings.Repeat("alpha ", 15) + "end."
	p2 := strings.Repeat("bravo ", 15) + "end."
	content := p1 + "\n\n" + p2

	overlap := 20
	segments := Split(content, Strategy{MaxLength: 100, MinLength: 10, Overlap: overlap, Method: MethodSmart})
	require.True(t, len(segments) >= 2)

	// Each later segment starts with the tail of its predecessor's source
	// paragraph, so its length may exceed MaxLength by at most the overlap.
	for _, s := range segments[1:] {
		assert.LessOrEqual(t, utf8.RuneCountInString(s), 100+overlap)
	}
}

func TestSplitDefaultWindows(t *testing.T) {
	content := strings.Repeat("x", 250)
	segments := Split(content, Strategy{MaxLength: 100, Method: MethodDefault})
	require.Len(t, segments, 3)
	assert.Equal(t, 100, utf8.RuneCountInString(segments[0]))
	assert.Equal(t, 100, utf8.RuneCountInString(segments[1]))
	assert.Equal(t, 50, utf8.RuneCountInString(segments[2]))
}

func TestSplitLongDocumentBounds(t *testing.T) {
	// 7,000 characters with maxLength 2000 must yield at least 4 segments.
	var b strings.Builder
	for b.Len() < 7000 {
		b.WriteString(strings.Repeat("lorem ipsum dolor sit amet ", 6))
		b.WriteString("consectetur.\n\n")
	}
	content := b.String()[:7000]

	strategy := Strategy{MaxLength: 2000, MinLength: 100, Method: MethodSemantic}
	segments := Split(content, strategy)
	require.GreaterOrEqual(t, len(segments), 4)
	for _, s := range segments {
		assert.LessOrEqual(t, utf8.RuneCountInString(s), 2000+strategy.Overlap)
	}
}
