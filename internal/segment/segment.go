// Package segment splits long content into bounded chunks along semantic
// boundaries so each chunk fits within a single generation request.
package segment

import (
	"strings"
	"unicode/utf8"
)

// Method selects the splitting algorithm.
type Method string

// Supported splitting methods.
const (
	// MethodSemantic accumulates whole paragraphs up to the size bound.
	MethodSemantic Method = "semantic"
	// MethodHybrid works like semantic but breaks oversized paragraphs
	// at sentence boundaries instead of mid-sentence.
	MethodHybrid Method = "hybrid"
	// MethodSmart is hybrid plus an overlap carried from the tail of the
	// previous segment, preserving context across chunk borders.
	MethodSmart Method = "smart"
	// MethodDefault slices on a hard rune window with no boundary detection.
	MethodDefault Method = "default"
)

// Strategy bounds the segments produced by Split. Lengths are in runes.
type Strategy struct {
	MaxLength int
	MinLength int
	Overlap   int
	Method    Method
}

// sentence-terminal punctuation, Latin and CJK
const terminalPunctuation = ".!?。！？…"

// Split divides content into segments per the strategy. Content that fits
// within MaxLength is returned as a single segment. Empty content yields
// an empty slice. The paragraph order of the input is preserved, and an
// undersized trailing fragment is merged into the previous segment rather
// than dropped.
func Split(content string, s Strategy) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if s.MaxLength <= 0 || utf8.RuneCountInString(content) <= s.MaxLength {
		return []string{content}
	}

	var segments []string
	switch s.Method {
	case MethodHybrid:
		segments = splitParagraphs(content, s.MaxLength, true)
	case MethodSmart:
		segments = withOverlap(splitParagraphs(content, s.MaxLength, true), s.Overlap)
	case MethodDefault:
		segments = splitWindow(content, s.MaxLength)
	default:
		segments = splitParagraphs(content, s.MaxLength, false)
	}

	return postFilter(segments, s.MinLength)
}

// splitParagraphs implements the semantic method: paragraphs separated by
// blank lines accumulate into a buffer that flushes when the next paragraph
// would push it past maxLength, or when the buffer alone reaches maxLength.
// A paragraph without terminal punctuation is still flushed on size so an
// unterminated final paragraph cannot hold the buffer open indefinitely.
// When splitSentences is set, a single paragraph larger than maxLength is
// broken at sentence ends instead of carried over whole.
func splitParagraphs(content string, maxLength int, splitSentences bool) []string {
	paragraphs := splitBlankLines(content)

	var segments []string
	var buf strings.Builder
	bufLen := 0

	flush := func() {
		if bufLen > 0 {
			segments = append(segments, buf.String())
			buf.Reset()
			bufLen = 0
		}
	}

	appendPart := func(part string) {
		partLen := utf8.RuneCountInString(part)
		sep := 0
		if bufLen > 0 {
			sep = 2 // "\n\n"
		}

		if bufLen+sep+partLen > maxLength {
			flush()
			sep = 0
		}

		if bufLen > 0 {
			buf.WriteString("\n\n")
			bufLen += 2
		}
		buf.WriteString(part)
		bufLen += partLen

		if bufLen >= maxLength {
			flush()
		}
	}

	for _, p := range paragraphs {
		if splitSentences && utf8.RuneCountInString(p) > maxLength {
			for _, sent := range splitSentencesOf(p, maxLength) {
				appendPart(sent)
			}
			continue
		}
		appendPart(p)
	}
	flush()

	return segments
}

// splitBlankLines breaks content on blank-line boundaries, the same
// paragraph notion the semantic method accumulates over.
func splitBlankLines(content string) []string {
	var paragraphs []string
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimRight(raw, " \t")
		if strings.TrimSpace(line) == "" {
			paragraphs = append(paragraphs, "")
			continue
		}
		paragraphs = append(paragraphs, line)
	}

	// Re-join consecutive non-empty lines into paragraphs.
	var out []string
	var cur []string
	for _, line := range paragraphs {
		if line == "" {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, "\n"))
	}
	return out
}

// splitSentencesOf breaks an oversized paragraph at sentence-terminal
// punctuation, falling back to hard windows for a single huge sentence.
func splitSentencesOf(paragraph string, maxLength int) []string {
	var sentences []string
	var cur []rune

	for _, r := range paragraph {
		cur = append(cur, r)
		if strings.ContainsRune(terminalPunctuation, r) {
			sentences = append(sentences, strings.TrimSpace(string(cur)))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		sentences = append(sentences, strings.TrimSpace(string(cur)))
	}

	var out []string
	for _, s := range sentences {
		if s == "" {
			continue
		}
		if utf8.RuneCountInString(s) > maxLength {
			out = append(out, splitWindow(s, maxLength)...)
			continue
		}
		out = append(out, s)
	}
	return out
}

// splitWindow slices content into fixed rune windows.
func splitWindow(content string, maxLength int) []string {
	runes := []rune(content)
	var out []string
	for start := 0; start < len(runes); start += maxLength {
		end := start + maxLength
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, strings.TrimSpace(string(runes[start:end])))
	}
	return out
}

// withOverlap prefixes each segment after the first with the tail of its
// predecessor so generation sees the surrounding context.
func withOverlap(segments []string, overlap int) []string {
	if overlap <= 0 || len(segments) < 2 {
		return segments
	}

	out := make([]string, len(segments))
	out[0] = segments[0]
	for i := 1; i < len(segments); i++ {
		prev := []rune(segments[i-1])
		n := overlap
		if n > len(prev) {
			n = len(prev)
		}
		out[i] = string(prev[len(prev)-n:]) + segments[i]
	}
	return out
}

// postFilter trims whitespace and enforces MinLength. An undersized
// segment is merged into its predecessor; if it has none it is kept, since
// dropping it would silently lose content.
func postFilter(segments []string, minLength int) []string {
	var out []string
	for _, s := range segments {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if minLength > 0 && utf8.RuneCountInString(s) < minLength && len(out) > 0 {
			out[len(out)-1] = out[len(out)-1] + "\n\n" + s
			continue
		}
		out = append(out, s)
	}
	return out
}
