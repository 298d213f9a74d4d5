package generation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/darvell/inkmill/internal/domain"
)

const terminalPunctuation = ".!?。！？…"

// maxTagRunes is the longest tag the post-filter lets through.
const maxTagRunes = 20

// PostProcess normalizes raw model output for the given artifact type.
// It returns ErrInvalidResponse (wrapped) when the output cannot be made
// usable for its type.
func PostProcess(kind domain.ArtifactType, raw string, vars PromptVars) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty output", ErrInvalidResponse)
	}

	switch kind {
	case domain.ArtifactSummary:
		return postProcessSummary(raw, vars.MaxLength), nil
	case domain.ArtifactTags:
		tags := NormalizeTags(strings.Split(raw, ","), vars.MaxTags)
		if len(tags) == 0 {
			return "", fmt.Errorf("%w: no usable tags", ErrInvalidResponse)
		}
		return strings.Join(tags, ","), nil
	case domain.ArtifactCategory:
		// A category is a single line; models occasionally add commentary.
		line := strings.TrimSpace(strings.SplitN(raw, "\n", 2)[0])
		line = strings.Trim(line, `"'`)
		if line == "" {
			return "", fmt.Errorf("%w: empty category", ErrInvalidResponse)
		}
		return line, nil
	case domain.ArtifactSEO:
		if _, err := domain.ParseSEOPayload(raw); err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// postProcessSummary clamps the summary to maxLength runes, cutting back
// to the last complete sentence when one exists past the halfway mark so
// the result does not end mid-thought.
func postProcessSummary(raw string, maxLength int) string {
	if maxLength <= 0 || utf8.RuneCountInString(raw) <= maxLength {
		return raw
	}

	runes := []rune(raw)[:maxLength]
	cut := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if strings.ContainsRune(terminalPunctuation, runes[i]) {
			cut = i
			break
		}
	}

	if cut > maxLength/2 {
		return string(runes[:cut+1])
	}
	return strings.TrimSpace(string(runes)) + "..."
}

// NormalizeTags trims, lowercases and deduplicates tags, drops empties and
// tags longer than maxTagRunes, and clamps the list to maxTags.
func NormalizeTags(tags []string, maxTags int) []string {
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || utf8.RuneCountInString(t) > maxTagRunes {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if maxTags > 0 && len(out) == maxTags {
			break
		}
	}
	return out
}

// MatchCategory resolves a suggested category against the configured list:
// exact match first, then substring match in either direction, then the
// default category, then the first configured category. Returns "" only
// when no categories are configured.
func MatchCategory(suggested, defaultCategory string, categories []string) string {
	if len(categories) == 0 {
		return ""
	}

	suggested = strings.TrimSpace(suggested)
	for _, c := range categories {
		if strings.EqualFold(c, suggested) {
			return c
		}
	}

	if suggested != "" {
		lower := strings.ToLower(suggested)
		for _, c := range categories {
			cl := strings.ToLower(c)
			if strings.Contains(cl, lower) || strings.Contains(lower, cl) {
				return c
			}
		}
	}

	for _, c := range categories {
		if c == defaultCategory {
			return c
		}
	}

	return categories[0]
}

// CombineSummaries joins per-segment summaries and clamps the result to
// maxLength, mirroring the summary post-processing rules.
func CombineSummaries(parts []string, maxLength int) string {
	var nonEmpty []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return postProcessSummary(strings.Join(nonEmpty, " "), maxLength)
}

// StripCodeFence removes a fenced code-block wrapper (``` or ```json)
// around a model reply, since some tasks expect structured JSON embedded
// in the response body.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	body := strings.TrimPrefix(s, "```")
	if idx := strings.Index(body, "\n"); idx >= 0 {
		// Drop the info string ("json", "text", ...) on the opening fence.
		body = body[idx+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
