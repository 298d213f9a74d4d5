package generation

import (
	"strings"
	"unicode/utf8"

	"github.com/darvell/inkmill/internal/domain"
)

// Quality thresholds shared by the refinement loop.
const (
	// qualityGoodEnough stops refinement early.
	qualityGoodEnough = 0.8
	// qualityPoor triggers the strongest prompt adjustment.
	qualityPoor = 0.3
	// qualityMediocre triggers a refinement hint; above it and below
	// qualityGoodEnough the prompt is left unchanged.
	qualityMediocre = 0.6
)

// Score computes a normalized quality score in [0,1] for a post-processed
// artifact. Scores are a weighted average of per-type sub-checks; they are
// recomputed per attempt and never persisted.
func Score(kind domain.ArtifactType, content string, vars PromptVars) float64 {
	content = strings.TrimSpace(content)
	if content == "" {
		return 0
	}

	switch kind {
	case domain.ArtifactSummary:
		return scoreSummary(content, vars.MaxLength)
	case domain.ArtifactTags:
		return scoreTags(content, vars.MaxTags)
	case domain.ArtifactCategory:
		return scoreCategory(content, vars.Categories)
	case domain.ArtifactSEO:
		return scoreSEO(content, vars.SEOLength)
	default:
		return 0
	}
}

// scoreSummary weighs length fit (0.4), sentence completeness (0.3) and
// lexical diversity (0.3).
func scoreSummary(content string, maxLength int) float64 {
	length := utf8.RuneCountInString(content)

	lengthFit := 1.0
	if maxLength > 0 {
		switch {
		case length > maxLength:
			lengthFit = 0
		case length < maxLength/10:
			// Too short to cover anything.
			lengthFit = float64(length) / float64(maxLength/10)
		}
	}

	complete := 0.0
	if r, _ := utf8.DecodeLastRuneInString(content); strings.ContainsRune(terminalPunctuation, r) {
		complete = 1.0
	}

	return 0.4*lengthFit + 0.3*complete + 0.3*lexicalDiversity(content)
}

// scoreTags weighs tag count fit (0.5) and per-tag format validity (0.5).
func scoreTags(content string, maxTags int) float64 {
	tags := strings.Split(content, ",")

	countFit := 1.0
	if maxTags > 0 && len(tags) > maxTags {
		countFit = float64(maxTags) / float64(len(tags))
	}

	valid := 0
	for _, t := range tags {
		t = strings.TrimSpace(t)
		n := utf8.RuneCountInString(t)
		if n >= 2 && n <= 30 && t == strings.ToLower(t) {
			valid++
		}
	}
	formatFit := float64(valid) / float64(len(tags))

	return 0.5*countFit + 0.5*formatFit
}

// scoreCategory is 1.0 for a configured category, 0.5 for a plausible
// single-line answer, and poor otherwise.
func scoreCategory(content string, categories []string) float64 {
	for _, c := range categories {
		if strings.EqualFold(c, content) {
			return 1.0
		}
	}
	if !strings.Contains(content, "\n") && utf8.RuneCountInString(content) <= 50 {
		return 0.5
	}
	return 0.2
}

// scoreSEO weighs payload validity (0.5), description length fit (0.3)
// and keyword presence (0.2).
func scoreSEO(content string, seoLength int) float64 {
	payload, err := domain.ParseSEOPayload(content)
	if err != nil {
		return 0
	}

	score := 0.5

	if seoLength <= 0 || utf8.RuneCountInString(payload.Description) <= seoLength {
		score += 0.3
	}

	keywords := 0
	for _, k := range strings.Split(payload.Keywords, ",") {
		if strings.TrimSpace(k) != "" {
			keywords++
		}
	}
	if keywords >= 1 {
		score += 0.2
	}

	return score
}

// lexicalDiversity is the unique-word ratio, a cheap proxy for whether a
// summary repeats itself.
func lexicalDiversity(content string) float64 {
	words := strings.Fields(strings.ToLower(content))
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique)) / float64(len(words))
}
