package generation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/darvell/inkmill/internal/domain"
)

// Placeholder tokens recognized in prompt templates.
const (
	tokenLanguage   = "{{LANGUAGE}}"
	tokenMaxLength  = "{{MAX_LENGTH}}"
	tokenMaxTags    = "{{MAX_TAGS}}"
	tokenCategories = "{{CATEGORIES}}"
	tokenSEOLength  = "{{SEO_LENGTH}}"
)

// Default system prompts per artifact type. Operators can override them
// per type through configuration; overrides use the same tokens.
var defaultPrompts = map[domain.ArtifactType]string{
	domain.ArtifactSummary: "You are a summarization engine. Generate a concise summary of the " +
		"given text in {{LANGUAGE}}, maximum length {{MAX_LENGTH}} characters. " +
		"Preserve key information density and the original tone. " +
		"Output plain text only, no markup, and finish every sentence.",
	domain.ArtifactTags: "You are a semantic tagging system. Generate up to {{MAX_TAGS}} tags " +
		"in {{LANGUAGE}} for the given text, separated by commas. " +
		"Tags are lowercase, 2-30 characters each, no duplicates, " +
		"specific to the content rather than generic.",
	domain.ArtifactCategory: "You are a content classifier. Select the single most appropriate " +
		"category for the given text from this list:\n{{CATEGORIES}}\n" +
		"Return exactly one category name from the list and nothing else.",
	domain.ArtifactSEO: "You are an SEO optimization engine. For the given text produce a meta " +
		"description (max {{SEO_LENGTH}} characters) and keywords in {{LANGUAGE}}. " +
		"Respond with valid JSON only, in the form " +
		`{"description": "...", "keywords": "kw1,kw2,kw3"}.`,
}

// languageNames maps configured language codes to the names used inside
// prompts, so the model is instructed in plain words.
var languageNames = map[string]string{
	"zh": "Chinese",
	"en": "English",
	"ja": "Japanese",
	"ko": "Korean",
	"fr": "French",
	"de": "German",
	"es": "Spanish",
	"ru": "Russian",
}

// PromptVars carries the values substituted into prompt templates.
type PromptVars struct {
	// Language is a code from languageNames, or "auto" to detect from
	// the content sample.
	Language   string
	MaxLength  int
	MaxTags    int
	SEOLength  int
	Categories []string
}

// RenderPrompt produces the system prompt for the given artifact type,
// using the override template when non-empty and the built-in default
// otherwise. contentSample is only consulted for language auto-detection.
// Returns ErrUnresolvedToken if a recognized placeholder survives
// substitution.
func RenderPrompt(kind domain.ArtifactType, override string, vars PromptVars, contentSample string) (string, error) {
	tmpl := override
	if tmpl == "" {
		var ok bool
		tmpl, ok = defaultPrompts[kind]
		if !ok {
			return "", fmt.Errorf("no prompt template for artifact type %q", kind)
		}
	}

	lang := vars.Language
	if lang == "auto" {
		lang = DetectLanguage(contentSample)
	}
	langName, ok := languageNames[lang]
	if !ok {
		langName = "English"
	}

	rendered := strings.NewReplacer(
		tokenLanguage, langName,
		tokenMaxLength, strconv.Itoa(vars.MaxLength),
		tokenMaxTags, strconv.Itoa(vars.MaxTags),
		tokenCategories, strings.Join(vars.Categories, "\n"),
		tokenSEOLength, strconv.Itoa(vars.SEOLength),
	).Replace(tmpl)

	// A leftover token means the template references a variable this type
	// does not get; that must never leak into a request.
	for _, token := range []string{tokenLanguage, tokenMaxLength, tokenMaxTags, tokenCategories, tokenSEOLength} {
		if strings.Contains(rendered, token) {
			return "", fmt.Errorf("%w: %s", ErrUnresolvedToken, token)
		}
	}

	return rendered, nil
}

// DetectLanguage guesses the dominant language of a content sample from
// its script. It inspects the first 100 runes and defaults to English.
func DetectLanguage(content string) string {
	runes := []rune(content)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	if len(runes) == 0 {
		return "en"
	}

	var zh, ja, ko, ru int
	for _, r := range runes {
		switch {
		case r >= 0x4E00 && r <= 0x9FA5:
			zh++
		case (r >= 0x3040 && r <= 0x309F) || (r >= 0x30A0 && r <= 0x30FF):
			ja++
		case (r >= 0x3130 && r <= 0x318F) || (r >= 0xAC00 && r <= 0xD7AF):
			ko++
		case r >= 0x0400 && r <= 0x04FF:
			ru++
		}
	}

	total := len(runes)
	switch {
	case float64(zh)/float64(total) > 0.3:
		return "zh"
	case float64(ja)/float64(total) > 0.3:
		return "ja"
	case float64(ko)/float64(total) > 0.3:
		return "ko"
	case float64(ru)/float64(total) > 0.3:
		return "ru"
	default:
		return "en"
	}
}
