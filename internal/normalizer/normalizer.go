// Package normalizer performs conservative text cleanup on report comments.
// Cleaning keeps meaning intact and never fails the caller: when a cleaned
// result loses too much content, the original trimmed text is returned.
package normalizer

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/citypulse/enrichment/internal/logger"
)

// minTokenRetention is the fraction of original whitespace tokens the cleaned
// text must retain, otherwise cleaning is discarded as over-aggressive.
const minTokenRetention = 0.75

// urlPlaceholder replaces URL-like substrings in cleaned text.
const urlPlaceholder = "[URL]"

var urlPattern = regexp.MustCompile(`(?:https?://|www\.)\S+`)

// Normalizer cleans free-text comments deterministically.
type Normalizer struct {
	logger logger.Logger
}

// New creates a new Normalizer.
func New(log logger.Logger) *Normalizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Normalizer{logger: log}
}

// Normalize cleans a raw comment. It never returns an error: internal
// failures fall back to the trimmed original text. Empty or whitespace-only
// input returns the empty string, meaning no cleaning was possible.
func (n *Normalizer) Normalize(raw string) (result string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	defer func() {
		if r := recover(); r != nil {
			n.logger.Warn("text cleaning failed, using original",
				logger.Any("panic", r),
				logger.String("text_preview", preview(trimmed)),
			)
			result = trimmed
		}
	}()

	cleaned := n.conservativeClean(trimmed)
	if cleaned == "" {
		return trimmed
	}
	return cleaned
}

// conservativeClean runs the full cleaning sequence against the trimmed
// original. It returns "" when cleaning produced nothing usable.
func (n *Normalizer) conservativeClean(original string) string {
	// Encoding repair: undo common mojibake, then normalize to NFC.
	text := repairEncoding(original)

	// Strip emoji, replace URLs, flatten newlines, collapse whitespace.
	text = stripEmoji(text)
	text = urlPattern.ReplaceAllString(text, urlPlaceholder)
	text = strings.NewReplacer("\n", " ", "\r", " ").Replace(text)
	text = collapseWhitespace(text)

	if text == "" {
		return original
	}

	// Token-level cleaning: keep alphabetic, numeric, and punctuation tokens.
	tokens := tokenize(text)
	cleaned := strings.TrimSpace(strings.Join(tokens, " "))

	// Re-attach named entities the tokenizer may have pruned.
	for _, ent := range capitalizedSpans(text) {
		if ent != "" && !strings.Contains(cleaned, ent) {
			cleaned += " " + ent
		}
	}

	cleaned = censorProfanity(cleaned)
	cleaned = collapseWhitespace(cleaned)

	// Safety guard: keep at least 75% of the original tokens.
	originalTokens := strings.Fields(original)
	cleanedTokens := strings.Fields(cleaned)

	minTokens := math.Max(1, float64(len(originalTokens))*minTokenRetention)
	if float64(len(cleanedTokens)) < minTokens {
		n.logger.Debug("cleaning discarded too many tokens, keeping original",
			logger.Int("original_tokens", len(originalTokens)),
			logger.Int("cleaned_tokens", len(cleanedTokens)),
		)
		return original
	}

	return cleaned
}

// repairEncoding fixes mis-decoded UTF-8 sequences and normalizes to NFC.
func repairEncoding(text string) string {
	for _, pair := range mojibakeReplacements {
		text = strings.ReplaceAll(text, pair[0], pair[1])
	}
	return norm.NFC.String(text)
}

// tokenize splits text into spaCy-like tokens: runs of letters or digits form
// word tokens, punctuation marks become standalone tokens, and any other
// non-space run is kept as-is. Whitespace-only tokens are dropped.
func tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/4)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.IsPunct(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return tokens
}

// capitalizedSpans extracts runs of capitalized words, a stand-in for named
// entity detection. Single capitalized words at the start of the text are
// skipped since they are usually just sentence case.
func capitalizedSpans(text string) []string {
	words := strings.Fields(text)
	spans := make([]string, 0, 2)

	var span []string
	for i, w := range words {
		if isCapitalizedWord(w) {
			span = append(span, strings.Trim(w, ".,!?;:"))
			continue
		}
		if len(span) > 1 || (len(span) == 1 && i-len(span) > 0) {
			spans = append(spans, strings.Join(span, " "))
		}
		span = nil
	}
	if len(span) > 1 || (len(span) == 1 && len(words) > len(span)) {
		spans = append(spans, strings.Join(span, " "))
	}

	return spans
}

func isCapitalizedWord(w string) bool {
	runes := []rune(strings.Trim(w, ".,!?;:"))
	if len(runes) < 2 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) {
			return false
		}
		if unicode.IsUpper(r) {
			// All-caps words are shouting, not entities
			return false
		}
	}
	return true
}

var whitespacePattern = regexp.MustCompile(`\s+`)

func collapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

const previewLength = 60

func preview(text string) string {
	if len(text) <= previewLength {
		return text
	}
	return text[:previewLength]
}
