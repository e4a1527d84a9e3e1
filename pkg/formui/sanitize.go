package formui

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxAnswerSize bounds free-text answers (bytes).
const MaxAnswerSize = 4096

var (
	ErrAnswerTooLarge = errors.New("answer exceeds maximum allowed size")
	ErrInvalidUTF8    = errors.New("answer contains invalid UTF-8 sequences")
)

var (
	captionPolicyOnce sync.Once
	captionPolicy     *bluemonday.Policy
)

// captionSanitizer allows the markup the server uses in captions (bold, links, lists)
// and strips scripts and event handlers.
func captionSanitizer() *bluemonday.Policy {
	captionPolicyOnce.Do(func() {
		captionPolicy = bluemonday.UGCPolicy()
	})
	return captionPolicy
}

func sanitizeMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(captionSanitizer().Sanitize(trimmed))
}

// SanitizeText cleans a free-text answer by enforcing the size limit, validating UTF-8
// and stripping control characters other than newline, tab and carriage return.
func SanitizeText(input string) (string, error) {
	if len(input) > MaxAnswerSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrAnswerTooLarge, len(input), MaxAnswerSize)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
