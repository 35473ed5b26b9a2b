package namegen

import "strings"

// MaxStemLength is the hard cap applied to the sanitized stem, before the
// prefix, date token, and extension are attached.
const MaxStemLength = 64

// transform is one pure, independently testable sanitization step.
type transform func(string) string

// sanitizeSteps is the ordered sanitization chain. Order matters: collapsing
// runs after the charset filter, because dropping illegal characters can
// bring two underscores together; the final trim runs after truncation, so
// neither the cut nor the filter can leave a dangling separator.
var sanitizeSteps = []transform{
	firstLine,
	strings.ToLower,
	spacesToUnderscores,
	filterCharset,
	collapseUnderscores,
	truncateStem,
	trimSeparators,
}

// Sanitize normalizes a raw generator response into a filename-safe stem.
// It is a pure function: the same input always yields the same output.
func Sanitize(raw string) string {
	s := raw
	for _, step := range sanitizeSteps {
		s = step(s)
	}
	return s
}

// firstLine keeps only the first line of the response, defending against
// generators that reply with explanations on subsequent lines.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// spacesToUnderscores replaces word separators with underscores.
func spacesToUnderscores(s string) string {
	return strings.ReplaceAll(s, " ", "_")
}

// collapseUnderscores squashes runs of underscores down to one.
func collapseUnderscores(s string) string {
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// filterCharset strips every character that is not alphanumeric, '_', '-',
// or '.'. The target filesystem is assumed case-insensitive, so the charset
// check runs on already-lowercased input.
func filterCharset(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-', c == '.':
			b.WriteRune(c)
		}
	}
	return b.String()
}

// trimSeparators strips leading and trailing separator characters. A stem
// made of nothing but separators trims down to empty, which Synthesize
// rejects as unusable.
func trimSeparators(s string) string {
	return strings.Trim(s, "_-.")
}

// truncateStem enforces the stem length cap.
func truncateStem(s string) string {
	if len(s) > MaxStemLength {
		return s[:MaxStemLength]
	}
	return s
}
