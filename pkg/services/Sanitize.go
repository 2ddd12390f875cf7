package services

import (
	"strings"

	"github.com/adampresley/adamgokit/slices"
	"golang.org/x/text/unicode/norm"
)

/*
SanitizeIdentifier turns user input into a single safe path segment. Accents
are folded to ASCII, whitespace runs become underscores, path separators
and anything outside [A-Za-z0-9_.-] are dropped, and leading or trailing
dots and underscores are trimmed. The result may be empty; callers pick
their own fallback.
*/
func SanitizeIdentifier(raw string) string {
	decomposed := norm.NFKD.String(raw)

	ascii := strings.Builder{}

	for _, r := range decomposed {
		switch {
		case r == '/' || r == '\\':
			ascii.WriteRune(' ')
		case r < 0x80:
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	cleaned := strings.Builder{}

	for _, r := range joined {
		if isSafeRune(r) {
			cleaned.WriteRune(r)
		}
	}

	return strings.Trim(cleaned.String(), "._")
}

func isSafeRune(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' || r == '.' || r == '-'
}

/*
ExtensionOf returns the lowercased text after the final dot, or an empty
string when there is no dot.
*/
func ExtensionOf(filename string) string {
	idx := strings.LastIndex(filename, ".")

	if idx < 0 {
		return ""
	}

	return strings.ToLower(filename[idx+1:])
}

func IsAllowedExtension(filename string, allowed []string) bool {
	if !strings.Contains(filename, ".") {
		return false
	}

	return slices.IsInSlice(ExtensionOf(filename), allowed)
}

/*
ParseExtensions normalizes a comma separated extension list, keeping the
given order and dropping blanks, dots and duplicates.
*/
func ParseExtensions(list string) []string {
	result := []string{}
	seen := map[string]bool{}

	for _, part := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimLeft(strings.TrimSpace(part), "."))

		if ext == "" || seen[ext] {
			continue
		}

		seen[ext] = true
		result = append(result, ext)
	}

	return result
}
