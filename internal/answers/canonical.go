package answers

import "strings"

// Canonical maps a free-text model answer onto the two-valued comparison
// alphabet: "1" for yes, "0" for no. ok is false for everything else,
// including the not-existent and error sentinels, which must be excluded
// from comparisons rather than counted as mismatches.
func Canonical(raw string) (string, bool) {
	switch raw {
	case "Yes", "yes", "1":
		return AnswerYes, true
	case "No", "no", "0":
		return AnswerNo, true
	}
	return "", false
}

// NormalizeStudyNumber makes "0005.pdf", "0005" and "5" the same key.
// Model output and ground truth must both go through this or comparisons
// silently degrade to zero matches.
func NormalizeStudyNumber(s string) string {
	s = strings.ReplaceAll(s, ".pdf", "")
	return strings.TrimLeft(s, "0")
}
