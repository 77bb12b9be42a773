package engine

import "strings"

// writeVerbs grant explicit permission for a vault write when present in a
// command. Without one the engine never writes, no matter how imperative
// the phrasing. Bare "extract" or "summarize" is a read request; only the
// combined forms below grant permission.
var writeVerbs = []string{
	"save",
	"log",
	"write",
	"create",
	"update",
	"record",
	"organize",
	"confirm",
}

// writePhrases are multi-word permission grants checked as substrings
// after word matching fails.
var writePhrases = []string{
	"extract and save",
	"generate the report",
	"generate a report",
	"generate report",
	"generate the weekly report",
}

// confirmTokens approve a pending action when sent as the whole message.
var confirmTokens = map[string]bool{
	"confirm":   true,
	"yes":       true,
	"y":         true,
	"ok":        true,
	"okay":      true,
	"sure":      true,
	"do it":     true,
	"save it":   true,
	"save":      true,
	"go ahead":  true,
	"please do": true,
}

// cancelTokens discard a pending action.
var cancelTokens = map[string]bool{
	"cancel":     true,
	"no":         true,
	"discard":    true,
	"never mind": true,
}

// editPrefix marks a revision of a pending action's text.
const editPrefix = "edit:"

// hasWriteVerb reports whether the message contains an explicit write verb.
func hasWriteVerb(text string) bool {
	lower := strings.ToLower(text)
	for _, verb := range writeVerbs {
		if containsWord(lower, verb) {
			return true
		}
	}
	for _, phrase := range writePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// containsWord reports whether word appears in text on word boundaries.
func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

// isConfirmation reports whether the message is a bare approval token.
func isConfirmation(text string) bool {
	return confirmTokens[normalizeToken(text)]
}

// isCancellation reports whether the message is a bare cancel token.
func isCancellation(text string) bool {
	return cancelTokens[normalizeToken(text)]
}

// isEdit reports whether the message revises a pending action, returning
// the replacement text.
func isEdit(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) >= len(editPrefix) && strings.EqualFold(trimmed[:len(editPrefix)], editPrefix) {
		return strings.TrimSpace(trimmed[len(editPrefix):]), true
	}
	return "", false
}

func normalizeToken(text string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(text), ".!"))
}
