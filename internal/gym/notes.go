package gym

import "strings"

// NormalizeNote maps notes consisting only of whitespace (including the
// empty string) to nil, so they are stored as NULL and never as "".
// Non-empty notes are stored trimmed.
func NormalizeNote(note string) *string {
	trimmed := strings.TrimSpace(note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
