// Package export names and stores finished recordings.
package export

import (
	"fmt"
	"strings"
)

// SanitizeTitle lowercases the project title and replaces every character
// outside [a-z0-9] with an underscore, yielding a filesystem-safe stem.
func SanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Filename builds the download name for a finished recording:
// <sanitized-title>_completo.<ext>.
func Filename(title, ext string) string {
	return fmt.Sprintf("%s_completo.%s", SanitizeTitle(title), ext)
}
