// Package slugger derives URL slugs from tour names.
package slugger

import "strings"

// Slugify lowercases the name and collapses every non-alphanumeric run into a
// single hyphen: "The Forest Hiker!" -> "the-forest-hiker".
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
