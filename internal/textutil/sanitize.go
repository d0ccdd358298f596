package textutil

import "strings"

// pathComponentReplacer maps characters that are invalid on at least one
// supported filesystem to safe substitutes. Colons become " -" for
// readability in library folder names.
var pathComponentReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", " -",
	"<", "_",
	">", "_",
	"\"", "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// SanitizePathComponent makes a single file or directory name safe across
// Windows and Unix filesystems. Separators, colons, quotes, and other
// reserved characters are replaced, control characters are stripped, and
// trailing dots/spaces are trimmed. The result is never empty; a name that
// sanitizes away entirely becomes "unnamed".
func SanitizePathComponent(name string) string {
	name = pathComponentReplacer.Replace(name)

	var b strings.Builder
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	name = strings.Trim(b.String(), ". ")
	if name == "" {
		return "unnamed"
	}
	return name
}

// baseNameStripper removes (rather than substitutes) reserved characters.
// Used when synthesizing library-style base names, where dropped characters
// read better than underscores.
var baseNameStripper = strings.NewReplacer(
	"/", "",
	"\\", "",
	":", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizeBaseName strips reserved characters from a synthesized base name
// and trims trailing dots and spaces. Falls back to "unnamed" when nothing
// survives.
func SanitizeBaseName(name string) string {
	name = strings.Trim(baseNameStripper.Replace(name), ". ")
	if name == "" {
		return "unnamed"
	}
	return name
}
