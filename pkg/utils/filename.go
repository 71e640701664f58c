package utils

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// defaultUploadStem replaces a filename stem that sanitizes to nothing.
const defaultUploadStem = "upload"

// SplitExt splits a filename at its last dot. The extension is returned
// lowercased and without the dot; it is empty when there is no dot.
func SplitExt(filename string) (stem, ext string) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return filename, ""
	}
	return filename[:idx], strings.ToLower(filename[idx+1:])
}

// SecureFilename reduces a client supplied name to a flat ASCII name made
// of letters, digits, '_', '.' and '-'. Path separators become underscores
// and leading or trailing dots and underscores are removed, so the result
// can never address a parent directory. It may return an empty string.
func SecureFilename(filename string) string {
	decomposed := norm.NFKD.String(filename)

	var ascii strings.Builder
	for _, r := range decomposed {
		if r > unicode.MaxASCII {
			continue
		}
		if r == '/' || r == '\\' {
			r = ' '
		}
		ascii.WriteRune(r)
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var clean strings.Builder
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			clean.WriteRune(r)
		case r == '_', r == '.', r == '-':
			clean.WriteRune(r)
		}
	}

	return strings.Trim(clean.String(), "._")
}

// OriginalName builds the stored name of an uploaded original: the
// sanitized stem plus the lowercased extension of the client filename.
func OriginalName(filename string) string {
	stem, ext := SplitExt(filename)
	base := SecureFilename(stem)
	if base == "" {
		base = defaultUploadStem
	}
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// CollisionName returns the n-th alternative for name: "photo.png" becomes
// "photo_1.png", "photo_2.png" and so on. n <= 0 returns name unchanged.
func CollisionName(name string, n int) string {
	if n <= 0 {
		return name
	}
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return fmt.Sprintf("%s_%d", name, n)
	}
	return fmt.Sprintf("%s_%d%s", name[:idx], n, name[idx:])
}
