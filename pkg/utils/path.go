package utils

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
)

// UploadsRoute is the public route under which stored files are served.
const UploadsRoute = "/uploads"

// UploadURL returns the public URL of a stored file, honoring a sub-path
// deployment base path such as "/invert".
func UploadURL(basePath, name string) string {
	base := strings.TrimRight(basePath, "/")
	return base + UploadsRoute + "/" + url.PathEscape(name)
}

// IsFlatName reports whether name is a single, non-special path element.
func IsFlatName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// ContentType guesses the MIME type of a stored file from its extension.
func ContentType(name string) string {
	_, ext := SplitExt(name)
	if ext == "" {
		return fiber.MIMEOctetStream
	}
	return fiberutils.GetMIME(ext)
}
