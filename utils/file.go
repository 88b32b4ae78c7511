package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxFileNameLength = 120

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func FileExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// SanitizeFilename strips directories and anything outside [a-zA-Z0-9._-].
func SanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.ReplaceAll(base, " ", "_")
	base = unsafeFileChars.ReplaceAllString(base, "")
	base = strings.TrimLeft(base, ".")

	if base == "" {
		return "file"
	}
	if len(base) > maxFileNameLength {
		ext := FileExt(base)
		if len(ext) >= maxFileNameLength {
			ext = ""
		}
		base = base[:maxFileNameLength-len(ext)] + ext
	}
	return base
}

// StorageKey returns a collision free object key under dir.
func StorageKey(dir, name string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s_%s", strings.Trim(dir, "/"), now.Format("2006/01"), uuid.NewString()[:8], SanitizeFilename(name))
}
