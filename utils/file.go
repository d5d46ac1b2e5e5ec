package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// GetFileNameWithoutExt extracts the base filename without its extension
func GetFileNameWithoutExt(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx != -1 {
		base = base[:idx]
	}
	return base
}

// SanitizeFilename replaces characters that are unsafe in file names or
// object keys
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)
}

// TimestampedKey builds a storage key of the form name_timestamp.ext so
// re-uploads never clobber an earlier file
func TimestampedKey(title, ext string) string {
	name := strings.TrimSuffix(title, ext)
	return SanitizeFilename(fmt.Sprintf("%s_%d%s", name, time.Now().Unix(), ext))
}
