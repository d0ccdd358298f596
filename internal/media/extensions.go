package media

import (
	"path/filepath"
	"strings"
)

// mediaExtensions lists the video container suffixes the pipeline handles.
var mediaExtensions = map[string]struct{}{
	".mkv":  {},
	".mp4":  {},
	".avi":  {},
	".mov":  {},
	".wmv":  {},
	".flv":  {},
	".webm": {},
	".m4v":  {},
	".mpg":  {},
	".mpeg": {},
	".ts":   {},
	".m2ts": {},
	".3gp":  {},
	".ogv":  {},
}

// IsMediaFile reports whether the filename carries a recognized video
// container extension.
func IsMediaFile(name string) bool {
	_, ok := mediaExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FileExtension returns the filename's suffix, defaulting to ".bin" for
// extensionless transfers so the downloaded file always has one.
func FileExtension(name string) string {
	if ext := filepath.Ext(name); ext != "" {
		return ext
	}
	return ".bin"
}
