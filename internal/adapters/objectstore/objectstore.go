// Package objectstore publishes finished export files and returns their download URLs.
package objectstore

import (
	"errors"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/target/async-export/internal/core"
)

// ErrLocalPathRequired is returned when Put is called without a source file.
var ErrLocalPathRequired = errors.New("local path is required")

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ObjectKey joins prefix and name into a slash-separated key without a leading slash.
func ObjectKey(prefix, name string) string {
	return strings.TrimPrefix(path.Join("/", prefix, name), "/")
}

// JoinURL appends key to base with exactly one separating slash.
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".xlsx":
		return xlsxContentType
	case ".csv":
		return "text/csv"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func validate(p core.PutObjectParams) error {
	if strings.TrimSpace(p.LocalPath) == "" {
		return ErrLocalPathRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("object name is required")
	}
	return nil
}
