package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/target/async-export/internal/core"
)

// DefaultLocalDir is where LocalDiskUploader stores files when no directory is configured.
const DefaultLocalDir = "data"

// LocalDiskUploader copies files into a directory tree, for single-host deployments and development.
type LocalDiskUploader struct {
	dir       string
	publicURL string
	logger    *slog.Logger
}

var _ core.ObjectUploader = (*LocalDiskUploader)(nil)

// NewLocalDiskUploader creates a LocalDiskUploader rooted at dir. When publicURL is empty,
// Put returns the stored file path instead of a URL.
func NewLocalDiskUploader(dir, publicURL string, logger *slog.Logger) *LocalDiskUploader {
	if dir == "" {
		dir = DefaultLocalDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalDiskUploader{
		dir:       dir,
		publicURL: publicURL,
		logger:    logger.With("component", "localdisk_uploader"),
	}
}

// Put copies LocalPath to <dir>/<prefix>/<name>.
func (u *LocalDiskUploader) Put(ctx context.Context, p core.PutObjectParams) (string, error) {
	if err := validate(p); err != nil {
		return "", err
	}
	key := ObjectKey(p.Prefix, p.Name)
	dst := filepath.Join(u.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create target dir: %w", err)
	}
	if err := copyFile(p.LocalPath, dst); err != nil {
		return "", err
	}

	u.logger.InfoContext(ctx, "export file stored", "path", dst)
	if u.publicURL == "" {
		return dst, nil
	}
	return JoinURL(u.publicURL, key), nil
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close target: %w", cerr))
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	return nil
}
