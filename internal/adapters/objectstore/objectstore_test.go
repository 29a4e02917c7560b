package objectstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/async-export/internal/core"
)

type fakePutter struct {
	bucket, key, path string
	opts              minio.PutObjectOptions
	err               error
}

func (f *fakePutter) FPutObject(
	_ context.Context,
	bucketName, objectName, filePath string,
	opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	f.bucket, f.key, f.path, f.opts = bucketName, objectName, filePath, opts
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: 10}, f.err
}

func TestObjectKeyAndJoinURL(t *testing.T) {
	assert.Equal(t, "export/download/a.xlsx", ObjectKey("/export/download/", "a.xlsx"))
	assert.Equal(t, "a.xlsx", ObjectKey("", "a.xlsx"))
	assert.Equal(t, "https://cdn.example.com/b/k", JoinURL("https://cdn.example.com/b/", "/k"))
}

func TestS3Uploader_Put(t *testing.T) {
	fp := &fakePutter{}
	u := newS3Uploader(fp, "exports", "https://files.example.com", nil)

	url, err := u.Put(context.Background(), core.PutObjectParams{
		Prefix:    "export/download",
		Name:      "abc.xlsx",
		LocalPath: "/tmp/abc.xlsx",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/export/download/abc.xlsx", url)
	assert.Equal(t, "exports", fp.bucket)
	assert.Equal(t, "export/download/abc.xlsx", fp.key)
	assert.Equal(t, "/tmp/abc.xlsx", fp.path)
	assert.Equal(t, xlsxContentType, fp.opts.ContentType)
}

func TestS3Uploader_PutErrors(t *testing.T) {
	fp := &fakePutter{err: errors.New("denied")}
	u := newS3Uploader(fp, "exports", "https://files.example.com", nil)

	_, err := u.Put(context.Background(), core.PutObjectParams{Name: "a.xlsx", LocalPath: "/tmp/a"})
	require.ErrorContains(t, err, "denied")

	_, err = u.Put(context.Background(), core.PutObjectParams{Name: "a.xlsx"})
	require.ErrorIs(t, err, ErrLocalPathRequired)
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(S3Config{Endpoint: "localhost:9000"}, nil)
	require.Error(t, err)
}

func TestLocalDiskUploader_Put(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))
	root := t.TempDir()

	u := NewLocalDiskUploader(root, "", nil)
	got, err := u.Put(context.Background(), core.PutObjectParams{
		Prefix:    "export/download",
		Name:      "out.xlsx",
		LocalPath: src,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "export", "download", "out.xlsx"), got)

	body, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	withURL := NewLocalDiskUploader(root, "http://localhost:8080/files", nil)
	url, err := withURL.Put(context.Background(), core.PutObjectParams{Name: "x.xlsx", LocalPath: src})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/x.xlsx", url)
}

func TestLocalDiskUploader_MissingSource(t *testing.T) {
	u := NewLocalDiskUploader(t.TempDir(), "", nil)
	_, err := u.Put(context.Background(), core.PutObjectParams{Name: "x", LocalPath: "/does/not/exist"})
	require.Error(t, err)
}
