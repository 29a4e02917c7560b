package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/target/async-export/internal/core"
)

// objectPutter is the subset of *minio.Client used for uploads.
type objectPutter interface {
	FPutObject(
		ctx context.Context,
		bucketName, objectName, filePath string,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

// S3Config configures an S3-compatible uploader.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base of returned download URLs. Defaults to <scheme>://<endpoint>/<bucket>.
	PublicURL string
}

// S3Uploader uploads files to an S3-compatible bucket using minio-go.
type S3Uploader struct {
	client    objectPutter
	bucket    string
	publicURL string
	logger    *slog.Logger
}

var _ core.ObjectUploader = (*S3Uploader)(nil)

// NewS3Uploader creates an uploader backed by a minio client.
func NewS3Uploader(cfg S3Config, logger *slog.Logger) (*S3Uploader, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = JoinURL(client.EndpointURL().String(), cfg.Bucket)
	}
	return newS3Uploader(client, cfg.Bucket, publicURL, logger), nil
}

func newS3Uploader(client objectPutter, bucket, publicURL string, logger *slog.Logger) *S3Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
		logger:    logger.With("component", "s3_uploader"),
	}
}

// Put uploads LocalPath as <prefix>/<name> and returns its public URL.
func (u *S3Uploader) Put(ctx context.Context, p core.PutObjectParams) (string, error) {
	if err := validate(p); err != nil {
		return "", err
	}
	key := ObjectKey(p.Prefix, p.Name)

	info, err := u.client.FPutObject(ctx, u.bucket, key, p.LocalPath, minio.PutObjectOptions{
		ContentType: contentType(p.Name),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}

	u.logger.InfoContext(ctx, "export file uploaded", "bucket", u.bucket, "key", key, "size", info.Size)
	return JoinURL(u.publicURL, key), nil
}
