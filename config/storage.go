package config

import (
	"fmt"
	"strings"
)

// StorageDriver selects the object uploader implementation.
type StorageDriver string

const (
	// StorageDriverS3 uploads to an S3-compatible bucket.
	StorageDriverS3 StorageDriver = "s3"
	// StorageDriverLocal copies files into a local directory.
	StorageDriverLocal StorageDriver = "local"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageDriver.
func (d *StorageDriver) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "s3", "local":
		*d = StorageDriver(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageDriver: %q (valid options: s3, local)", v)
	}
}

// StorageConfig contains object storage configuration.
type StorageConfig struct {
	Driver    StorageDriver `env:"DRIVER"     envDefault:"local"`
	Endpoint  string        `env:"ENDPOINT"   envDefault:"localhost:9000"`
	AccessKey string        `env:"ACCESS_KEY"`
	SecretKey string        `env:"SECRET_KEY"`
	Region    string        `env:"REGION"`
	Bucket    string        `env:"BUCKET"     envDefault:"exports"`
	UseSSL    bool          `env:"USE_SSL"    envDefault:"false"`
	// PublicURL is the base of returned download URLs. Empty derives it from the driver.
	PublicURL string `env:"PUBLIC_URL"`
	// LocalDir is the target directory for the local driver.
	LocalDir string `env:"LOCAL_DIR" envDefault:"data"`
}

// Sanitize applies guardrails to storage configuration values.
func (s *StorageConfig) Sanitize() {
	if s.Driver == "" {
		s.Driver = StorageDriverLocal
	}
	s.Endpoint = strings.TrimSpace(s.Endpoint)
	s.Bucket = strings.TrimSpace(s.Bucket)
	s.PublicURL = strings.TrimRight(strings.TrimSpace(s.PublicURL), "/")
	if s.LocalDir = strings.TrimSpace(s.LocalDir); s.LocalDir == "" {
		s.LocalDir = "data"
	}
}
