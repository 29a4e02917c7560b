package config

import (
	"os"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - worker",
			input:    "worker",
			expected: map[ServiceMode]bool{ServiceModeWorker: true},
		},
		{
			name:  "all services with spaces",
			input: " http , worker , resync ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:   true,
				ServiceModeWorker: true,
				ServiceModeResync: true,
			},
		},
		{
			name:     "duplicate services",
			input:    "http,http,worker",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeWorker: true},
		},
		{name: "empty string", input: "", expectError: true},
		{name: "only spaces and commas", input: " , , ", expectError: true},
		{name: "invalid service name", input: "http,scheduler", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseServices(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_ServiceEnabledMethods(t *testing.T) {
	tests := []struct {
		name           string
		cfg            AppConfig
		expectedHTTP   bool
		expectedWorker bool
		expectedResync bool
	}{
		{
			name:           "default",
			cfg:            AppConfig{Services: "http,worker"},
			expectedHTTP:   true,
			expectedWorker: true,
		},
		{
			name:           "worker only",
			cfg:            AppConfig{Services: "worker"},
			expectedWorker: true,
		},
		{
			name:           "resync via services",
			cfg:            AppConfig{Services: "http,worker,resync"},
			expectedHTTP:   true,
			expectedWorker: true,
			expectedResync: true,
		},
		{
			name:           "resync via flag",
			cfg:            AppConfig{Services: "worker", Resync: ResyncConfig{Enabled: true}},
			expectedWorker: true,
			expectedResync: true,
		},
		{
			name: "invalid configuration",
			cfg:  AppConfig{Services: "invalid-service"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedHTTP, tt.cfg.IsHTTPServerEnabled())
			assert.Equal(t, tt.expectedWorker, tt.cfg.IsWorkerEnabled())
			assert.Equal(t, tt.expectedResync, tt.cfg.IsResyncEnabled())
		})
	}
}

func TestValidServiceModes(t *testing.T) {
	assert.Equal(t, []ServiceMode{ServiceModeHTTP, ServiceModeWorker, ServiceModeResync}, ValidServiceModes())
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, "http,worker", cfg.Services)
	assert.Equal(t, 200, cfg.Export.QueueCapacity)
	assert.Equal(t, os.TempDir(), cfg.Export.TempDir)
	assert.Equal(t, "xlsx", cfg.Export.FileSuffix)
	assert.Equal(t, "Sheet1", cfg.Export.SheetName)
	assert.Equal(t, "export/download", cfg.Export.UploadPrefix)
	assert.Empty(t, cfg.Export.NullValue)
	assert.Zero(t, cfg.Export.JobTimeout)
	assert.Equal(t, "default", cfg.Export.DefaultLocale)
	assert.Equal(t, "dictItemCache", cfg.Export.DictionaryHashKey)
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.LocalDir)
	assert.False(t, cfg.Resync.Enabled)
	assert.Equal(t, time.Minute, cfg.Resync.Interval)
	assert.Equal(t, "async_export", cfg.Observability.Metrics.Namespace)
}

func TestAppConfig_ParseEnv(t *testing.T) {
	t.Setenv("EXPORT_QUEUE_CAPACITY", "5")
	t.Setenv("EXPORT_FILE_SUFFIX", ".csv")
	t.Setenv("EXPORT_UPLOAD_PREFIX", "/reports/")
	t.Setenv("EXPORT_JOB_TIMEOUT", "2m")
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("STORAGE_BUCKET", "reports")
	t.Setenv("STORAGE_PUBLIC_URL", "https://cdn.example.com/")
	t.Setenv("REDIS_SENTINEL_NODES", "a:26379,b:26379")
	t.Setenv("DB_PORT", "55432")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, 5, cfg.Export.QueueCapacity)
	assert.Equal(t, "csv", cfg.Export.FileSuffix)
	assert.Equal(t, "reports", cfg.Export.UploadPrefix)
	assert.Equal(t, 2*time.Minute, cfg.Export.JobTimeout)
	assert.Equal(t, StorageDriverS3, cfg.Storage.Driver)
	assert.Equal(t, "reports", cfg.Storage.Bucket)
	assert.Equal(t, "https://cdn.example.com", cfg.Storage.PublicURL)
	assert.Equal(t, []string{"a:26379", "b:26379"}, cfg.Redis.SentinelNodes)
	assert.Equal(t, 55432, cfg.Postgres.Port)
}

func TestStorageDriver_UnmarshalText(t *testing.T) {
	var d StorageDriver
	require.NoError(t, d.UnmarshalText([]byte(" Local ")))
	assert.Equal(t, StorageDriverLocal, d)

	err := d.UnmarshalText([]byte("gcs"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid options")
}

func TestExportConfig_Sanitize(t *testing.T) {
	cfg := ExportConfig{QueueCapacity: -1, JobTimeout: -time.Second, SheetName: "  "}
	cfg.Sanitize()

	assert.Equal(t, 200, cfg.QueueCapacity)
	assert.Zero(t, cfg.JobTimeout)
	assert.Equal(t, "Sheet1", cfg.SheetName)
	assert.Equal(t, "xlsx", cfg.FileSuffix)
	assert.Equal(t, "dictItemCache", cfg.DictionaryHashKey)
}

func TestResyncConfig_Sanitize(t *testing.T) {
	cfg := ResyncConfig{Interval: time.Second, MinAge: -time.Minute, BatchSize: 0}
	cfg.Sanitize()
	assert.Equal(t, 10*time.Second, cfg.Interval)
	assert.Zero(t, cfg.MinAge)
	assert.Equal(t, 1, cfg.BatchSize)

	cfg = ResyncConfig{Interval: time.Hour, BatchSize: 50000}
	cfg.Sanitize()
	assert.Equal(t, time.Hour, cfg.Interval)
	assert.Equal(t, 1000, cfg.BatchSize)
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{MaxBodyBytes: 10}
	cfg.Sanitize()
	assert.Equal(t, 10*time.Second, cfg.ReadHeaderTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
}

func TestAppConfig_DetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{}
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)
}
