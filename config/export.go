package config

import (
	"os"
	"strings"
	"time"
)

const (
	defaultQueueCapacity = 200
	defaultFileSuffix    = "xlsx"
	defaultSheetName     = "Sheet1"
	defaultUploadPrefix  = "export/download"
	defaultI18NMark      = "default"
	defaultDictHashKey   = "dictItemCache"
)

// ExportConfig contains intake queue, worker and projection settings.
type ExportConfig struct {
	// QueueCapacity bounds the in-memory intake queue.
	QueueCapacity int `env:"EXPORT_QUEUE_CAPACITY" envDefault:"200"`

	// TempDir is where files are rendered before upload. Empty means os.TempDir().
	TempDir string `env:"EXPORT_TEMP_DIR"`

	// FileSuffix is the extension of rendered files.
	FileSuffix string `env:"EXPORT_FILE_SUFFIX" envDefault:"xlsx"`

	// SheetName is the worksheet name in rendered files.
	SheetName string `env:"EXPORT_SHEET_NAME" envDefault:"Sheet1"`

	// UploadPrefix is the object key prefix passed to the uploader.
	UploadPrefix string `env:"EXPORT_UPLOAD_PREFIX" envDefault:"export/download"`

	// NullValue is written for absent cell values.
	NullValue string `env:"EXPORT_NULL_VALUE" envDefault:""`

	// JobTimeout bounds handler execution. Zero disables the limit.
	JobTimeout time.Duration `env:"EXPORT_JOB_TIMEOUT" envDefault:"0s"`

	// ColumnSpecFile, when set, loads column specs from a YAML file instead of Postgres.
	ColumnSpecFile string `env:"EXPORT_COLUMN_SPEC_FILE"`

	// DefaultLocale is the dictionary entry used when the requested locale is missing.
	DefaultLocale string `env:"I18N_DEFAULT_MARK" envDefault:"default"`

	// DictionaryHashKey is the Redis hash holding dictionary translations.
	DictionaryHashKey string `env:"DICTIONARY_HASH_KEY" envDefault:"dictItemCache"`
}

// Sanitize applies guardrails to export configuration values.
func (e *ExportConfig) Sanitize() {
	if e.QueueCapacity < 1 {
		e.QueueCapacity = defaultQueueCapacity
	}
	if e.TempDir = strings.TrimSpace(e.TempDir); e.TempDir == "" {
		e.TempDir = os.TempDir()
	}
	e.FileSuffix = strings.TrimPrefix(strings.TrimSpace(e.FileSuffix), ".")
	if e.FileSuffix == "" {
		e.FileSuffix = defaultFileSuffix
	}
	if e.SheetName = strings.TrimSpace(e.SheetName); e.SheetName == "" {
		e.SheetName = defaultSheetName
	}
	e.UploadPrefix = strings.Trim(strings.TrimSpace(e.UploadPrefix), "/")
	if e.UploadPrefix == "" {
		e.UploadPrefix = defaultUploadPrefix
	}
	if e.JobTimeout < 0 {
		e.JobTimeout = 0
	}
	e.ColumnSpecFile = strings.TrimSpace(e.ColumnSpecFile)
	if e.DefaultLocale = strings.TrimSpace(e.DefaultLocale); e.DefaultLocale == "" {
		e.DefaultLocale = defaultI18NMark
	}
	if e.DictionaryHashKey = strings.TrimSpace(e.DictionaryHashKey); e.DictionaryHashKey == "" {
		e.DictionaryHashKey = defaultDictHashKey
	}
}
