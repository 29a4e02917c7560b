// Package mocks provides gomock implementations of the export pipeline ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockExportJobRepository(ctrl)
//	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(job, nil)
package mocks

// Ledger: Create, GetByID, List, ListByStatus, ListStalePending, Stats, UpdateStatus
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=export_job_repository_mock.go github.com/target/async-export/internal/core ExportJobRepository

// Column spec store: GetByHandler
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=column_spec_repository_mock.go github.com/target/async-export/internal/core ColumnSpecRepository

// Dictionary: Lookup, Set
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=dictionary_repository_mock.go github.com/target/async-export/internal/core DictionaryRepository

// Output writer: Write
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=tabular_writer_mock.go github.com/target/async-export/internal/core TabularWriter

// Uploader: Put
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=object_uploader_mock.go github.com/target/async-export/internal/core ObjectUploader
