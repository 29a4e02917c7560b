// Package core declares the ports of the export pipeline.
package core

import (
	"github.com/target/async-export/internal/domain/model"
)

// ExportStatus is re-exported for HTTP handlers to avoid direct coupling to the model package.
type ExportStatus = model.ExportStatus

// SubmitExportRequest is re-exported for HTTP handlers to avoid direct coupling to the model package.
type SubmitExportRequest = model.SubmitExportRequest
