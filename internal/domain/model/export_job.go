// Package model defines the core data types shared by the export pipeline.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ExportStatus represents the lifecycle state of an export job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ExportStatus string

const (
	// ExportStatusPending indicates the job is recorded and waiting for the worker.
	ExportStatusPending ExportStatus = "pending"
	// ExportStatusSucceeded indicates the file was produced and uploaded.
	ExportStatusSucceeded ExportStatus = "succeeded"
	// ExportStatusFailed indicates the job ran and did not produce a file.
	ExportStatusFailed ExportStatus = "failed"
)

// ErrExportJobNotFound is returned when a ledger lookup finds no record.
var ErrExportJobNotFound = errors.New("export job not found")

// Valid returns true if the ExportStatus is a known state.
func (s ExportStatus) Valid() bool {
	return s == ExportStatusPending || s == ExportStatusSucceeded || s == ExportStatusFailed
}

// Terminal reports whether no further transition is expected from s.
func (s ExportStatus) Terminal() bool {
	return s == ExportStatusSucceeded || s == ExportStatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler so statuses can be parsed from env and query strings.
func (s *ExportStatus) UnmarshalText(text []byte) error {
	v := ExportStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid ExportStatus: %q", v)
	}
	*s = v
	return nil
}

// ExportJob is the durable ledger record for one export request.
type ExportJob struct {
	ID             string       `json:"id"                        db:"id"`
	RequesterID    string       `json:"requester_id"              db:"requester_id"`
	Handler        string       `json:"handler"                   db:"handler"`
	MethodName     string       `json:"method_name,omitempty"     db:"method_name"`
	Params         string       `json:"params"                    db:"params"`
	Status         ExportStatus `json:"status"                    db:"status"`
	RowCount       int64        `json:"row_count"                 db:"row_count"`
	OutputURL      *string      `json:"output_url,omitempty"      db:"output_url"`
	RetryCount     int          `json:"retry_count"               db:"retry_count"`
	Locale         string       `json:"locale"                    db:"locale"`
	FailureMessage *string      `json:"failure_message,omitempty" db:"failure_message"`
	CreatedAt      time.Time    `json:"created_at"                db:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"    db:"completed_at"`
	Deleted        bool         `json:"-"                         db:"is_deleted"`
}

// Request returns the in-memory work item for a ledger record.
func (j *ExportJob) Request() ExportRequest {
	return ExportRequest{
		JobID:       j.ID,
		RequesterID: j.RequesterID,
		Handler:     j.Handler,
		MethodName:  j.MethodName,
		Params:      j.Params,
		Locale:      j.Locale,
	}
}

// ExportRequest is the immutable work item carried by the intake queue.
type ExportRequest struct {
	JobID       string `json:"job_id"`
	RequesterID string `json:"requester_id"`
	Handler     string `json:"handler"`
	MethodName  string `json:"method_name,omitempty"`
	Params      string `json:"params"`
	Locale      string `json:"locale"`
}

// SubmitExportRequest is the gateway input for a new export.
type SubmitExportRequest struct {
	RequesterID string `json:"requester_id"`
	Handler     string `json:"handler"`
	MethodName  string `json:"method_name,omitempty"`
	Params      string `json:"params"`
	Locale      string `json:"locale"`
}

// Validate validates the SubmitExportRequest fields.
func (r *SubmitExportRequest) Validate() error {
	r.Handler = strings.TrimSpace(r.Handler)
	r.Locale = strings.TrimSpace(r.Locale)
	if r.Handler == "" {
		return errors.New("handler is required")
	}
	if len(r.Handler) > 255 {
		return errors.New("handler must be 255 characters or fewer")
	}
	if len(r.Locale) > 32 {
		return errors.New("locale must be 32 characters or fewer")
	}
	return nil
}

// UpdateExportStatusParams carries the full terminal rewrite of a ledger record.
type UpdateExportStatusParams struct {
	ID             string
	Status         ExportStatus
	RowCount       int64
	OutputURL      *string
	RetryCount     int
	Locale         string
	FailureMessage *string
	CompletedAt    time.Time
}

// Listing bounds shared by the gateway and the ledger.
const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// ExportJobListOptions filters ledger listings.
type ExportJobListOptions struct {
	Status      *ExportStatus
	RequesterID string
	Limit       int
	Offset      int
}

// Normalized returns o with Limit in [1, MaxListLimit] and a non-negative Offset.
// A Limit of zero or less becomes DefaultListLimit.
func (o ExportJobListOptions) Normalized() ExportJobListOptions {
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultListLimit
	case o.Limit > MaxListLimit:
		o.Limit = MaxListLimit
	}
	o.Offset = max(o.Offset, 0)
	return o
}

// ExportJobStats summarizes ledger records by status.
type ExportJobStats struct {
	Pending   int64 `json:"pending"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
}
