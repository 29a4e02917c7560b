// Package xlsx renders projected export rows into Excel workbooks.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/async-export/internal/core"
	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// Writer writes one sheet per file: a header row followed by the data rows.
type Writer struct {
	logger *slog.Logger
}

var _ core.TabularWriter = (*Writer)(nil)

// NewWriter creates a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger.With("component", "xlsx_writer")}
}

// Write renders file.Headers and file.Rows to file.Path. Cells are written as text.
func (w *Writer) Write(ctx context.Context, file core.TabularFile) (err error) {
	if file.Path == "" {
		return errors.New("xlsx: output path is required")
	}
	start := time.Now()
	sheet := file.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("xlsx close: %w", cerr))
		}
	}()

	if sheet != defaultSheet {
		if err = f.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("xlsx sheet name %q: %w", sheet, err)
		}
	}

	if err = writeRow(f, sheet, 1, file.Headers); err != nil {
		return err
	}
	for i, row := range file.Rows {
		if i%1000 == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
		}
		if err = writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err = f.SaveAs(file.Path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}

	w.logger.DebugContext(ctx, "xlsx written",
		"path", file.Path,
		"rows", len(file.Rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("xlsx cell (%d,%d): %w", col+1, row, err)
		}
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return fmt.Errorf("xlsx set %s: %w", cell, err)
		}
	}
	return nil
}
