// Package report exports the task list as JSON, CSV or PDF.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	internalstrings "github.com/amonks/taskplanner/internal/strings"
	"github.com/amonks/taskplanner/internal/validation"
	"github.com/amonks/taskplanner/task"
	"github.com/jung-kurt/gofpdf"
)

// ErrUnknownFormat indicates an unsupported export format.
var ErrUnknownFormat = errors.New("unknown export format")

// Format names an export encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatPDF}

// ParseFormat parses a format name, ignoring case and surrounding space.
// An empty name means JSON.
func ParseFormat(name string) (Format, error) {
	switch Format(internalstrings.NormalizeLowerTrimSpace(name)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", validation.FormatInvalidValueError(ErrUnknownFormat, Format(name), Formats)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// Filename returns the download name for an export in this format.
func (f Format) Filename() string {
	return "tasks." + string(f)
}

// TaskSource lists tasks in storage order.
type TaskSource interface {
	All(ctx context.Context) []task.Task
}

// Exporter renders the task list.
type Exporter struct {
	tasks TaskSource
	now   func() time.Time
}

// NewExporter returns an exporter reading from tasks.
func NewExporter(tasks TaskSource) *Exporter {
	return &Exporter{tasks: tasks, now: time.Now}
}

// Export writes every task to w in the given format.
func (e *Exporter) Export(ctx context.Context, w io.Writer, format Format) error {
	all := e.tasks.All(ctx)
	switch format {
	case FormatJSON:
		return writeJSON(w, all)
	case FormatCSV:
		return writeCSV(w, all)
	case FormatPDF:
		return writePDF(w, all, e.now())
	default:
		return validation.FormatInvalidValueError(ErrUnknownFormat, format, Formats)
	}
}

// Bytes is Export into memory.
func (e *Exporter) Bytes(ctx context.Context, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Export(ctx, &buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(w io.Writer, tasks []task.Task) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, tasks []task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "completed"}); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, t := range tasks {
		if err := cw.Write([]string{t.ID, t.Name, strconv.FormatBool(t.Completed)}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writePDF(w io.Writer, tasks []task.Task, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task Planner", true)
	pdf.SetCreationDate(now)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Planner")
	pdf.Ln(12)

	pending := len(task.Pending(tasks))
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(40, 6, fmt.Sprintf("%d tasks, %d pending", len(tasks), pending))
	pdf.Ln(10)

	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		pdf.MultiCell(0, 6, tr(mark+" "+t.Name), "0", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
