// Package report builds the printable medical report for one fully
// loaded diagnosis record.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/mrsinham/retinascan/internal/model"
)

// Title is the fixed heading of every exported report.
const Title = "RetinaScan AI - Medical Report"

// ErrDetailNotLoaded is returned when export is attempted on a record
// whose detail fetch has not finished.
var ErrDetailNotLoaded = errors.New("record detail is not loaded")

// Export writes the PDF report for rec to w. The record must be a fully
// loaded detail, not a list summary.
func Export(rec *model.DiagnosisRecord, w io.Writer) error {
	if !rec.Loaded() {
		return ErrDetailNotLoaded
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(20, 20, Title)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(20, 30, fmt.Sprintf("Patient: %s", rec.Name))
	pdf.Text(20, 40, fmt.Sprintf("Diagnosis: %s", rec.Diagnosis))
	pdf.Text(20, 50, fmt.Sprintf("Severity: Stage %d", rec.Severity))
	pdf.Text(20, 60, fmt.Sprintf("Confidence: %.2f%%", rec.Confidence))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ExportFile writes the report into dir as "<patient name>_Report.pdf"
// and returns the file path.
func ExportFile(rec *model.DiagnosisRecord, dir string) (string, error) {
	if !rec.Loaded() {
		return "", ErrDetailNotLoaded
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, fileName(rec.Name))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := Export(rec, f); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// fileName keeps the patient name in the file name but strips path
// separators and other characters that trip up filesystems.
func fileName(patient string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, patient)
	if clean == "" {
		clean = "patient"
	}
	return clean + "_Report.pdf"
}
