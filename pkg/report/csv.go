package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 CSV.
	DialectStandard CSVDialect = "standard"

	// DialectExcel is standard CSV preceded by a UTF-8 byte order mark so
	// spreadsheet applications detect the encoding.
	DialectExcel CSVDialect = "excel"

	// DialectTSV uses tab-separated values.
	DialectTSV CSVDialect = "tsv"
)

const utf8BOM = "\uFEFF"

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	// Dialect specifies the CSV format variant.
	// Default: DialectStandard
	Dialect CSVDialect

	// IncludeHeader writes column headers as the first row.
	// Default: true
	IncludeHeader bool

	// IncludeEmptyFields writes unanswered questions without notes.
	// Default: true
	IncludeEmptyFields bool

	// StatusLabels writes "Not Compliant" instead of "not-compliant".
	// Default: false
	StatusLabels bool
}

// DefaultCSVConfig returns standard CSV with a header and every question.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:            DialectStandard,
		IncludeHeader:      true,
		IncludeEmptyFields: true,
	}
}

// ParseCSVDialect accepts standard, excel, tsv and csv.
func ParseCSVDialect(s string) (CSVDialect, error) {
	switch s {
	case "", "standard", "csv":
		return DialectStandard, nil
	case "excel":
		return DialectExcel, nil
	case "tsv":
		return DialectTSV, nil
	}
	return "", fmt.Errorf("unknown CSV dialect %q (want standard, excel or tsv)", s)
}

// csvHeaders is the fixed column order.
var csvHeaders = []string{
	"section",
	"id",
	"reference",
	"status",
	"category",
	"notes",
	"photo_count",
}

// CSVWriter writes question rows.
type CSVWriter struct {
	config      *CSVConfig
	out         io.Writer
	writer      *csv.Writer
	started     bool
	rowsWritten int
}

// NewCSVWriter creates a CSVWriter on w. A nil config uses DefaultCSVConfig.
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}

	csvWriter := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		csvWriter.Comma = '\t'
	}
	if config.Dialect == DialectExcel {
		csvWriter.UseCRLF = true
	}

	return &CSVWriter{
		config: config,
		out:    w,
		writer: csvWriter,
	}
}

// start writes the BOM and header once.
func (cw *CSVWriter) start() error {
	if cw.started {
		return nil
	}
	cw.started = true

	if cw.config.Dialect == DialectExcel {
		if _, err := io.WriteString(cw.out, utf8BOM); err != nil {
			return fmt.Errorf("failed to write CSV byte order mark: %w", err)
		}
	}
	if cw.config.IncludeHeader {
		if err := cw.writer.Write(csvHeaders); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	return nil
}

// Write writes one question of the named section.
func (cw *CSVWriter) Write(section string, q QuestionRecord) error {
	if err := cw.start(); err != nil {
		return err
	}
	if !cw.config.IncludeEmptyFields && q.isEmpty() {
		return nil
	}

	status := string(q.Compliance)
	if cw.config.StatusLabels {
		status = q.Compliance.Label()
	}

	row := []string{
		section,
		q.ID,
		q.RegulatoryReference,
		status,
		q.ObservationCategory,
		q.Notes,
		strconv.Itoa(len(q.Photos)),
	}
	if err := cw.writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}

	cw.rowsWritten++
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	if err := cw.start(); err != nil {
		return err
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// RowsWritten returns the number of data rows written (excluding header).
func (cw *CSVWriter) RowsWritten() int {
	return cw.rowsWritten
}

// WriteCSV writes every question of doc, one row each.
func WriteCSV(w io.Writer, doc Document, config *CSVConfig) error {
	writer := NewCSVWriter(w, config)
	for _, sec := range doc.Sections {
		for _, q := range sec.Questions {
			if err := writer.Write(sec.Title, q); err != nil {
				return err
			}
		}
	}
	return writer.Flush()
}
