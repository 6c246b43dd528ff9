package report

import (
	"strings"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

// Document is the read-only input to one export.
type Document struct {
	Company  audit.CompanyInfo
	Sections []Section
}

// Section is an ordered group of question records.
type Section struct {
	Title     string
	Questions []QuestionRecord
}

// QuestionRecord is one question as it appears in the report.
type QuestionRecord struct {
	ID                  string
	QuestionText        string
	RegulatoryReference string
	Compliance          audit.ComplianceStatus
	ObservationCategory string
	Notes               string
	Photos              []PhotoRef
}

// PhotoRef is photo metadata; the report never reads pixel data.
type PhotoRef struct {
	FileName      string
	FileSizeBytes int64
}

// FromForm builds a Document from a form snapshot.
func FromForm(f *audit.Form) Document {
	if f == nil {
		return Document{}
	}
	doc := Document{Company: f.CompanyInfo}
	for _, s := range f.Sections {
		sec := Section{Title: s.Title}
		for _, q := range s.Questions {
			rec := QuestionRecord{
				ID:                  q.ID,
				QuestionText:        q.QuestionText,
				RegulatoryReference: q.RegulatoryReference,
				Compliance:          q.Compliance,
				ObservationCategory: q.ObservationCategory,
				Notes:               q.Notes,
			}
			for _, p := range q.Photos {
				rec.Photos = append(rec.Photos, PhotoRef{FileName: p.FileName, FileSizeBytes: p.SizeBytes})
			}
			sec.Questions = append(sec.Questions, rec)
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

// QuestionCount returns the number of questions in the document.
func (d Document) QuestionCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Questions)
	}
	return n
}

// Stats computes the summary statistics for the document.
func (d Document) Stats() stats.Stats {
	secs := make([]audit.Section, len(d.Sections))
	for i, s := range d.Sections {
		qs := make([]audit.Question, len(s.Questions))
		for j, q := range s.Questions {
			qs[j] = audit.Question{ID: q.ID, Compliance: q.Compliance}
		}
		secs[i] = audit.Section{Title: s.Title, Questions: qs}
	}
	return stats.Calculate(secs)
}

// isEmpty reports whether the question has neither a status nor notes.
func (q QuestionRecord) isEmpty() bool {
	return !q.Compliance.IsAnswered() && strings.TrimSpace(q.Notes) == ""
}

// Rendered reports whether q produces output under opts.
func (q QuestionRecord) Rendered(opts Options) bool {
	return opts.IncludeEmptyFields || !q.isEmpty()
}

// ValidateForExport returns non-blocking warnings about missing header data.
func ValidateForExport(d Document) []string {
	var warnings []string
	if strings.TrimSpace(d.Company.AuditeeName) == "" {
		warnings = append(warnings, "Company name is required for export")
	}
	if strings.TrimSpace(d.Company.AuditStartDate) == "" {
		warnings = append(warnings, "Audit start date is required for export")
	}
	return warnings
}
