// Package audit defines the GMP audit form: company information, ordered
// sections of regulatory questions, and per-question compliance evidence.
package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Form is the complete, mutable audit checklist.
type Form struct {
	ID                   string      `json:"id"`
	CompanyInfo          CompanyInfo `json:"companyInfo"`
	Sections             []Section   `json:"sections"`
	LastSaved            *time.Time  `json:"lastSaved,omitempty"`
	CompletionPercentage int         `json:"completionPercentage"`
}

// Section is a named, ordered group of related questions.
type Section struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Expanded  bool       `json:"isExpanded"`
	Questions []Question `json:"questions"`
}

// Question is a single regulatory checklist item and the auditor's answer to it.
type Question struct {
	ID                  string           `json:"id"`
	SectionID           string           `json:"sectionId"`
	QuestionText        string           `json:"questionText"`
	RegulatoryReference string           `json:"regulatoryReference"`
	Compliance          ComplianceStatus `json:"compliance"`
	Notes               string           `json:"notes"`
	ObservationCategory string           `json:"observationCategory"`
	Photos              []Photo          `json:"photos"`
}

// Photo is the stored metadata for a piece of photo evidence.
// Pixel data lives on disk at Path; the form only references it.
type Photo struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName,omitempty"`
	ContentType   string    `json:"contentType,omitempty"`
	SizeBytes     int64     `json:"sizeBytes,omitempty"`
	Width         int       `json:"width,omitempty"`
	Height        int       `json:"height,omitempty"`
	UploadedAt    time.Time `json:"uploadDate"`
	Path          string    `json:"path,omitempty"`
	ThumbnailPath string    `json:"thumbnailPath,omitempty"`
}

// NewForm creates an empty form with a generated id around the given sections.
func NewForm(sections []Section) *Form {
	return &Form{
		ID:       uuid.New().String(),
		Sections: sections,
	}
}

// IsEmpty reports whether the question has neither a status nor notes.
func (q *Question) IsEmpty() bool {
	return q.Compliance == StatusUnanswered && strings.TrimSpace(q.Notes) == ""
}

// QuestionCount returns the number of questions across all sections.
func (f *Form) QuestionCount() int {
	n := 0
	for _, s := range f.Sections {
		n += len(s.Questions)
	}
	return n
}

// Question finds a question by id (case-insensitive).
func (f *Form) Question(id string) (*Question, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for si := range f.Sections {
		for qi := range f.Sections[si].Questions {
			if strings.ToLower(f.Sections[si].Questions[qi].ID) == id {
				return &f.Sections[si].Questions[qi], true
			}
		}
	}
	return nil, false
}

// Section finds a section by id.
func (f *Form) Section(id string) (*Section, bool) {
	for i := range f.Sections {
		if f.Sections[i].ID == id {
			return &f.Sections[i], true
		}
	}
	return nil, false
}

// QuestionIDs returns every question id in document order.
func (f *Form) QuestionIDs() []string {
	ids := make([]string, 0, f.QuestionCount())
	for _, s := range f.Sections {
		for _, q := range s.Questions {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

// Clone returns a deep copy of the form.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	c := *f
	if f.LastSaved != nil {
		t := *f.LastSaved
		c.LastSaved = &t
	}
	c.Sections = CloneSections(f.Sections)
	return &c
}

// CloneSections deep-copies sections, questions and photo slices.
func CloneSections(in []Section) []Section {
	if in == nil {
		return nil
	}
	out := make([]Section, len(in))
	for i, s := range in {
		out[i] = s
		out[i].Questions = make([]Question, len(s.Questions))
		for j, q := range s.Questions {
			out[i].Questions[j] = q
			if q.Photos != nil {
				out[i].Questions[j].Photos = append([]Photo(nil), q.Photos...)
			}
		}
	}
	return out
}
