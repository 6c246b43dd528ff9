package audit

import "fmt"

// ValidationError represents a validation failure for audit types.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks structural integrity: non-empty unique ids, known statuses,
// and questions that point back at their section.
func (f *Form) Validate() error {
	seenSections := make(map[string]bool, len(f.Sections))
	seenQuestions := make(map[string]bool)
	for si, s := range f.Sections {
		if s.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("sections[%d].id", si), Message: "is required"}
		}
		if seenSections[s.ID] {
			return &ValidationError{Field: fmt.Sprintf("sections[%d].id", si), Message: fmt.Sprintf("duplicate section id %q", s.ID)}
		}
		seenSections[s.ID] = true
		for qi, q := range s.Questions {
			field := fmt.Sprintf("sections[%d].questions[%d]", si, qi)
			if err := q.Validate(); err != nil {
				ve := err.(*ValidationError)
				return &ValidationError{Field: field + "." + ve.Field, Message: ve.Message}
			}
			if seenQuestions[q.ID] {
				return &ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate question id %q", q.ID)}
			}
			seenQuestions[q.ID] = true
			if q.SectionID != "" && q.SectionID != s.ID {
				return &ValidationError{Field: field + ".sectionId", Message: fmt.Sprintf("belongs to %q, found under %q", q.SectionID, s.ID)}
			}
		}
	}
	return nil
}

// Validate checks a single question.
func (q *Question) Validate() error {
	if q.ID == "" {
		return &ValidationError{Field: "id", Message: "is required"}
	}
	if !q.Compliance.IsValid() {
		return &ValidationError{Field: "compliance", Message: fmt.Sprintf("unknown status %q", q.Compliance)}
	}
	for i, p := range q.Photos {
		if p.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("photos[%d].id", i), Message: "is required"}
		}
	}
	return nil
}
