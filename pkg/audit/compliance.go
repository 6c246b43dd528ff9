package audit

import (
	"fmt"
	"strings"
)

// ComplianceStatus is the auditor's judgment on a single question.
// The stored values are the lowercase hyphenated constants below; every
// comparison in the codebase goes through them.
type ComplianceStatus string

const (
	StatusUnanswered    ComplianceStatus = ""
	StatusCompliant     ComplianceStatus = "compliant"
	StatusNotCompliant  ComplianceStatus = "not-compliant"
	StatusNotApplicable ComplianceStatus = "not-applicable"
)

// AllStatuses lists the answered statuses in display order.
var AllStatuses = []ComplianceStatus{StatusCompliant, StatusNotCompliant, StatusNotApplicable}

// IsValid returns true for the four known statuses, including unanswered.
func (s ComplianceStatus) IsValid() bool {
	switch s {
	case StatusUnanswered, StatusCompliant, StatusNotCompliant, StatusNotApplicable:
		return true
	}
	return false
}

// IsAnswered returns true when a status has been chosen.
func (s ComplianceStatus) IsAnswered() bool {
	return s != StatusUnanswered
}

// Label returns the human-readable form used in reports.
func (s ComplianceStatus) Label() string {
	switch s {
	case StatusCompliant:
		return "Compliant"
	case StatusNotCompliant:
		return "Not Compliant"
	case StatusNotApplicable:
		return "Not Applicable"
	default:
		return "Unanswered"
	}
}

// ParseComplianceStatus accepts canonical values, labels and the short
// forms c, nc, na. "clear", "none" and the empty string mean unanswered.
func ParseComplianceStatus(s string) (ComplianceStatus, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "-", "_", "-").Replace(norm)
	switch norm {
	case "", "clear", "none", "unanswered":
		return StatusUnanswered, nil
	case "compliant", "c", "yes":
		return StatusCompliant, nil
	case "not-compliant", "noncompliant", "non-compliant", "nc", "no":
		return StatusNotCompliant, nil
	case "not-applicable", "n/a", "na":
		return StatusNotApplicable, nil
	}
	return StatusUnanswered, fmt.Errorf("unknown compliance status %q", s)
}
