// Package stats derives compliance counts, percentages and the overall verdict
// from audit sections.
package stats

import (
	"math"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
)

// Verdict is the overall assessment tier.
type Verdict string

const (
	VerdictSatisfactory     Verdict = "SATISFACTORY"
	VerdictNeedsImprovement Verdict = "NEEDS IMPROVEMENT"
	VerdictUnsatisfactory   Verdict = "UNSATISFACTORY"
)

// Verdict thresholds on the rounded compliant percentage.
const (
	SatisfactoryThreshold     = 80
	NeedsImprovementThreshold = 60
)

// RGB is an 8-bit color triple.
type RGB struct{ R, G, B uint8 }

// Status colors, shared by compliance markers and the verdict.
var (
	ColorGreen = RGB{0, 150, 0}
	ColorRed   = RGB{200, 0, 0}
	ColorAmber = RGB{150, 150, 0}
	ColorBlack = RGB{0, 0, 0}
)

// VerdictFor maps a compliant percentage to its tier.
func VerdictFor(compliantPct int) Verdict {
	switch {
	case compliantPct >= SatisfactoryThreshold:
		return VerdictSatisfactory
	case compliantPct >= NeedsImprovementThreshold:
		return VerdictNeedsImprovement
	default:
		return VerdictUnsatisfactory
	}
}

// Color returns the tier color.
func (v Verdict) Color() RGB {
	switch v {
	case VerdictSatisfactory:
		return ColorGreen
	case VerdictNeedsImprovement:
		return ColorAmber
	default:
		return ColorRed
	}
}

// StatusColor returns the marker color for a compliance status.
// Unanswered questions have no marker and get black.
func StatusColor(s audit.ComplianceStatus) RGB {
	switch s {
	case audit.StatusCompliant:
		return ColorGreen
	case audit.StatusNotCompliant:
		return ColorRed
	case audit.StatusNotApplicable:
		return ColorAmber
	default:
		return ColorBlack
	}
}

// Stats holds aggregate compliance counts.
type Stats struct {
	Total         int `json:"total"`
	Compliant     int `json:"compliant"`
	NotCompliant  int `json:"notCompliant"`
	NotApplicable int `json:"notApplicable"`
	Unanswered    int `json:"unanswered"`

	CompliantPct     int `json:"compliantPercentage"`
	NotCompliantPct  int `json:"notCompliantPercentage"`
	NotApplicablePct int `json:"notApplicablePercentage"`
	UnansweredPct    int `json:"unansweredPercentage"`
}

// Calculate counts statuses across all questions in sections.
func Calculate(sections []audit.Section) Stats {
	var s Stats
	for _, sec := range sections {
		for _, q := range sec.Questions {
			s.Total++
			switch q.Compliance {
			case audit.StatusCompliant:
				s.Compliant++
			case audit.StatusNotCompliant:
				s.NotCompliant++
			case audit.StatusNotApplicable:
				s.NotApplicable++
			}
		}
	}
	s.Unanswered = s.Total - s.Compliant - s.NotCompliant - s.NotApplicable
	s.CompliantPct = Percent(s.Compliant, s.Total)
	s.NotCompliantPct = Percent(s.NotCompliant, s.Total)
	s.NotApplicablePct = Percent(s.NotApplicable, s.Total)
	s.UnansweredPct = Percent(s.Unanswered, s.Total)
	return s
}

// Verdict returns the tier for the compliant percentage.
func (s Stats) Verdict() Verdict {
	return VerdictFor(s.CompliantPct)
}

// Answered returns the number of questions with a status.
func (s Stats) Answered() int {
	return s.Total - s.Unanswered
}

// Percent returns part/total*100 rounded half away from zero; 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

// completionFields are the company fields counted toward completion.
// The contact function is an annotation of the contact name, not a field of its own.
var completionFields = []string{
	audit.FieldAuditeeName,
	audit.FieldAuditeeAddress,
	audit.FieldAuditorName,
	audit.FieldAuditorAddress,
	audit.FieldAuditStartDate,
	audit.FieldAuditEndDate,
	audit.FieldAuditeeContactName,
	audit.FieldQualityAuditorNames,
}

// Completion is the share of answered questions plus filled company fields.
func Completion(f *audit.Form) int {
	if f == nil {
		return 0
	}
	s := Calculate(f.Sections)
	filled := s.Answered() + f.CompanyInfo.PopulatedCount(completionFields)
	return Percent(filled, s.Total+len(completionFields))
}
