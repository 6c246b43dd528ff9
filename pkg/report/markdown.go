package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
)

// WriteMarkdown writes a Markdown summary of doc: company details, the
// status table with verdict, and every not-compliant finding with its notes.
func WriteMarkdown(w io.Writer, doc Document) error {
	var b strings.Builder
	title := "GMP Audit Summary"
	if name := strings.TrimSpace(doc.Company.AuditeeName); name != "" {
		title += ": " + mdEscape(name)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var rows []infoPair
	for _, p := range companyPairs(doc.Company) {
		if strings.TrimSpace(p.value) != "" {
			rows = append(rows, p)
		}
	}
	if len(rows) > 0 {
		b.WriteString("## Company Information\n\n")
		for _, p := range rows {
			fmt.Fprintf(&b, "- **%s** %s\n", p.label, mdEscape(p.value))
		}
		b.WriteString("\n")
	}

	s := doc.Stats()
	b.WriteString("## Statistics\n\n")
	b.WriteString("| Status | Count | Share |\n|---|---:|---:|\n")
	fmt.Fprintf(&b, "| Compliant | %d | %d%% |\n", s.Compliant, s.CompliantPct)
	fmt.Fprintf(&b, "| Not Compliant | %d | %d%% |\n", s.NotCompliant, s.NotCompliantPct)
	fmt.Fprintf(&b, "| Not Applicable | %d | %d%% |\n", s.NotApplicable, s.NotApplicablePct)
	fmt.Fprintf(&b, "| Unanswered | %d | %d%% |\n", s.Unanswered, s.UnansweredPct)
	fmt.Fprintf(&b, "| **Total** | %d | |\n\n", s.Total)
	if s.Total > 0 {
		fmt.Fprintf(&b, "**Overall Assessment:** %s\n\n", s.Verdict())
	}

	var findings []string
	for _, sec := range doc.Sections {
		for _, q := range sec.Questions {
			if q.Compliance != audit.StatusNotCompliant {
				continue
			}
			line := fmt.Sprintf("- **%s** %s", mdEscape(q.ID), mdEscape(q.QuestionText))
			if c := strings.TrimSpace(q.ObservationCategory); c != "" {
				line += fmt.Sprintf(" _(%s)_", mdEscape(c))
			}
			if n := strings.Join(strings.Fields(q.Notes), " "); n != "" {
				line += "\n  " + mdEscape(n)
			}
			findings = append(findings, line)
		}
	}
	if len(findings) > 0 {
		b.WriteString("## Findings\n\n")
		b.WriteString(strings.Join(findings, "\n"))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "|", `\|`, "[", `\[`, "]", `\]`, "#", `\#`,
)

func mdEscape(s string) string {
	return mdEscaper.Replace(s)
}
