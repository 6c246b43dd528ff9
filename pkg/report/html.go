package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"inc":   func(i int) int { return i + 1 },
	"color": func(c stats.RGB) template.CSS {
		return template.CSS(fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B))
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>GMP Audit Report{{with .Company.AuditeeName}} - {{.}}{{end}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; line-height: 1.4; }
.header { text-align: center; border-bottom: 2px solid #333; padding-bottom: 20px; margin-bottom: 30px; }
.section { margin-bottom: 30px; page-break-inside: avoid; }
.section-title { background: #f0f0f0; padding: 10px; font-weight: bold; font-size: 16px; }
.question { margin: 15px 0; padding: 10px; border-left: 3px solid #ddd; page-break-inside: avoid; }
.compliant { border-left-color: #22c55e; }
.not-compliant { border-left-color: #ef4444; }
.not-applicable { border-left-color: #f59e0b; }
.status { font-weight: bold; margin-bottom: 5px; }
.notes { margin-top: 10px; font-style: italic; white-space: pre-wrap; }
.company-info { display: grid; grid-template-columns: 1fr 1fr; gap: 10px 20px; margin-bottom: 30px; }
.label { font-weight: bold; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<div class="header">
<h1>GMP Quality Audit Report</h1>
<p>Audit Date: {{.Date}}</p>
{{with .Company.AuditeeName}}<p><strong>Company:</strong> {{.}}</p>{{end}}
</div>
<h2>Company Information</h2>
<div class="company-info">
{{range .Pairs}}<div><span class="label">{{.Label}}</span> {{.Value}}</div>
{{end}}</div>
{{range .Sections}}<div class="section">
<div class="section-title">{{.Title}}</div>
{{range .Questions}}<div class="question {{.Compliance}}">
<div><strong>{{upper .ID}}:</strong> {{.QuestionText}}</div>
{{with .RegulatoryReference}}<div><em>{{.}}</em></div>{{end}}
{{if .Compliance.IsAnswered}}<div class="status">Status: {{.Compliance.Label}}</div>{{end}}
{{with .ObservationCategory}}<div>Category: {{.}}</div>{{end}}
{{with .Notes}}<div class="notes">Notes: {{.}}</div>{{end}}
{{if and $.IncludePhotos .Photos}}<div>Photos ({{len .Photos}}):<ul>{{range $i, $p := .Photos}}<li>Photo {{inc $i}}: {{$p.Name}}</li>{{end}}</ul></div>{{end}}
</div>
{{end}}</div>
{{end}}{{if .Summary}}<div class="section">
<h2>Audit Summary</h2>
<div>Total Questions: {{.Summary.Total}}</div>
<div>Compliant: {{.Summary.Compliant}} ({{.Summary.CompliantPct}}%)</div>
<div>Not Compliant: {{.Summary.NotCompliant}} ({{.Summary.NotCompliantPct}}%)</div>
<div>Not Applicable: {{.Summary.NotApplicable}} ({{.Summary.NotApplicablePct}}%)</div>
<div>Unanswered: {{.Summary.Unanswered}} ({{.Summary.UnansweredPct}}%)</div>
<p style="color: {{color .Verdict.Color}}"><strong>Overall Assessment: {{.Verdict}}</strong></p>
</div>
{{end}}<p><small>Generated: {{.Generated}}</small></p>
</body>
</html>
`))

type htmlPhoto struct {
	Name string
}

type htmlQuestion struct {
	QuestionRecord
	Photos []htmlPhoto
}

type htmlSection struct {
	Title     string
	Questions []htmlQuestion
}

type htmlView struct {
	Company       audit.CompanyInfo
	Date          string
	Generated     string
	Pairs         []htmlPair
	Sections      []htmlSection
	IncludePhotos bool
	Summary       *stats.Stats
	Verdict       stats.Verdict
}

type htmlPair struct {
	Label, Value string
}

// RenderHTML writes a print-friendly HTML page of doc. It applies the same
// question filtering as the PDF and fails with ErrEmptyDocument under the
// same conditions.
func RenderHTML(w io.Writer, doc Document, opts Options) error {
	opts, err := opts.normalize()
	if err != nil {
		return werrors.Wrap(err, werrors.ErrValidationInvalidOption, werrors.CategoryValidation, err.Error())
	}
	if err := checkRenderable(doc); err != nil {
		return err
	}

	now := opts.Now()
	view := htmlView{
		Company:       doc.Company,
		Date:          strings.TrimSpace(doc.Company.AuditStartDate),
		Generated:     now.Format("2006-01-02 15:04:05"),
		IncludePhotos: opts.IncludePhotos,
	}
	if view.Date == "" {
		view.Date = now.Format("2006-01-02")
	}
	for _, p := range companyPairs(doc.Company) {
		if strings.TrimSpace(p.value) != "" {
			view.Pairs = append(view.Pairs, htmlPair{Label: p.label, Value: p.value})
		}
	}
	for _, sec := range doc.Sections {
		hs := htmlSection{Title: sec.Title}
		for _, q := range sec.Questions {
			if !q.Rendered(opts) {
				continue
			}
			hq := htmlQuestion{QuestionRecord: q}
			for _, p := range q.Photos {
				name := strings.TrimSpace(p.FileName)
				if name == "" {
					name = "Image"
				}
				hq.Photos = append(hq.Photos, htmlPhoto{Name: name})
			}
			hs.Questions = append(hs.Questions, hq)
		}
		view.Sections = append(view.Sections, hs)
	}
	if opts.IncludeSummary {
		s := doc.Stats()
		view.Summary = &s
		view.Verdict = s.Verdict()
	}

	if err := htmlTemplate.Execute(w, view); err != nil {
		return werrors.ExportWrap(err, werrors.ErrExportRenderFailure, "failed to write HTML report")
	}
	return nil
}
