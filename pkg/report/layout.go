package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

// Page geometry in millimetres.
const (
	Margin        = 20.0
	LineHeight    = 8.0
	BottomReserve = 30.0 // footer strip kept clear of body content

	// MinBlockReserve is the smallest reservation for a question or section bar.
	MinBlockReserve = 20.0

	labelWidth       = 40.0
	headerTitleStep  = 15.0
	headerDateStep   = 10.0
	headerNameStep   = 15.0
	ruleStep         = 8.0
	headingStep      = 10.0
	sectionBarStep   = 15.0
	sectionBarRise   = 5.0
	sectionBarH      = 12.0
	notesLabelStep   = 6.0
	photoGap         = 5.0
	photoLineStep    = 6.0
	separatorGap     = 5.0
	summaryTitleStep = 15.0
	summaryGap       = 5.0
	statusIndent     = 5.0
	notesIndent      = 10.0
	markerOffset     = 45.0
	markerRadius     = 1.5
	footerRuleRise   = 15.0
	footerTextRise   = 8.0
	logoWidth        = 20.0
)

const fontFamily = "Helvetica"

var (
	fontTitle        = Font{fontFamily, StyleBold, 20}
	fontAuditDate    = Font{fontFamily, StyleRegular, 12}
	fontCompanyName  = Font{fontFamily, StyleBold, 14}
	fontHeading      = Font{fontFamily, StyleBold, 14}
	fontBody         = Font{fontFamily, StyleRegular, 10}
	fontBodyBold     = Font{fontFamily, StyleBold, 10}
	fontSection      = Font{fontFamily, StyleBold, 16}
	fontQuestionID   = Font{fontFamily, StyleBold, 12}
	fontSummaryTitle = Font{fontFamily, StyleBold, 16}
	fontSummary      = Font{fontFamily, StyleRegular, 12}
	fontSummaryBold  = Font{fontFamily, StyleBold, 12}
	fontVerdict      = Font{fontFamily, StyleBold, 14}
	fontFooter       = Font{fontFamily, StyleRegular, 8}
)

var (
	grayRule      = stats.RGB{R: 100, G: 100, B: 100}
	graySeparator = stats.RGB{R: 200, G: 200, B: 200}
	grayFooter    = stats.RGB{R: 150, G: 150, B: 150}
	sectionFill   = stats.RGB{R: 240, G: 240, B: 240}
)

// PaginationState is the running layout position of one export.
type PaginationState struct {
	CursorY    float64
	PageIndex  int
	PageWidth  float64
	PageHeight float64
	Margin     float64
}

// BodyBottom is the lowest y body content may reach.
func (s PaginationState) BodyBottom() float64 {
	return s.PageHeight - BottomReserve
}

// BodyHeight is the usable vertical space on a fresh page.
func (s PaginationState) BodyHeight() float64 {
	return s.BodyBottom() - s.Margin
}

// Fits reports whether required units fit below the cursor.
func (s PaginationState) Fits(required float64) bool {
	return s.CursorY+required <= s.BodyBottom()
}

// AtTop reports whether nothing has been written on the current page.
func (s PaginationState) AtTop() bool {
	return s.CursorY <= s.Margin
}

// layout renders a Document onto a Surface. It owns its PaginationState
// exclusively for the duration of one export.
type layout struct {
	surf  Surface
	doc   Document
	opts  Options
	state PaginationState
}

func newLayout(surf Surface, doc Document, opts Options) *layout {
	w, h := surf.PageSize()
	return &layout{
		surf: surf,
		doc:  doc,
		opts: opts,
		state: PaginationState{
			CursorY:    Margin,
			PageWidth:  w,
			PageHeight: h,
			Margin:     Margin,
		},
	}
}

// run lays out every block, then writes footers in a second pass.
func (l *layout) run() {
	l.newPage()
	l.renderHeader()
	l.renderCompanyInfo()
	for _, sec := range l.doc.Sections {
		l.renderSection(sec)
	}
	if l.opts.IncludeSummary {
		l.renderSummary(l.doc.Stats())
	}
	l.renderFooters()
}

// -----------------------------------------------------------------------------
// Page breaks
// -----------------------------------------------------------------------------

func (l *layout) newPage() {
	l.surf.AddPage()
	l.state.PageIndex = l.surf.PageCount()
	l.state.CursorY = l.state.Margin
}

// checkPageBreak starts a new page when required units do not fit.
// A fresh page is never abandoned for another fresh page, so oversize
// blocks cannot produce blank pages.
func (l *layout) checkPageBreak(required float64) {
	if l.state.Fits(required) || l.state.AtTop() {
		return
	}
	l.newPage()
}

// capped limits a reservation to what a fresh page can hold.
func (l *layout) capped(required float64) float64 {
	return math.Min(required, l.state.BodyHeight())
}

// -----------------------------------------------------------------------------
// Drawing helpers
// -----------------------------------------------------------------------------

func (l *layout) text(x float64, s string, f Font) {
	l.surf.SetFont(f)
	l.surf.Text(x, l.state.CursorY, s)
}

func (l *layout) centered(s string, f Font) {
	w := l.surf.MeasureWidth(s, f)
	l.text((l.state.PageWidth-w)/2, s, f)
}

func (l *layout) rule(c stats.RGB) {
	l.surf.SetDrawColor(c)
	l.surf.Line(l.state.Margin, l.state.CursorY, l.state.PageWidth-l.state.Margin, l.state.CursorY)
	l.surf.SetDrawColor(stats.ColorBlack)
}

// -----------------------------------------------------------------------------
// Header and company information
// -----------------------------------------------------------------------------

func (l *layout) renderHeader() {
	if l.opts.LogoPath != "" {
		l.surf.Image(l.opts.LogoPath, l.state.Margin, l.state.Margin-12, logoWidth, 0)
	}

	l.centered("GMP Quality Audit Report", fontTitle)
	l.state.CursorY += headerTitleStep

	date := strings.TrimSpace(l.doc.Company.AuditStartDate)
	if date == "" {
		date = l.opts.Now().Format("2006-01-02")
	}
	l.centered("Audit Date: "+date, fontAuditDate)
	l.state.CursorY += headerDateStep

	if name := strings.TrimSpace(l.doc.Company.AuditeeName); name != "" {
		l.centered("Company: "+name, fontCompanyName)
		l.state.CursorY += headerNameStep
	}

	l.rule(grayRule)
	l.state.CursorY += ruleStep
}

type infoPair struct {
	label, value string
}

func companyPairs(c audit.CompanyInfo) []infoPair {
	return []infoPair{
		{"Auditee Name:", c.AuditeeName},
		{"Auditee Address:", c.AuditeeAddress},
		{"Contact Name:", c.ContactDisplay()},
		{"Auditor Name:", c.AuditorName},
		{"Auditor Address:", c.AuditorAddress},
		{"Quality Auditor:", c.QualityAuditorNames},
		{"Audit Start Date:", c.AuditStartDate},
		{"Audit End Date:", c.AuditEndDate},
	}
}

func (l *layout) renderCompanyInfo() {
	l.checkPageBreak(headingStep + LineHeight)
	l.text(l.state.Margin, "Company Information", fontHeading)
	l.state.CursorY += headingStep

	valueWidth := l.state.PageWidth - 2*l.state.Margin - labelWidth
	for _, p := range companyPairs(l.doc.Company) {
		if strings.TrimSpace(p.value) == "" {
			continue
		}
		lines := Wrap(l.surf, p.value, fontBody, valueWidth)
		if len(lines) == 0 {
			continue
		}
		l.checkPageBreak(l.capped(float64(len(lines)) * LineHeight))
		l.text(l.state.Margin, p.label, fontBodyBold)
		for i, line := range lines {
			if i > 0 {
				l.checkPageBreak(LineHeight)
			}
			l.text(l.state.Margin+labelWidth, line, fontBody)
			l.state.CursorY += LineHeight
		}
	}

	l.state.CursorY += headingStep
	l.checkPageBreak(ruleStep)
	l.rule(grayRule)
	l.state.CursorY += ruleStep
}

// -----------------------------------------------------------------------------
// Sections and questions
// -----------------------------------------------------------------------------

func (l *layout) notesWidth() float64 {
	return l.state.PageWidth - 2*l.state.Margin - notesIndent
}

// questionHeaderHeight is the vertical space of the id, status, category,
// notes label and first notes line: the part of a question kept together.
func (l *layout) questionHeaderHeight(q QuestionRecord) float64 {
	h := LineHeight
	if q.Compliance.IsAnswered() {
		h += LineHeight
	}
	if strings.TrimSpace(q.ObservationCategory) != "" {
		h += LineHeight
	}
	if len(Wrap(l.surf, q.Notes, fontBody, l.notesWidth())) > 0 {
		h += notesLabelStep + LineHeight
	}
	return h
}

func (l *layout) questionReserve(q QuestionRecord) float64 {
	return l.capped(math.Max(MinBlockReserve, l.questionHeaderHeight(q)))
}

func (l *layout) renderSection(sec Section) {
	var rendered []QuestionRecord
	for _, q := range sec.Questions {
		if q.Rendered(l.opts) {
			rendered = append(rendered, q)
		}
	}

	// Keep the bar with the header of its first question.
	reserve := MinBlockReserve
	if len(rendered) > 0 {
		reserve = math.Max(reserve, sectionBarStep+l.questionHeaderHeight(rendered[0]))
	}
	l.checkPageBreak(l.capped(reserve))

	l.surf.SetFillColor(sectionFill)
	l.surf.FillRect(l.state.Margin, l.state.CursorY-sectionBarRise, l.state.PageWidth-2*l.state.Margin, sectionBarH)
	l.surf.SetFont(fontSection)
	l.surf.Text(l.state.Margin+statusIndent, l.state.CursorY+3, sec.Title)
	l.state.CursorY += sectionBarStep

	for i, q := range rendered {
		l.renderQuestion(q, i == 0)
	}
}

func (l *layout) renderQuestion(q QuestionRecord, reserved bool) {
	if !reserved {
		l.checkPageBreak(l.questionReserve(q))
	}

	l.text(l.state.Margin, strings.ToUpper(q.ID)+":", fontQuestionID)
	l.state.CursorY += LineHeight

	if q.Compliance.IsAnswered() {
		l.text(l.state.Margin+statusIndent, "Status: "+q.Compliance.Label(), fontBodyBold)
		l.surf.SetFillColor(stats.StatusColor(q.Compliance))
		l.surf.Dot(l.state.Margin+markerOffset, l.state.CursorY-markerRadius, markerRadius)
		l.surf.SetFillColor(stats.ColorBlack)
		l.state.CursorY += LineHeight
	}

	if cat := strings.TrimSpace(q.ObservationCategory); cat != "" {
		l.text(l.state.Margin+statusIndent, "Category: "+cat, fontBody)
		l.state.CursorY += LineHeight
	}

	if lines := Wrap(l.surf, q.Notes, fontBody, l.notesWidth()); len(lines) > 0 {
		l.text(l.state.Margin+statusIndent, "Notes:", fontBodyBold)
		l.state.CursorY += notesLabelStep
		for _, line := range lines {
			l.checkPageBreak(LineHeight)
			l.text(l.state.Margin+notesIndent, line, fontBody)
			l.state.CursorY += LineHeight
		}
	}

	if l.opts.IncludePhotos && len(q.Photos) > 0 {
		l.checkPageBreak(photoGap + LineHeight + photoLineStep)
		l.state.CursorY += photoGap
		l.text(l.state.Margin+statusIndent, fmt.Sprintf("Photos (%d):", len(q.Photos)), fontBodyBold)
		l.state.CursorY += LineHeight
		for i, p := range q.Photos {
			l.checkPageBreak(photoLineStep)
			name := strings.TrimSpace(p.FileName)
			if name == "" {
				name = "Image"
			}
			l.text(l.state.Margin+notesIndent, fmt.Sprintf("• Photo %d: %s", i+1, name), fontBody)
			l.state.CursorY += photoLineStep
		}
	}

	l.checkPageBreak(separatorGap)
	l.state.CursorY += separatorGap
	l.rule(graySeparator)
	l.state.CursorY += ruleStep
}

// -----------------------------------------------------------------------------
// Summary
// -----------------------------------------------------------------------------

const summaryHeight = summaryTitleStep + 5*LineHeight + summaryGap + LineHeight

func (l *layout) renderSummary(s stats.Stats) {
	l.checkPageBreak(summaryHeight)

	l.text(l.state.Margin, "Audit Summary", fontSummaryTitle)
	l.state.CursorY += summaryTitleStep

	rows := [][2]string{
		{"Total Questions:", fmt.Sprintf("%d", s.Total)},
		{"Compliant:", fmt.Sprintf("%d (%d%%)", s.Compliant, s.CompliantPct)},
		{"Not Compliant:", fmt.Sprintf("%d (%d%%)", s.NotCompliant, s.NotCompliantPct)},
		{"Not Applicable:", fmt.Sprintf("%d (%d%%)", s.NotApplicable, s.NotApplicablePct)},
		{"Unanswered:", fmt.Sprintf("%d (%d%%)", s.Unanswered, s.UnansweredPct)},
	}
	for _, row := range rows {
		l.text(l.state.Margin, row[0], fontSummaryBold)
		l.text(l.state.Margin+labelWidth, row[1], fontSummary)
		l.state.CursorY += LineHeight
	}

	l.state.CursorY += summaryGap
	v := s.Verdict()
	l.surf.SetTextColor(v.Color())
	l.text(l.state.Margin, "Overall Assessment: "+string(v), fontVerdict)
	l.surf.SetTextColor(stats.ColorBlack)
	l.state.CursorY += LineHeight
}

// -----------------------------------------------------------------------------
// Footers
// -----------------------------------------------------------------------------

// renderFooters writes "Page i of N" and the generation time on every page.
// It runs after layout because N is unknown until then.
func (l *layout) renderFooters() {
	total := l.surf.PageCount()
	generated := "Generated: " + l.opts.Now().Format("2006-01-02 15:04:05")
	w, h := l.state.PageWidth, l.state.PageHeight
	for i := 1; i <= total; i++ {
		l.surf.SetPage(i)

		l.surf.SetDrawColor(grayFooter)
		l.surf.Line(l.state.Margin, h-footerRuleRise, w-l.state.Margin, h-footerRuleRise)
		l.surf.SetDrawColor(stats.ColorBlack)

		l.surf.SetFont(fontFooter)
		page := fmt.Sprintf("Page %d of %d", i, total)
		l.surf.Text((w-l.surf.MeasureWidth(page, fontFooter))/2, h-footerTextRise, page)
		l.surf.Text(w-l.state.Margin-l.surf.MeasureWidth(generated, fontFooter), h-footerTextRise, generated)
	}
}
