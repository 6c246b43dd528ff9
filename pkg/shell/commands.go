package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/photo"
	"github.com/r3d91ll/gmpaudit/pkg/secure"
	"github.com/r3d91ll/gmpaudit/pkg/spinner"
	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

func colorFor(c stats.RGB) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)))
}

func statusText(st audit.ComplianceStatus) string {
	return colorFor(stats.StatusColor(st)).Render(st.Label())
}

// -----------------------------------------------------------------------------
// Form editing
// -----------------------------------------------------------------------------

func (s *Shell) setCompany(rest string) error {
	if rest == "" {
		s.printCompany()
		return nil
	}
	a, err := args(rest, 2, 1, "/company <field> <value>")
	if err != nil {
		return err
	}
	value := secure.SanitizeInput(a[1])
	if err := s.store.UpdateCompany(a[0], value); err != nil {
		return err
	}
	if value == "" {
		fmt.Fprintf(s.out, "Cleared %s.\n", a[0])
		return nil
	}
	fmt.Fprintf(s.out, "%s = %s\n", a[0], value)
	return nil
}

func (s *Shell) printCompany() {
	info := s.store.Snapshot().CompanyInfo
	for _, field := range audit.CompanyFields {
		v, _ := info.Get(field)
		if v == "" {
			v = dimStyle.Render("(empty)")
		}
		fmt.Fprintf(s.out, "  %-24s %s\n", field, v)
	}
}

func (s *Shell) answer(rest string) error {
	a, err := args(rest, 2, 2, "/answer <qid> <c|nc|na|clear>")
	if err != nil {
		return err
	}
	status, err := audit.ParseComplianceStatus(a[1])
	if err != nil {
		return werrors.Commandf(werrors.ErrCommandInvalidArg, "%v; use c, nc, na or clear", err).
			WithContext("status", a[1])
	}
	if err := s.store.SetCompliance(a[0], status); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: %s (%d%% complete)\n", strings.ToLower(a[0]), statusText(status), s.store.Completion())
	return nil
}

func (s *Shell) note(rest string) error {
	a, err := args(rest, 2, 1, "/note <qid> <text>")
	if err != nil {
		return err
	}
	if err := s.store.SetNotes(a[0], a[1]); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: notes updated\n", strings.ToLower(a[0]))
	return nil
}

func (s *Shell) category(rest string) error {
	a, err := args(rest, 2, 1, "/category <qid> <text>")
	if err != nil {
		return err
	}
	if err := s.store.SetObservationCategory(a[0], secure.SanitizeInput(a[1])); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s: observation category updated\n", strings.ToLower(a[0]))
	return nil
}

// attachPhotos stores one or more photos. Several paths are processed in
// parallel behind a progress bar.
func (s *Shell) attachPhotos(ctx context.Context, rest string) error {
	if s.photos == nil {
		return werrors.Command(werrors.ErrCommandInvalidArg, "photo storage is not configured")
	}
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return werrors.Command(werrors.ErrCommandMissingArgs, "usage: /photo <qid> <path>...")
	}
	qid, paths := fields[0], fields[1:]
	if _, err := s.store.Question(qid); err != nil {
		return err
	}

	var bar *spinner.Progress
	var progress func(done, total int)
	if len(paths) > 1 {
		bar = spinner.NewProgress(s.out, len(paths), "Processing photos")
		progress = bar.Set
	}
	results, err := s.photos.SaveFiles(ctx, paths, progress)
	if err != nil {
		for _, r := range results {
			if r.Err == nil && r.Photo.ID != "" {
				s.photos.Remove(r.Photo)
			}
		}
		if bar != nil {
			bar.Fail("Photo processing cancelled")
		}
		return err
	}

	var failed []error
	for _, r := range results {
		err := r.Err
		if err == nil {
			if err = s.store.AddPhoto(qid, r.Photo); err != nil {
				s.photos.Remove(r.Photo)
			}
		}
		if err != nil {
			failed = append(failed, err)
		} else if bar == nil {
			fmt.Fprintf(s.out, "%s: attached %s\n", strings.ToLower(qid), photo.Describe(r.Photo))
		}
	}

	if bar != nil {
		msg := fmt.Sprintf("%d of %d photos attached to %s", len(paths)-len(failed), len(paths), strings.ToLower(qid))
		if len(failed) > 0 {
			bar.Fail(msg)
		} else {
			bar.Complete(msg)
		}
		for _, err := range failed[min(1, len(failed)):] {
			s.errs.Display(err)
		}
	}
	if len(failed) > 0 {
		return failed[0]
	}
	return nil
}

func (s *Shell) removePhoto(rest string) error {
	a, err := args(rest, 2, 2, "/unphoto <qid> <photo#>")
	if err != nil {
		return err
	}
	q, err := s.store.Question(a[0])
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(a[1])
	if err != nil || n < 1 || n > len(q.Photos) {
		return werrors.Commandf(werrors.ErrCommandInvalidArg,
			"photo number must be between 1 and %d", len(q.Photos)).WithContext("photo", a[1])
	}
	p, err := s.store.RemovePhoto(q.ID, q.Photos[n-1].ID)
	if err != nil {
		return err
	}
	if s.photos != nil {
		if err := s.photos.Remove(p); err != nil {
			s.logger.Warn("photo file not removed", zap.String("id", p.ID), zap.Error(err))
		}
	}
	fmt.Fprintf(s.out, "%s: removed %s\n", q.ID, photo.Describe(p))
	return nil
}

// -----------------------------------------------------------------------------
// Review
// -----------------------------------------------------------------------------

func (s *Shell) printSections() {
	f := s.store.Snapshot()
	for i, sec := range f.Sections {
		st := stats.Calculate(f.Sections[i : i+1])
		fmt.Fprintf(s.out, "  %2d. %-48s %s\n", i+1, sec.Title,
			dimStyle.Render(fmt.Sprintf("%d/%d answered", st.Answered(), st.Total)))
	}
}

func (s *Shell) show(rest string) error {
	a, err := args(rest, 1, 1, "/show <section#|qid>")
	if err != nil {
		return err
	}
	f := s.store.Snapshot()
	if n, err := strconv.Atoi(a[0]); err == nil {
		if n < 1 || n > len(f.Sections) {
			return werrors.Validationf(werrors.ErrValidationUnknownSection,
				"section %d does not exist (1-%d)", n, len(f.Sections))
		}
		sec := f.Sections[n-1]
		fmt.Fprintln(s.out, labelStyle.Render(fmt.Sprintf("%d. %s", n, sec.Title)))
		for _, q := range sec.Questions {
			fmt.Fprintf(s.out, "  %-4s %-16s %s\n", q.ID, statusText(q.Compliance), q.QuestionText)
		}
		return nil
	}

	q, err := s.store.Question(a[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, labelStyle.Render(q.ID+". "+q.QuestionText))
	if q.RegulatoryReference != "" {
		fmt.Fprintln(s.out, dimStyle.Render("  Ref: "+q.RegulatoryReference))
	}
	fmt.Fprintf(s.out, "  Status:   %s\n", statusText(q.Compliance))
	if q.ObservationCategory != "" {
		fmt.Fprintf(s.out, "  Category: %s\n", q.ObservationCategory)
	}
	if q.Notes != "" {
		fmt.Fprintf(s.out, "  Notes:    %s\n", q.Notes)
	}
	for i, p := range q.Photos {
		fmt.Fprintf(s.out, "  Photo %d:  %s\n", i+1, photo.Describe(p))
	}
	return nil
}

func (s *Shell) printStats() {
	st := stats.Calculate(s.store.Snapshot().Sections)
	row := func(label string, n, pct int) {
		fmt.Fprintf(s.out, "  %-16s %3d  %s\n", label, n, dimStyle.Render(fmt.Sprintf("(%d%%)", pct)))
	}
	fmt.Fprintf(s.out, "  %-16s %3d\n", "Total", st.Total)
	row("Compliant", st.Compliant, st.CompliantPct)
	row("Not Compliant", st.NotCompliant, st.NotCompliantPct)
	row("Not Applicable", st.NotApplicable, st.NotApplicablePct)
	row("Unanswered", st.Unanswered, st.UnansweredPct)
	fmt.Fprintf(s.out, "  %-16s %3d%%\n", "Completion", s.store.Completion())
	v := st.Verdict()
	fmt.Fprintf(s.out, "  %-16s %s\n", "Verdict", colorFor(v.Color()).Bold(true).Render(string(v)))
}

// -----------------------------------------------------------------------------
// Storage
// -----------------------------------------------------------------------------

func (s *Shell) save(ctx context.Context) error {
	if s.saver != nil {
		if err := s.saver.Flush(ctx); err != nil {
			return err
		}
	} else if s.backend != nil {
		if err := s.backend.Save(ctx, s.store.Snapshot()); err != nil {
			return err
		}
		s.store.MarkSaved(time.Now().UTC())
	} else {
		return werrors.Command(werrors.ErrCommandInvalidArg, "no storage backend is configured")
	}
	fmt.Fprintln(s.out, okStyle.Render("Saved."))
	return nil
}

func (s *Shell) reset() error {
	if s.prompter == nil {
		s.prompter = NewInteractivePrompter()
	}
	ok, err := s.prompter.Confirm(ResetPrompt)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.out, "Reset cancelled.")
		return nil
	}
	s.store.Reset()
	fmt.Fprintln(s.out, "Form reset.")
	return nil
}
