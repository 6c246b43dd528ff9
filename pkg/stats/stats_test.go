package stats

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
)

func sectionsWith(statuses ...audit.ComplianceStatus) []audit.Section {
	sec := audit.Section{ID: "s1"}
	for i, st := range statuses {
		sec.Questions = append(sec.Questions, audit.Question{ID: string(rune('a' + i)), Compliance: st})
	}
	return []audit.Section{sec}
}

func repeat(s audit.ComplianceStatus, n int) []audit.ComplianceStatus {
	out := make([]audit.ComplianceStatus, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestCalculate(t *testing.T) {
	got := Calculate(sectionsWith(
		audit.StatusCompliant,
		audit.StatusNotCompliant,
		audit.StatusNotApplicable,
		audit.StatusUnanswered,
		audit.StatusCompliant,
		audit.StatusCompliant,
	))
	want := Stats{
		Total: 6, Compliant: 3, NotCompliant: 1, NotApplicable: 1, Unanswered: 1,
		CompliantPct: 50, NotCompliantPct: 17, NotApplicablePct: 17, UnansweredPct: 17,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Calculate mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculate_ZeroTotal(t *testing.T) {
	got := Calculate(nil)
	if got != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", got)
	}
}

func TestVerdictBoundaries(t *testing.T) {
	tests := []struct {
		pct  int
		want Verdict
	}{
		{100, VerdictSatisfactory},
		{80, VerdictSatisfactory},
		{79, VerdictNeedsImprovement},
		{60, VerdictNeedsImprovement},
		{59, VerdictUnsatisfactory},
		{0, VerdictUnsatisfactory},
	}
	for _, tt := range tests {
		if got := VerdictFor(tt.pct); got != tt.want {
			t.Errorf("VerdictFor(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestVerdictFromCounts(t *testing.T) {
	// 4/5 = 80%, 3/5 = 60%, 59/100 = 59%
	four := append(repeat(audit.StatusCompliant, 4), audit.StatusNotCompliant)
	if v := Calculate(sectionsWith(four...)).Verdict(); v != VerdictSatisfactory {
		t.Errorf("80%% gave %q", v)
	}
	three := append(repeat(audit.StatusCompliant, 3), repeat(audit.StatusNotCompliant, 2)...)
	if v := Calculate(sectionsWith(three...)).Verdict(); v != VerdictNeedsImprovement {
		t.Errorf("60%% gave %q", v)
	}
	fiftyNine := append(repeat(audit.StatusCompliant, 59), repeat(audit.StatusUnanswered, 41)...)
	if v := Calculate(sectionsWith(fiftyNine...)).Verdict(); v != VerdictUnsatisfactory {
		t.Errorf("59%% gave %q", v)
	}
}

func TestColors(t *testing.T) {
	if VerdictSatisfactory.Color() != StatusColor(audit.StatusCompliant) {
		t.Error("satisfactory and compliant share green")
	}
	if VerdictUnsatisfactory.Color() != StatusColor(audit.StatusNotCompliant) {
		t.Error("unsatisfactory and not-compliant share red")
	}
	if VerdictNeedsImprovement.Color() != StatusColor(audit.StatusNotApplicable) {
		t.Error("needs improvement and not-applicable share amber")
	}
	if (ColorAmber != RGB{150, 150, 0}) {
		t.Error("amber must be (150,150,0)")
	}
}

func TestPercentRounding(t *testing.T) {
	tests := []struct{ part, total, want int }{
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{0, 0, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.want)
		}
	}
}

func TestCompletion(t *testing.T) {
	f := &audit.Form{Sections: sectionsWith(repeat(audit.StatusUnanswered, 30)...)}
	if got := Completion(f); got != 0 {
		t.Errorf("empty form completion = %d", got)
	}

	f.Sections[0].Questions[0].Compliance = audit.StatusCompliant
	f.CompanyInfo.AuditeeName = "Acme"
	f.CompanyInfo.AuditeeContactFunction = "does not count"
	// 2 of 38
	if got := Completion(f); got != 5 {
		t.Errorf("Completion() = %d, want 5", got)
	}

	if Completion(nil) != 0 {
		t.Error("nil form completion should be 0")
	}
}
