// Package catalog provides the fixed GMP question set the audit form is built from.
package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
)

//go:embed questions.yaml
var questionsYAML []byte

type catalogFile struct {
	Sections []struct {
		ID        string `yaml:"id"`
		Title     string `yaml:"title"`
		Questions []struct {
			ID        string `yaml:"id"`
			Text      string `yaml:"text"`
			Reference string `yaml:"reference"`
		} `yaml:"questions"`
	} `yaml:"sections"`
}

var (
	once     sync.Once
	sections []audit.Section
	loadErr  error
)

// Parse decodes a catalog document into unanswered sections.
func Parse(data []byte) ([]audit.Section, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("parse question catalog: %w", err)
	}
	out := make([]audit.Section, 0, len(cf.Sections))
	for _, s := range cf.Sections {
		sec := audit.Section{ID: s.ID, Title: s.Title}
		for _, q := range s.Questions {
			sec.Questions = append(sec.Questions, audit.Question{
				ID:                  q.ID,
				SectionID:           s.ID,
				QuestionText:        q.Text,
				RegulatoryReference: q.Reference,
				Photos:              []audit.Photo{},
			})
		}
		out = append(out, sec)
	}
	form := audit.Form{Sections: out}
	if err := form.Validate(); err != nil {
		return nil, fmt.Errorf("invalid question catalog: %w", err)
	}
	return out, nil
}

// Sections returns a fresh, unanswered copy of the built-in catalog.
// Callers may mutate the result freely.
func Sections() []audit.Section {
	once.Do(func() {
		sections, loadErr = Parse(questionsYAML)
	})
	if loadErr != nil {
		// The catalog is compiled in; a parse failure is a build defect.
		panic(loadErr)
	}
	return audit.CloneSections(sections)
}

// NewForm returns an empty audit form over the built-in catalog.
func NewForm() *audit.Form {
	return audit.NewForm(Sections())
}

// Merge overlays saved answers onto the current catalog. Questions present in
// both keep their saved answers; catalog text and references always win, so
// catalog updates reach old forms. Saved questions no longer in the catalog
// are dropped.
func Merge(saved *audit.Form) *audit.Form {
	fresh := Sections()
	if saved == nil {
		return audit.NewForm(fresh)
	}
	out := saved.Clone()
	for si := range fresh {
		if old, ok := saved.Section(fresh[si].ID); ok {
			fresh[si].Expanded = old.Expanded
		}
		for qi := range fresh[si].Questions {
			q := &fresh[si].Questions[qi]
			old, ok := saved.Question(q.ID)
			if !ok {
				continue
			}
			q.Compliance = old.Compliance
			q.Notes = old.Notes
			q.ObservationCategory = old.ObservationCategory
			if len(old.Photos) > 0 {
				q.Photos = append([]audit.Photo(nil), old.Photos...)
			}
		}
	}
	out.Sections = fresh
	if out.ID == "" {
		out.ID = audit.NewForm(nil).ID
	}
	return out
}
