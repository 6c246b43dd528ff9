// Package store holds the live audit form and persists it.
//
// FormStore is the single writer of the form. Readers take deep-copy
// snapshots, so a report export or a JSON encoder never observes a
// half-applied mutation.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	"github.com/r3d91ll/gmpaudit/pkg/catalog"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

// ChangeKind names what a mutation touched.
type ChangeKind string

const (
	ChangeCompany  ChangeKind = "company"
	ChangeQuestion ChangeKind = "question"
	ChangePhoto    ChangeKind = "photo"
	ChangeSection  ChangeKind = "section"
	ChangeReset    ChangeKind = "reset"
	ChangeReplaced ChangeKind = "replaced"
)

// Change describes one applied mutation.
type Change struct {
	Kind       ChangeKind `json:"kind"`
	ID         string     `json:"id,omitempty"`
	Field      string     `json:"field,omitempty"`
	Completion int        `json:"completionPercentage"`
	At         time.Time  `json:"at"`
}

// FormStore owns the mutable form.
type FormStore struct {
	mu   sync.RWMutex
	form *audit.Form

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int

	now func() time.Time
}

// New wraps form, or a fresh catalog form when form is nil.
func New(form *audit.Form) *FormStore {
	if form == nil {
		form = catalog.NewForm()
	}
	form = form.Clone()
	form.CompletionPercentage = stats.Completion(form)
	return &FormStore{
		form: form,
		subs: make(map[int]func(Change)),
		now:  time.Now,
	}
}

// Open loads the saved form from backend and merges it with the catalog.
// A missing saved form yields a fresh one.
func Open(ctx context.Context, backend Backend) (*FormStore, error) {
	saved, err := backend.Load(ctx)
	if err != nil {
		if werrors.IsCode(err, werrors.ErrStorageNotFound) {
			return New(nil), nil
		}
		return nil, err
	}
	return New(catalog.Merge(saved)), nil
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// Snapshot returns a deep copy of the current form.
func (s *FormStore) Snapshot() *audit.Form {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form.Clone()
}

// Question returns a copy of one question.
func (s *FormStore) Question(id string) (audit.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.form.Question(id)
	if !ok {
		return audit.Question{}, unknownQuestion(id)
	}
	c := *q
	c.Photos = append([]audit.Photo(nil), q.Photos...)
	return c, nil
}

// QuestionIDs returns every question id in form order.
func (s *FormStore) QuestionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form.QuestionIDs()
}

// Completion returns the current completion percentage.
func (s *FormStore) Completion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form.CompletionPercentage
}

// -----------------------------------------------------------------------------
// Mutations
// -----------------------------------------------------------------------------

// UpdateCompany sets one company information field.
func (s *FormStore) UpdateCompany(field, value string) error {
	return s.mutate(Change{Kind: ChangeCompany, Field: field}, func(f *audit.Form) error {
		if err := f.CompanyInfo.Set(field, value); err != nil {
			return werrors.Validationf(werrors.ErrValidationUnknownField, "unknown company field %q", field).
				WithContext("field", field)
		}
		return nil
	})
}

// SetCompany replaces all company information.
func (s *FormStore) SetCompany(info audit.CompanyInfo) error {
	return s.mutate(Change{Kind: ChangeCompany}, func(f *audit.Form) error {
		f.CompanyInfo = info
		return nil
	})
}

// SetCompliance sets a question's compliance status.
func (s *FormStore) SetCompliance(qid string, status audit.ComplianceStatus) error {
	if !status.IsValid() {
		return werrors.Validationf(werrors.ErrValidationInvalidStatus, "invalid compliance status %q", status).
			WithContext("question", qid)
	}
	return s.updateQuestion(qid, "compliance", func(q *audit.Question) { q.Compliance = status })
}

// SetNotes sets a question's notes.
func (s *FormStore) SetNotes(qid, notes string) error {
	return s.updateQuestion(qid, "notes", func(q *audit.Question) { q.Notes = notes })
}

// SetObservationCategory sets a question's observation category.
func (s *FormStore) SetObservationCategory(qid, category string) error {
	return s.updateQuestion(qid, "observationCategory", func(q *audit.Question) { q.ObservationCategory = category })
}

// AddPhoto attaches photo metadata to a question.
func (s *FormStore) AddPhoto(qid string, p audit.Photo) error {
	return s.mutate(Change{Kind: ChangePhoto, ID: qid}, func(f *audit.Form) error {
		q, ok := f.Question(qid)
		if !ok {
			return unknownQuestion(qid)
		}
		q.Photos = append(q.Photos, p)
		return nil
	})
}

// RemovePhoto detaches a photo from a question and returns it, so the
// caller can delete its files.
func (s *FormStore) RemovePhoto(qid, photoID string) (audit.Photo, error) {
	var removed audit.Photo
	err := s.mutate(Change{Kind: ChangePhoto, ID: qid}, func(f *audit.Form) error {
		q, ok := f.Question(qid)
		if !ok {
			return unknownQuestion(qid)
		}
		for i, p := range q.Photos {
			if p.ID == photoID {
				removed = p
				q.Photos = append(q.Photos[:i:i], q.Photos[i+1:]...)
				return nil
			}
		}
		return werrors.Photof(werrors.ErrPhotoNotFound, "question %s has no photo %q", strings.ToUpper(qid), photoID)
	})
	return removed, err
}

// ToggleSection flips a section's expanded state and returns the new state.
func (s *FormStore) ToggleSection(id string) (bool, error) {
	var expanded bool
	err := s.mutate(Change{Kind: ChangeSection, ID: id}, func(f *audit.Form) error {
		sec, ok := f.Section(id)
		if !ok {
			return werrors.Validationf(werrors.ErrValidationUnknownSection, "unknown section %q", id).
				WithContext("section", id)
		}
		sec.Expanded = !sec.Expanded
		expanded = sec.Expanded
		return nil
	})
	return expanded, err
}

// Reset discards every answer and all company information. The form keeps
// its id.
func (s *FormStore) Reset() {
	_ = s.mutate(Change{Kind: ChangeReset}, func(f *audit.Form) error {
		id := f.ID
		*f = *catalog.NewForm()
		f.ID = id
		return nil
	})
}

// Replace swaps in a form loaded from elsewhere, e.g. after the saved file
// changed on disk.
func (s *FormStore) Replace(form *audit.Form) {
	if form == nil {
		return
	}
	_ = s.mutate(Change{Kind: ChangeReplaced}, func(f *audit.Form) error {
		*f = *form.Clone()
		return nil
	})
}

// MarkSaved records a successful save. It does not notify subscribers.
func (s *FormStore) MarkSaved(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.LastSaved = &at
}

func (s *FormStore) updateQuestion(qid, field string, apply func(q *audit.Question)) error {
	return s.mutate(Change{Kind: ChangeQuestion, ID: qid, Field: field}, func(f *audit.Form) error {
		q, ok := f.Question(qid)
		if !ok {
			return unknownQuestion(qid)
		}
		apply(q)
		return nil
	})
}

// mutate applies fn under the write lock, recomputes completion and
// notifies subscribers after the lock is released.
func (s *FormStore) mutate(change Change, fn func(f *audit.Form) error) error {
	s.mu.Lock()
	if err := fn(s.form); err != nil {
		s.mu.Unlock()
		return err
	}
	s.form.CompletionPercentage = stats.Completion(s.form)
	change.Completion = s.form.CompletionPercentage
	change.At = s.now()
	s.mu.Unlock()

	s.notify(change)
	return nil
}

func unknownQuestion(id string) error {
	return werrors.Validationf(werrors.ErrValidationUnknownQuestion, "unknown question %q", id).
		WithContext("question", id)
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

// Subscribe registers fn for every applied change and returns a function
// that removes it. fn runs on the mutating goroutine and must not call
// back into a mutation.
func (s *FormStore) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *FormStore) notify(c Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(c)
	}
}
