package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/secure"
	"github.com/r3d91ll/gmpaudit/pkg/stats"
)

func (s *Server) getForm(c *gin.Context) {
	ok(c, http.StatusOK, s.deps.Store.Snapshot())
}

func (s *Server) putCompany(c *gin.Context) {
	var info audit.CompanyInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		failErr(c, werrors.Validation(werrors.ErrValidationInvalidForm, "invalid company body: "+err.Error()))
		return
	}
	for _, f := range audit.CompanyFields {
		v, _ := info.Get(f)
		_ = info.Set(f, secure.SanitizeInput(v))
	}
	if err := s.deps.Store.SetCompany(info); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, s.deps.Store.Snapshot().CompanyInfo)
}

// questionPatch carries the fields a client may change. Nil fields are
// left alone.
type questionPatch struct {
	Compliance          *string `json:"compliance"`
	Notes               *string `json:"notes"`
	ObservationCategory *string `json:"observationCategory"`
}

func (s *Server) patchQuestion(c *gin.Context) {
	id := c.Param("id")
	var p questionPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		failErr(c, werrors.Validation(werrors.ErrValidationInvalidForm, "invalid question body: "+err.Error()))
		return
	}
	if _, err := s.deps.Store.Question(id); err != nil {
		failErr(c, err)
		return
	}

	if p.Compliance != nil {
		status, err := audit.ParseComplianceStatus(*p.Compliance)
		if err != nil {
			failErr(c, werrors.Validation(werrors.ErrValidationInvalidStatus, err.Error()).
				WithContext("question", id))
			return
		}
		if err := s.deps.Store.SetCompliance(id, status); err != nil {
			failErr(c, err)
			return
		}
	}
	if p.Notes != nil {
		if err := s.deps.Store.SetNotes(id, secure.SanitizeInput(*p.Notes)); err != nil {
			failErr(c, err)
			return
		}
	}
	if p.ObservationCategory != nil {
		if err := s.deps.Store.SetObservationCategory(id, secure.SanitizeInput(*p.ObservationCategory)); err != nil {
			failErr(c, err)
			return
		}
	}

	q, err := s.deps.Store.Question(id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

func (s *Server) toggleSection(c *gin.Context) {
	id := c.Param("id")
	expanded, err := s.deps.Store.ToggleSection(id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "isExpanded": expanded})
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	stats.Stats
	Completion int           `json:"completion"`
	Verdict    stats.Verdict `json:"verdict"`
}

func (s *Server) getStats(c *gin.Context) {
	f := s.deps.Store.Snapshot()
	st := stats.Calculate(f.Sections)
	ok(c, http.StatusOK, StatsResponse{
		Stats:      st,
		Completion: stats.Completion(f),
		Verdict:    st.Verdict(),
	})
}

func (s *Server) reset(c *gin.Context) {
	s.deps.Store.Reset()
	s.hub.Notify(NotifyInfo, "The audit form was reset")
	ok(c, http.StatusOK, s.deps.Store.Snapshot())
}
