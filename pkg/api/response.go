package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
)

// Response is the envelope of every JSON response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Context map[string]string `json:"context,omitempty"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Error: &ErrorBody{Code: code, Message: message}})
}

// failErr writes err with the status its code maps to.
func failErr(c *gin.Context, err error) {
	_ = c.Error(err)
	ae, isAudit := werrors.AsAuditError(err)
	if !isAudit {
		fail(c, http.StatusInternalServerError, werrors.ErrInternal, err.Error())
		return
	}
	c.JSON(StatusFor(err), Response{Error: &ErrorBody{
		Code:    ae.Code,
		Message: ae.Message,
		Context: ae.Context,
	}})
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	ae, isAudit := werrors.AsAuditError(err)
	if !isAudit {
		return http.StatusInternalServerError
	}
	switch ae.Code {
	case werrors.ErrExportEmptyDocument:
		return http.StatusUnprocessableEntity
	case werrors.ErrExportRenderFailure:
		return http.StatusInternalServerError
	case werrors.ErrValidationUnknownQuestion, werrors.ErrValidationUnknownSection,
		werrors.ErrPhotoNotFound, werrors.ErrStorageNotFound:
		return http.StatusNotFound
	case werrors.ErrPhotoTooLarge:
		return http.StatusRequestEntityTooLarge
	}
	switch ae.Category {
	case werrors.CategoryValidation, werrors.CategoryPhoto, werrors.CategoryCommand:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
