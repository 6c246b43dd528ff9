package api

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
)

// photoField is the multipart field holding uploads; it may repeat.
const photoField = "photo"

func (s *Server) uploadPhotos(c *gin.Context) {
	qid := c.Param("id")
	if s.deps.Photos == nil {
		failErr(c, werrors.Internal(werrors.ErrInternal, "photo storage is not configured"))
		return
	}
	if _, err := s.deps.Store.Question(qid); err != nil {
		failErr(c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		failErr(c, werrors.Photo(werrors.ErrPhotoInvalidType, "expected a multipart upload: "+err.Error()))
		return
	}
	files := form.File[photoField]
	if len(files) == 0 {
		failErr(c, werrors.Photo(werrors.ErrPhotoInvalidType, "no files in the \"photo\" field"))
		return
	}

	added := make([]audit.Photo, 0, len(files))
	for _, fh := range files {
		p, err := s.savePhoto(qid, fh)
		if err != nil {
			s.hub.Notify(NotifyError, err.Error())
			if len(added) == 0 {
				failErr(c, err)
				return
			}
			// Earlier files are already attached; report partial success.
			ok(c, http.StatusMultiStatus, gin.H{"photos": added, "error": err.Error()})
			return
		}
		added = append(added, p)
	}
	ok(c, http.StatusCreated, gin.H{"photos": added})
}

func (s *Server) savePhoto(qid string, fh *multipart.FileHeader) (audit.Photo, error) {
	f, err := fh.Open()
	if err != nil {
		return audit.Photo{}, werrors.IOWrap(err, werrors.ErrIOReadFailed, "failed to open upload").
			WithContext("file", fh.Filename)
	}
	defer f.Close()

	p, err := s.deps.Photos.Save(fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return audit.Photo{}, err
	}
	if err := s.deps.Store.AddPhoto(qid, p); err != nil {
		if rmErr := s.deps.Photos.Remove(p); rmErr != nil {
			s.logger.Warn("failed to remove orphaned photo", zap.String("id", p.ID), zap.Error(rmErr))
		}
		return audit.Photo{}, err
	}
	return p, nil
}

func (s *Server) deletePhoto(c *gin.Context) {
	p, err := s.deps.Store.RemovePhoto(c.Param("id"), c.Param("photoId"))
	if err != nil {
		failErr(c, err)
		return
	}
	if s.deps.Photos != nil {
		if err := s.deps.Photos.Remove(p); err != nil {
			s.logger.Warn("failed to remove photo files", zap.String("id", p.ID), zap.Error(err))
		}
	}
	ok(c, http.StatusOK, p)
}
