package photo

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/metrics"
)

// Store writes processed photos and thumbnails under one directory.
type Store struct {
	dir    string
	opts   Options
	logger *zap.Logger
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string, opts Options, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, opts: opts.withDefaults(), logger: logger}
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// Save validates, compresses and writes one upload. The returned metadata
// points at the stored image and its thumbnail.
func (s *Store) Save(name, contentType string, r io.Reader) (audit.Photo, error) {
	p, err := s.save(name, contentType, r)
	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		s.logger.Warn("photo rejected", zap.String("file", name), zap.Error(err))
	}
	metrics.PhotosProcessedTotal.WithLabelValues(status).Inc()
	return p, err
}

func (s *Store) save(name, contentType string, r io.Reader) (audit.Photo, error) {
	if err := Validate(name, contentType, 0); err != nil {
		return audit.Photo{}, err
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return audit.Photo{}, werrors.IOWrap(err, werrors.ErrIOReadFailed, "failed to read photo").
			WithContext("file", name)
	}
	if err := Validate(name, contentType, int64(len(data))); err != nil {
		return audit.Photo{}, err
	}

	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return audit.Photo{}, err
	}
	res, err := compressImage(src, s.opts)
	if err != nil {
		return audit.Photo{}, err
	}
	thumb, err := thumbnailImage(src, s.opts.ThumbnailSize)
	if err != nil {
		return audit.Photo{}, err
	}

	p := NewMetadata(filepath.Base(name), res)
	p.Path = filepath.Join(s.dir, p.ID+".jpg")
	p.ThumbnailPath = filepath.Join(s.dir, p.ID+"_thumb.jpg")

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return audit.Photo{}, werrors.IOWrap(err, werrors.ErrIOWriteFailed, "failed to create photo directory").
			WithContext("dir", s.dir)
	}
	if err := os.WriteFile(p.Path, res.Data, 0644); err != nil {
		return audit.Photo{}, werrors.IOWrap(err, werrors.ErrIOWriteFailed, "failed to write photo").
			WithContext("path", p.Path)
	}
	if err := os.WriteFile(p.ThumbnailPath, thumb, 0644); err != nil {
		os.Remove(p.Path)
		return audit.Photo{}, werrors.IOWrap(err, werrors.ErrIOWriteFailed, "failed to write thumbnail").
			WithContext("path", p.ThumbnailPath)
	}

	s.logger.Debug("photo stored",
		zap.String("id", p.ID),
		zap.String("file", p.FileName),
		zap.Int64("bytes", p.SizeBytes))
	return p, nil
}

// SaveFile stores the photo at path, taking the content type from its
// extension.
func (s *Store) SaveFile(path string) (audit.Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return audit.Photo{}, werrors.IOWrap(err, werrors.ErrIOReadFailed, "failed to open photo").
			WithContext("path", path)
	}
	defer f.Close()
	return s.Save(filepath.Base(path), ContentTypeFor(path), f)
}

// Remove deletes the files behind p. Missing files are not an error.
func (s *Store) Remove(p audit.Photo) error {
	for _, path := range []string{p.Path, p.ThumbnailPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return werrors.IOWrap(err, werrors.ErrIOWriteFailed, "failed to remove photo file").
				WithContext("path", path)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Batch compression
// -----------------------------------------------------------------------------

// Input is one image for BatchCompress.
type Input struct {
	Name string
	Data []byte
}

// Output is the outcome for one Input. Err is set when that image failed;
// the other images are still processed.
type Output struct {
	Name   string
	Result Result
	Err    error
}

// BatchCompress compresses inputs concurrently and calls progress, if set,
// after each image finishes. Outputs keep the order of inputs. The returned
// error is non-nil only when ctx is cancelled.
func BatchCompress(ctx context.Context, inputs []Input, opts Options, progress func(done, total int)) ([]Output, error) {
	opts = opts.withDefaults()
	out := make([]Output, len(inputs))
	err := runBatch(ctx, len(inputs), progress, func(i int) {
		in := inputs[i]
		res, err := Compress(bytes.NewReader(in.Data), opts)
		out[i] = Output{Name: in.Name, Result: res, Err: err}

		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusFailure
		}
		metrics.PhotosProcessedTotal.WithLabelValues(status).Inc()
	})
	return out, err
}

// Saved is the outcome of storing one file with SaveFiles.
type Saved struct {
	Path  string
	Photo audit.Photo
	Err   error
}

// SaveFiles stores the photos at paths concurrently, calling progress, if
// set, after each file. Results keep the order of paths and a failed file
// does not stop the others. The returned error is non-nil only when ctx is
// cancelled.
func (s *Store) SaveFiles(ctx context.Context, paths []string, progress func(done, total int)) ([]Saved, error) {
	out := make([]Saved, len(paths))
	err := runBatch(ctx, len(paths), progress, func(i int) {
		p, err := s.SaveFile(paths[i])
		out[i] = Saved{Path: paths[i], Photo: p, Err: err}
	})
	return out, err
}

// runBatch calls fn for 0..n-1 on at most NumCPU goroutines.
func runBatch(ctx context.Context, n int, progress func(done, total int), fn func(i int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	done := 0

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(i)
			if progress != nil {
				mu.Lock()
				done++
				progress(done, n)
				mu.Unlock()
			}
			return nil
		})
	}
	return g.Wait()
}
