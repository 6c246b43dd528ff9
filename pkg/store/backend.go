package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/r3d91ll/gmpaudit/pkg/audit"
	werrors "github.com/r3d91ll/gmpaudit/pkg/errors"
	"github.com/r3d91ll/gmpaudit/pkg/secure"
)

// StorageKey names the persisted form.
const StorageKey = "gmp-audit-form"

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = werrors.New(werrors.ErrStorageNotFound, werrors.CategoryStorage, "no saved audit form")

// Backend persists one form.
type Backend interface {
	Name() string
	Load(ctx context.Context) (*audit.Form, error)
	Save(ctx context.Context, f *audit.Form) error
	Clear(ctx context.Context) error
}

// -----------------------------------------------------------------------------
// Sealing
// -----------------------------------------------------------------------------

// sealForm returns a copy of f with sensitive company fields sealed.
func sealForm(f *audit.Form, sealer *secure.Sealer) (*audit.Form, error) {
	out := f.Clone()
	if sealer == nil {
		return out, nil
	}
	for _, field := range audit.SensitiveFields {
		v, _ := out.CompanyInfo.Get(field)
		sealed, err := sealer.Seal(v)
		if err != nil {
			return nil, werrors.StorageWrap(err, werrors.ErrStorageWriteFailed, "failed to seal company information")
		}
		_ = out.CompanyInfo.Set(field, sealed)
	}
	return out, nil
}

// openForm opens sealed company fields of f in place.
func openForm(f *audit.Form, sealer *secure.Sealer) error {
	for _, field := range audit.SensitiveFields {
		v, _ := f.CompanyInfo.Get(field)
		if !secure.IsSealed(v) {
			continue
		}
		if sealer == nil {
			return werrors.Storage(werrors.ErrStorageDecryptFailed, "saved form is encrypted but no key is configured").
				WithContext("field", field)
		}
		plain, err := sealer.Open(v)
		if err != nil {
			return werrors.StorageWrap(err, werrors.ErrStorageDecryptFailed, "failed to decrypt company information").
				WithContext("field", field)
		}
		_ = f.CompanyInfo.Set(field, plain)
	}
	return nil
}

func encodeForm(f *audit.Form, sealer *secure.Sealer) ([]byte, error) {
	sealed, err := sealForm(f, sealer)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(sealed, "", "  ")
	if err != nil {
		return nil, werrors.StorageWrap(err, werrors.ErrStorageWriteFailed, "failed to encode form")
	}
	return data, nil
}

func decodeForm(data []byte, sealer *secure.Sealer) (*audit.Form, error) {
	var f audit.Form
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, werrors.StorageWrap(err, werrors.ErrStorageCorrupt, "saved form is not valid JSON")
	}
	if err := openForm(&f, sealer); err != nil {
		return nil, err
	}
	return &f, nil
}

// -----------------------------------------------------------------------------
// File backend
// -----------------------------------------------------------------------------

// FileBackend stores the form as a JSON file.
type FileBackend struct {
	path   string
	sealer *secure.Sealer

	mu       sync.Mutex
	lastHash [sha256.Size]byte
}

// NewFileBackend stores the form in dir/gmp-audit-form.json. A non-nil
// sealer encrypts sensitive company fields.
func NewFileBackend(dir string, sealer *secure.Sealer) *FileBackend {
	return &FileBackend{
		path:   filepath.Join(dir, StorageKey+".json"),
		sealer: sealer,
	}
}

// Name implements Backend.
func (b *FileBackend) Name() string { return "file" }

// Path returns the file path.
func (b *FileBackend) Path() string { return b.path }

// Load implements Backend.
func (b *FileBackend) Load(ctx context.Context) (*audit.Form, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, werrors.StorageWrap(err, werrors.ErrStorageReadFailed, "failed to read saved form").
			WithContext("path", b.path)
	}
	b.remember(data)
	return decodeForm(data, b.sealer)
}

// Save implements Backend. The file is replaced atomically.
func (b *FileBackend) Save(ctx context.Context, f *audit.Form) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeForm(f, b.sealer)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(b.path, data, 0600); err != nil {
		return werrors.StorageWrap(err, werrors.ErrStorageWriteFailed, "failed to write form").
			WithContext("path", b.path)
	}
	b.remember(data)
	return nil
}

// Clear implements Backend.
func (b *FileBackend) Clear(ctx context.Context) error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return werrors.StorageWrap(err, werrors.ErrStorageWriteFailed, "failed to remove saved form").
			WithContext("path", b.path)
	}
	b.remember(nil)
	return nil
}

// ChangedOnDisk reports whether the file differs from what this backend last
// read or wrote.
func (b *FileBackend) ChangedOnDisk() bool {
	data, err := os.ReadFile(b.path)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(data)
	b.mu.Lock()
	defer b.mu.Unlock()
	return !bytes.Equal(sum[:], b.lastHash[:])
}

func (b *FileBackend) remember(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if data == nil {
		b.lastHash = [sha256.Size]byte{}
		return
	}
	b.lastHash = sha256.Sum256(data)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
