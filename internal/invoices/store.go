package invoices

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	pkgerrors "github.com/kq-050/ArtmarketPlace/pkg/errors"
)

// Store persists rendered invoices on local disk under a deterministic path,
// so a redelivered event overwrites the same file instead of accumulating
// duplicates.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns where the invoice for orderID lives, whether or not it exists.
func (s *Store) Path(orderID uuid.UUID) string {
	return filepath.Join(s.dir, fmt.Sprintf("invoice-%s.pdf", orderID))
}

// Save writes the invoice atomically: a temp file in the same directory is
// renamed over the final path, so readers never observe a partial PDF.
func (s *Store) Save(orderID uuid.UUID, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "refusing to store empty invoice")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice directory")
	}

	tmp, err := os.CreateTemp(s.dir, "invoice-*.pdf.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create invoice temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write invoice")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close invoice temp file")
	}

	final := s.Path(orderID)
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize invoice")
	}
	return final, nil
}
