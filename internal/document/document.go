package document

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"licitaflow/internal/models"
	"licitaflow/internal/util"

	"github.com/ledongthuc/pdf"
)

// Open reads a document from disk, refusing files over maxBytes (0 = no limit).
func Open(path string, maxBytes int64) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: open document: %v", util.ErrValidation, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: stat document: %v", util.ErrValidation, err)
	}
	if st.IsDir() {
		return models.Document{}, fmt.Errorf("%w: %s is a directory", util.ErrValidation, path)
	}
	if maxBytes > 0 && st.Size() > maxBytes {
		return models.Document{}, tooLarge(st.Size(), maxBytes)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return models.Document{}, fmt.Errorf("read document: %w", err)
	}
	return FromBytes(filepath.Base(path), data, maxBytes)
}

// FromBytes builds a Document from uploaded content. The page count is best
// effort: bytes that do not parse as PDF are still submitted with Pages 0.
func FromBytes(name string, data []byte, maxBytes int64) (models.Document, error) {
	name = util.BaseName(name)
	if name == "" {
		return models.Document{}, util.ErrNoDocument
	}
	size := int64(len(data))
	if maxBytes > 0 && size > maxBytes {
		return models.Document{}, tooLarge(size, maxBytes)
	}
	doc := models.Document{
		Name:   name,
		Data:   data,
		Size:   size,
		SHA256: util.SHA256Hex(data),
	}
	if IsPDF(name, data) {
		pages, err := CountPages(data)
		if err != nil {
			slog.Default().With("component", "document").Warn("pdf page count failed", "file", name, "error", err)
		}
		doc.Pages = pages
	}
	return doc, nil
}

func IsPDF(name string, data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-")) || strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func CountPages(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pdf: %w", err)
	}
	return r.NumPage(), nil
}

func tooLarge(size, limit int64) error {
	return fmt.Errorf("%w: document is %d bytes, limit is %d", util.ErrValidation, size, limit)
}
