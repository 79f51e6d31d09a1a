package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Accepted dataset formats.
var (
	acceptedExtensions   = []string{".csv", ".json"}
	acceptedContentTypes = []string{"text/csv", "application/json", "application/vnd.ms-excel"}
)

// File is a dataset staged for upload. Open is called once per upload
// attempt, so a failed upload can be retried with the same File.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// ValidationError is a local input error that never reaches the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that f looks like a CSV or JSON dataset. A file passes if
// either its extension or its declared content type is accepted.
func Validate(f File) error {
	if f.Name == "" {
		return &ValidationError{Field: "file", Message: "no file selected"}
	}
	if f.Open == nil {
		return &ValidationError{Field: "file", Message: "file cannot be read"}
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	for _, a := range acceptedExtensions {
		if ext == a {
			return nil
		}
	}
	ct := baseType(f.ContentType)
	for _, a := range acceptedContentTypes {
		if ct == a {
			return nil
		}
	}
	return &ValidationError{Field: "file", Message: "Please select a CSV or JSON file"}
}

// baseType strips parameters such as "; charset=utf-8".
func baseType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// DetectContentType sniffs the MIME type of r. Names ending in .csv are
// reported as text/csv when the content is plain text, since CSV has no
// magic bytes of its own.
func DetectContentType(name string, r io.Reader) (string, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("upload: detect %s: %w", name, err)
	}
	if strings.EqualFold(filepath.Ext(name), ".csv") && m.Is("text/plain") {
		return "text/csv", nil
	}
	return baseType(m.String()), nil
}

// OpenPath stages a file from disk, sniffing its content type.
func OpenPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("upload: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("upload: %s is a directory", path)
	}
	fh, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("upload: %w", err)
	}
	ct, err := DetectContentType(path, fh)
	fh.Close()
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: ct,
		Size:        info.Size(),
		Open:        func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// BytesFile stages an in-memory file, e.g. a multipart form upload.
func BytesFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
