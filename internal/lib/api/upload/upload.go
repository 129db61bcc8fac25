package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// MaxMemory bounds the in-memory part of multipart parsing; larger files
// spill to disk.
const MaxMemory = 16 << 20

// SaveTemp copies the named multipart file to a temporary path and returns
// it. A missing file is not an error: the path comes back empty and the
// caller decides whether the field was required.
func SaveTemp(r *http.Request, field string) (string, error) {
	const op = "upload.SaveTemp"

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer file.Close()

	dst, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return dst.Name(), nil
}

// Cleanup removes temp files created by SaveTemp; empty paths are skipped.
func Cleanup(paths ...string) {
	for _, p := range paths {
		if p != "" {
			os.Remove(p)
		}
	}
}
