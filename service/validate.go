package service

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// MaxFiles is the per-submission attachment ceiling.
	MaxFiles = 10
	// MaxFileSize is the per-file size ceiling.
	MaxFileSize = 100 * 1024 * 1024
)

var allowedExtensions = []string{
	".stl", ".step", ".iges", ".igs", ".obj", ".3mf",
	".pdf", ".zip", ".jpg", ".jpeg", ".png", ".webp", ".svg",
}

// Upload describes one submitted file. Open defers reading the payload until
// the orchestrator streams it to storage.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ValidateFiles enforces the attachment constraints: count ceiling, extension
// allow-list, size ceiling. The first violation rejects the whole batch,
// naming the offending file.
func ValidateFiles(files []Upload) error {
	if len(files) > MaxFiles {
		return fmt.Errorf("too many files (max %d)", MaxFiles)
	}
	for _, f := range files {
		lower := strings.ToLower(f.Name)
		ok := false
		for _, ext := range allowedExtensions {
			if strings.HasSuffix(lower, ext) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("unsupported file type: %s", f.Name)
		}
		if f.Size > MaxFileSize {
			return fmt.Errorf("file too large: %s > 100MB", f.Name)
		}
	}
	return nil
}

// NormalizeUploads reduces filenames to a safe base name, substitutes a
// placeholder for empty names, and de-duplicates names colliding within the
// submission by suffixing an index before the extension.
func NormalizeUploads(files []Upload) []Upload {
	seen := make(map[string]bool, len(files))
	out := make([]Upload, len(files))
	for i, f := range files {
		name := sanitizeFilename(f.Name)
		if seen[name] {
			ext := filepath.Ext(name)
			base := strings.TrimSuffix(name, ext)
			for n := 1; ; n++ {
				candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
				if !seen[candidate] {
					name = candidate
					break
				}
			}
		}
		seen[name] = true
		f.Name = name
		if f.ContentType == "" {
			f.ContentType = "application/octet-stream"
		}
		out[i] = f
	}
	return out
}

// sanitizeFilename strips any path components from a client-supplied name.
// Browsers may send full paths, and a crafted name must not be able to
// address keys outside the submission's ref scope.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "" || name == "." || name == ".." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}

// normalizeField trims whitespace; absent values become empty strings.
func normalizeField(s string) string {
	return strings.TrimSpace(s)
}

// parseQty converts the raw quantity field to an optional integer.
func parseQty(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}
