package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/trustfuse/internal/mapper"
	"github.com/ppiankov/trustfuse/internal/request"
)

// StdinPath names standard input as a request source
const StdinPath = "-"

// Loader reads fusion request documents from files or standard input
type Loader struct {
	maxBytes int64
	stdin    io.Reader
}

// NewLoader creates a loader that refuses documents larger than maxBytes
func NewLoader(maxBytes int64) *Loader {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &Loader{
		maxBytes: maxBytes,
		stdin:    os.Stdin,
	}
}

// LoadResult contains a decoded request and where it came from
type LoadResult struct {
	Document *request.Document
	Path     string
	Subject  string // Document name, or one derived from the file name
	Format   mapper.Format
}

// Load reads a request from path. Standard input is parsed as YAML (a
// superset of JSON) unless format is given.
func (l *Loader) Load(ctx context.Context, path string, format mapper.Format) (*LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var r io.Reader
	if path == StdinPath {
		r = l.stdin
		if format == "" {
			format = mapper.FormatYAML
		}
	} else {
		if format == "" {
			detected, err := mapper.FormatForPath(path)
			if err != nil {
				return nil, err
			}
			format = detected
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open request: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	// Read one byte past the limit to detect oversized documents
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("request %s exceeds %d bytes", path, l.maxBytes)
	}

	doc, err := request.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode request %s: %w", path, err)
	}

	subject := doc.Name
	if subject == "" {
		subject = extractSubject(path)
	}

	return &LoadResult{
		Document: doc,
		Path:     path,
		Subject:  subject,
		Format:   format,
	}, nil
}

// extractSubject derives a human-readable subject from the file name
func extractSubject(path string) string {
	if path == StdinPath {
		return "stdin"
	}

	base := filepath.Base(path)

	// Remove file extensions
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}

	// De-slugify: replace underscores and hyphens with spaces
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")

	return base
}
