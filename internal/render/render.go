// Package render turns finished .docx copies into PDFs.
package render

import (
	"context"
	"path/filepath"
	"strings"
)

// Renderer converts one document into a PDF inside outDir and returns the
// PDF's path.
type Renderer interface {
	Render(ctx context.Context, docPath, outDir string) (string, error)
}

// Noop skips rendering. It returns an empty path.
type Noop struct{}

func (Noop) Render(ctx context.Context, docPath, outDir string) (string, error) {
	return "", ctx.Err()
}

// PDFName is the file name a converter gives the PDF of docPath.
func PDFName(docPath string) string {
	base := filepath.Base(docPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".pdf"
}
