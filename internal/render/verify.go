package render

import (
	"errors"
	"fmt"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrEmptyPDF is returned for a PDF without pages.
var ErrEmptyPDF = errors.New("pdf has no pages")

// Verify opens a rendered PDF and returns its page count.
func Verify(path string) (int, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := reader.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("%s: %w", path, ErrEmptyPDF)
	}
	return n, nil
}
