// Package scanner finds logos in the headers and footers of .docx files and
// records where they are.
//
// A logo is a run that directly carries a w:drawing. Only the direct
// paragraph children of each default header and footer are inspected, and
// only the direct runs of those paragraphs. Pictures inside tables, text
// boxes, hyperlinks, content controls or mc:AlternateContent wrappers, as
// well as legacy VML pictures (w:pict), are not recognised.
package scanner

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
)

// ErrNoDocuments means a folder holds no document matching the prefix.
var ErrNoDocuments = errors.New("no matching documents")

// Detector decides whether a run is a logo.
type Detector interface {
	IsLogo(run ooxml.Run) bool
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(run ooxml.Run) bool

func (f DetectorFunc) IsLogo(run ooxml.Run) bool { return f(run) }

// DrawingDetector treats any run holding a w:drawing as a logo.
var DrawingDetector Detector = DetectorFunc(ooxml.Run.HasDrawing)

// Scanner walks documents with a Detector.
type Scanner struct {
	detector Detector
	log      *slog.Logger
}

// New returns a scanner. A nil detector means DrawingDetector.
func New(detector Detector, log *slog.Logger) *Scanner {
	if detector == nil {
		detector = DrawingDetector
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{detector: detector, log: log}
}

// Scan returns one record per logo run, in document order: sections first,
// then header before footer, then paragraphs, then runs. A region that
// cannot be read is skipped.
func (s *Scanner) Scan(doc *ooxml.Document, name string) []positions.Record {
	log := s.log.With("doc", name)
	records := []positions.Record{}

	sections, err := doc.Sections()
	if err != nil {
		log.Warn("cannot read sections", "error", err)
		return records
	}
	for _, sec := range sections {
		for _, region := range ooxml.Regions {
			hf, err := sec.Region(region)
			if errors.Is(err, ooxml.ErrNotFound) {
				continue
			}
			if err != nil {
				log.Warn("cannot read region", "section", sec.Index(), "region", region, "error", err)
				continue
			}
			for pi, para := range hf.Paragraphs() {
				for ri, run := range para.Runs() {
					if !s.detector.IsLogo(run) {
						continue
					}
					rec := positions.Record{
						Region:         region,
						SectionIndex:   sec.Index(),
						ParagraphIndex: pi,
						RunIndex:       ri,
						Alignment:      para.Alignment(),
					}
					log.Debug("logo found", "at", rec.String(), "part", hf.Part())
					records = append(records, rec)
				}
			}
		}
	}
	log.Info("scanned", "logos", len(records))
	return records
}

// ScanFile opens path read-only and scans it.
func (s *Scanner) ScanFile(path string) ([]positions.Record, error) {
	doc, err := ooxml.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return s.Scan(doc, filepath.Base(path)), nil
}

// ScanFolder scans every matching document in dir. A document that cannot
// be opened still gets an entry, with no records. A folder without any
// matching document is ErrNoDocuments.
func (s *Scanner) ScanFolder(dir, prefix string) (*positions.Dataset, error) {
	paths, err := ListDocuments(dir, prefix)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s*.docx in %s", ErrNoDocuments, prefix, dir)
	}
	ds := positions.NewDataset()
	for _, p := range paths {
		name := filepath.Base(p)
		recs, err := s.ScanFile(p)
		if err != nil {
			s.log.Warn("skipping unreadable document", "doc", name, "error", err)
			recs = nil
		}
		ds.Set(name, recs)
	}
	s.log.Info("scan complete", "documents", ds.Len(), "logos", ds.Total())
	return ds, nil
}

// ListDocuments returns the .docx files in dir whose names start with
// prefix, sorted by name. Word lock files (~$...) are ignored.
func ListDocuments(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read document dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "~$") {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".docx") || !strings.HasPrefix(name, prefix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}
