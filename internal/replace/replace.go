// Package replace puts a new logo at previously recorded positions.
package replace

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/KevinLongeway/Safe2Day/internal/imaging"
	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
)

// Options sets the display width of the new logo per region.
type Options struct {
	HeaderWidth ooxml.Length
	FooterWidth ooxml.Length
}

// DefaultOptions is 2 inches in headers and 1.5 inches in footers.
func DefaultOptions() Options {
	return Options{
		HeaderWidth: ooxml.Inches(2.0),
		FooterWidth: ooxml.Inches(1.5),
	}
}

// Width returns the configured width for a region.
func (o Options) Width(r ooxml.Region) ooxml.Length {
	if r == ooxml.Footer {
		return o.FooterWidth
	}
	return o.HeaderWidth
}

// RecordError is a failure to apply one record.
type RecordError struct {
	Record positions.Record
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %v", e.Record, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Result counts what happened to a document's records.
type Result struct {
	Replaced int            `json:"replaced"`
	Skipped  int            `json:"skipped"`
	Failures []*RecordError `json:"-"`
}

// Failed is the number of records that errored.
func (r Result) Failed() int { return len(r.Failures) }

// Engine applies records to open documents.
type Engine struct {
	opts Options
	log  *slog.Logger
}

// NewEngine returns an engine. Zero widths fall back to the defaults.
func NewEngine(opts Options, log *slog.Logger) *Engine {
	def := DefaultOptions()
	if opts.HeaderWidth <= 0 {
		opts.HeaderWidth = def.HeaderWidth
	}
	if opts.FooterWidth <= 0 {
		opts.FooterWidth = def.FooterWidth
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{opts: opts, log: log}
}

// Options returns the effective widths.
func (e *Engine) Options() Options { return e.opts }

// Apply replaces the paragraph at every record with a single run holding
// img. Records that no longer resolve are skipped; a failing record is
// logged and the rest still run.
//
// Every paragraph is cleared before the picture is added, so several
// records naming the same paragraph leave exactly one logo there.
func (e *Engine) Apply(doc *ooxml.Document, name string, records []positions.Record, img *imaging.Image) Result {
	log := e.log.With("doc", name)
	var res Result
	if len(records) == 0 {
		return res
	}
	pic := img.Picture()
	for _, rec := range records {
		err := e.applyOne(doc, rec, pic)
		switch {
		case err == nil:
			res.Replaced++
			log.Debug("logo replaced", "at", rec.String())
		case errors.Is(err, ooxml.ErrNotFound):
			res.Skipped++
			log.Warn("stale position skipped", "at", rec.String(), "error", err)
		default:
			res.Failures = append(res.Failures, &RecordError{Record: rec, Err: err})
			log.Error("replace failed", "at", rec.String(), "error", err)
		}
	}
	log.Info("applied", "replaced", res.Replaced, "skipped", res.Skipped, "failed", res.Failed())
	return res
}

func (e *Engine) applyOne(doc *ooxml.Document, rec positions.Record, pic *ooxml.Picture) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if !rec.Region.Valid() {
		return fmt.Errorf("region %q: %w", rec.Region, ooxml.ErrNotFound)
	}
	para, err := doc.Paragraph(rec.Region, rec.SectionIndex, rec.ParagraphIndex)
	if err != nil {
		return err
	}
	para.RemoveDrawings()
	para.Clear()
	if _, err := para.AddPicture(pic, e.opts.Width(rec.Region)); err != nil {
		return fmt.Errorf("add picture: %w", err)
	}
	if rec.Alignment != nil {
		para.SetAlignment(*rec.Alignment)
	}
	return nil
}
