// Package pipeline produces client copies of the source forms: it copies
// each document, puts the selected logo at the recorded positions in the
// copy and renders the copy to PDF. Source documents are only ever read.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KevinLongeway/Safe2Day/internal/fsutil"
	"github.com/KevinLongeway/Safe2Day/internal/imaging"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/KevinLongeway/Safe2Day/internal/render"
	"github.com/KevinLongeway/Safe2Day/internal/replace"
	"github.com/KevinLongeway/Safe2Day/internal/scanner"
	"github.com/KevinLongeway/Safe2Day/internal/selection"
)

// Prerequisite errors. Run returns them before touching any file.
var (
	ErrNoSelection = errors.New("no usable logo selection")
	ErrNoPositions = errors.New("no logo position data")
	ErrNoSourceDir = errors.New("source folder not found")
	ErrNoDocuments = errors.New("no matching source documents")
	ErrSourceWrite = errors.New("output folder lies inside the source folder")
)

// ErrSourceChanged marks a document whose source bytes differ after it was
// processed.
var ErrSourceChanged = errors.New("source document changed during run")

// Options names the folders a run works with.
type Options struct {
	SourceDir string
	CopyDir   string
	PDFDir    string
	Prefix    string
}

// Pipeline runs one batch at a time.
type Pipeline struct {
	opts      Options
	positions *positions.Store
	selection *selection.Store
	engine    *replace.Engine
	renderer  render.Renderer
	log       *slog.Logger
}

func New(opts Options, pos *positions.Store, sel *selection.Store, engine *replace.Engine, renderer render.Renderer, log *slog.Logger) *Pipeline {
	if renderer == nil {
		renderer = render.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		opts:      opts,
		positions: pos,
		selection: sel,
		engine:    engine,
		renderer:  renderer,
		log:       log,
	}
}

// Options returns the folders the pipeline was built with.
func (p *Pipeline) Options() Options { return p.opts }

// batch is everything a run loads up front.
type batch struct {
	logo    *imaging.Image
	dataset *positions.Dataset
	docs    []string
}

func (p *Pipeline) prepare() (*batch, error) {
	sel, err := p.selection.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSelection, err)
	}
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSelection, err)
	}
	logo, err := imaging.Load(sel.LogoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSelection, err)
	}

	ds, err := p.positions.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPositions, err)
	}

	info, err := os.Stat(p.opts.SourceDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNoSourceDir, p.opts.SourceDir)
	}
	for _, out := range []string{p.opts.CopyDir, p.opts.PDFDir} {
		if fsutil.Within(out, p.opts.SourceDir) {
			return nil, fmt.Errorf("%w: %s", ErrSourceWrite, out)
		}
	}

	docs, err := scanner.ListDocuments(p.opts.SourceDir, p.opts.Prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSourceDir, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s*.docx in %s", ErrNoDocuments, p.opts.Prefix, p.opts.SourceDir)
	}
	return &batch{logo: logo, dataset: ds, docs: docs}, nil
}

// Run processes every source document in turn. A prerequisite failure is
// returned before any file is written. Per-document failures are recorded
// on the summary and do not stop the batch. Cancellation is honoured
// between documents; the summary so far is returned with the context error.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	b, err := p.prepare()
	if err != nil {
		p.log.Error("cannot start run", "error", err)
		return nil, err
	}
	for _, dir := range []string{p.opts.CopyDir, p.opts.PDFDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	sum := &Summary{
		Logo:      b.logo.Name,
		Found:     len(b.docs),
		CopyDir:   p.opts.CopyDir,
		PDFDir:    p.opts.PDFDir,
		StartedAt: time.Now(),
	}
	p.log.Info("run started", "logo", b.logo.Name, "documents", len(b.docs))

	w := newWorker(p.engine, p.renderer, p.log)
	for _, src := range b.docs {
		if err := ctx.Err(); err != nil {
			sum.finish()
			return sum, err
		}
		name := filepath.Base(src)
		records, ok := b.dataset.Get(name)
		if !ok {
			p.log.Warn("no position data for document", "doc", name)
		}
		res := w.process(ctx, src, filepath.Join(p.opts.CopyDir, name), p.opts.PDFDir, records, b.logo)
		sum.add(res)
	}
	sum.finish()
	p.log.Info("run finished",
		"found", sum.Found,
		"processed", sum.Processed,
		"replaced", sum.Replaced,
		"failed", sum.Failed,
	)
	return sum, nil
}
