package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/KevinLongeway/Safe2Day/internal/fsutil"
	"github.com/KevinLongeway/Safe2Day/internal/imaging"
	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/KevinLongeway/Safe2Day/internal/render"
	"github.com/KevinLongeway/Safe2Day/internal/replace"
)

// worker takes one document through copy, replace, save and render.
type worker struct {
	engine   *replace.Engine
	renderer render.Renderer
	log      *slog.Logger
}

func newWorker(engine *replace.Engine, renderer render.Renderer, log *slog.Logger) *worker {
	return &worker{engine: engine, renderer: renderer, log: log}
}

func (w *worker) process(ctx context.Context, src, dst, pdfDir string, records []positions.Record, logo *imaging.Image) DocumentResult {
	name := filepath.Base(src)
	log := w.log.With("doc", name)
	res := DocumentResult{Name: name, Records: len(records)}

	fail := func(phase string, err error) DocumentResult {
		log.Error("document failed", "phase", phase, "error", err)
		res.Status = StatusFailed
		res.Phase = phase
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", phase, err))
		return res
	}

	srcHash, err := fileHash(src)
	if err != nil {
		return fail("copying", err)
	}
	res.SourceHash = srcHash

	// Phase 1: copy. Nothing below touches src again.
	if err := fsutil.CopyFile(src, dst); err != nil {
		return fail("copying", err)
	}
	res.CopyPath = dst

	// Phase 2: replace on the copy.
	if len(records) > 0 {
		doc, err := ooxml.Open(dst)
		if err != nil {
			return fail("opening", err)
		}
		r := w.engine.Apply(doc, name, records, logo)
		res.Replaced = r.Replaced
		res.Skipped = r.Skipped
		res.Failed = r.Failed()
		for _, f := range r.Failures {
			res.Errors = append(res.Errors, f.Error())
		}

		// Phase 3: save.
		data, err := doc.Bytes()
		if err != nil {
			return fail("saving", err)
		}
		mode := os.FileMode(0o644)
		if info, err := os.Stat(dst); err == nil {
			mode = info.Mode().Perm()
		}
		if err := fsutil.WriteFileAtomic(dst, data, mode); err != nil {
			return fail("saving", err)
		}
	} else {
		log.Info("no logo positions, copy left as is")
	}

	// Phase 4: render.
	pdf, err := w.renderer.Render(ctx, dst, pdfDir)
	if err != nil {
		return fail("rendering", err)
	}
	res.PDFPath = pdf

	h, err := fileHash(src)
	if err != nil {
		return fail("verifying", err)
	}
	if h != srcHash {
		return fail("verifying", ErrSourceChanged)
	}

	res.Phase = "done"
	res.Status = StatusCompleted
	if res.Failed > 0 {
		res.Status = StatusPartial
	}
	log.Info("document processed", "replaced", res.Replaced, "skipped", res.Skipped, "pdf", pdf)
	return res
}

func fileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	return ContentHashHex(data), nil
}
