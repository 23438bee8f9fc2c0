package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/KevinLongeway/Safe2Day/internal/docxtest"
	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
	"github.com/KevinLongeway/Safe2Day/internal/render"
	"github.com/KevinLongeway/Safe2Day/internal/replace"
	"github.com/KevinLongeway/Safe2Day/internal/scanner"
	"github.com/KevinLongeway/Safe2Day/internal/selection"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

type fakeRenderer struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
	// after runs once the PDF is written.
	after func(docPath string)
}

func (f *fakeRenderer) Render(ctx context.Context, docPath, outDir string) (string, error) {
	name := filepath.Base(docPath)
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.fail[name] {
		return "", errors.New("converter exited with status 1")
	}
	out := filepath.Join(outDir, render.PDFName(docPath))
	if err := os.WriteFile(out, []byte("%PDF-1.4\n"), 0o644); err != nil {
		return "", err
	}
	if f.after != nil {
		f.after(docPath)
	}
	return out, nil
}

type fixture struct {
	root     string
	srcDir   string
	opts     Options
	pos      *positions.Store
	sel      *selection.Store
	renderer *fakeRenderer
	sources  map[string][]byte
}

// newFixture lays out a root with two scanned source forms, one unrelated
// document and a selected logo.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root:   root,
		srcDir: filepath.Join(root, "Forms"),
		opts: Options{
			SourceDir: filepath.Join(root, "Forms"),
			CopyDir:   filepath.Join(root, "Client_Forms"),
			PDFDir:    filepath.Join(root, "PDFs"),
			Prefix:    "S2D",
		},
		pos:      positions.NewStore(filepath.Join(root, "logo_positions.json")),
		sel:      selection.NewStore(filepath.Join(root, "selected_logo.json")),
		renderer: &fakeRenderer{fail: map[string]bool{}},
		sources:  map[string][]byte{},
	}
	logos := filepath.Join(root, "Client_Logos")
	for _, dir := range []string{f.opts.SourceDir, logos} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	docxtest.HeaderFooter().Write(t, f.opts.SourceDir, "S2D A.docx")
	docxtest.Doc{Sections: []docxtest.Section{{
		Header: []string{docxtest.Para("left", docxtest.TextRun("Safe2Day "), docxtest.DrawingRun(1))},
	}}}.Write(t, f.opts.SourceDir, "S2D B.docx")
	docxtest.HeaderFooter().Write(t, f.opts.SourceDir, "Other.docx")
	for _, name := range []string{"S2D A.docx", "S2D B.docx", "Other.docx"} {
		data, err := os.ReadFile(filepath.Join(f.opts.SourceDir, name))
		if err != nil {
			t.Fatal(err)
		}
		f.sources[name] = data
	}

	ds, err := scanner.New(nil, quietLogger()).ScanFolder(f.opts.SourceDir, f.opts.Prefix)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.pos.Save(ds); err != nil {
		t.Fatal(err)
	}
	logo := docxtest.WritePNG(t, logos, "acme.png", 40, 10)
	if err := f.sel.Save(selection.New(logo)); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) pipeline() *Pipeline {
	return New(f.opts, f.pos, f.sel, replace.NewEngine(replace.Options{}, quietLogger()), f.renderer, quietLogger())
}

func (f *fixture) assertSourcesUnchanged(t *testing.T) {
	t.Helper()
	for name, want := range f.sources {
		got, err := os.ReadFile(filepath.Join(f.srcDir, name))
		if err != nil {
			t.Fatalf("read source %s: %v", name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("source %s was modified", name)
		}
	}
}

func TestRun_ProducesCopiesAndPDFs(t *testing.T) {
	f := newFixture(t)
	sum, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sum.Found != 2 || sum.Processed != 2 || sum.Failed != 0 {
		t.Errorf("found/processed/failed = %d/%d/%d, want 2/2/0", sum.Found, sum.Processed, sum.Failed)
	}
	if sum.Replaced != 3 || sum.Skipped != 0 {
		t.Errorf("replaced/skipped = %d/%d, want 3/0", sum.Replaced, sum.Skipped)
	}
	if sum.Logo != "acme.png" {
		t.Errorf("Logo = %q", sum.Logo)
	}
	for _, d := range sum.Documents {
		if d.Status != StatusCompleted || d.SourceHash == "" || len(d.Errors) != 0 {
			t.Errorf("document %s: %+v", d.Name, d)
		}
		if _, err := os.Stat(d.PDFPath); err != nil {
			t.Errorf("pdf for %s: %v", d.Name, err)
		}
	}

	f.assertSourcesUnchanged(t)
	if _, err := os.Stat(filepath.Join(f.opts.CopyDir, "Other.docx")); !os.IsNotExist(err) {
		t.Error("document without the prefix should not be copied")
	}

	doc, err := ooxml.Open(filepath.Join(f.opts.CopyDir, "S2D B.docx"))
	if err != nil {
		t.Fatalf("open copy: %v", err)
	}
	p, err := doc.Paragraph(ooxml.Header, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	runs := p.Runs()
	if len(runs) != 1 || !runs[0].HasDrawing() {
		t.Errorf("expected the paragraph to hold only the new logo, got %d runs", len(runs))
	}
	if a := p.Alignment(); a == nil || *a != ooxml.AlignLeft {
		t.Errorf("alignment not preserved: %v", a)
	}
}

func TestRun_Prerequisites(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture)
		want  error
	}{
		{"no selection", func(t *testing.T, f *fixture) {
			os.Remove(f.sel.Path())
		}, ErrNoSelection},
		{"selected logo deleted", func(t *testing.T, f *fixture) {
			os.Remove(filepath.Join(f.root, "Client_Logos", "acme.png"))
		}, ErrNoSelection},
		{"no positions", func(t *testing.T, f *fixture) {
			os.Remove(f.pos.Path())
		}, ErrNoPositions},
		{"no source dir", func(t *testing.T, f *fixture) {
			f.opts.SourceDir = filepath.Join(f.root, "Missing")
		}, ErrNoSourceDir},
		{"copy dir inside source", func(t *testing.T, f *fixture) {
			f.opts.CopyDir = filepath.Join(f.opts.SourceDir, "out")
		}, ErrSourceWrite},
		{"pdf dir is source", func(t *testing.T, f *fixture) {
			f.opts.PDFDir = f.opts.SourceDir
		}, ErrSourceWrite},
		{"no matching documents", func(t *testing.T, f *fixture) {
			f.opts.Prefix = "ZZZ"
		}, ErrNoDocuments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(t, f)
			sum, err := f.pipeline().Run(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if sum != nil {
				t.Errorf("expected no summary, got %+v", sum)
			}
			if len(f.renderer.calls) != 0 {
				t.Errorf("renderer called %d times", len(f.renderer.calls))
			}
			if _, err := os.Stat(filepath.Join(f.root, "Client_Forms")); !os.IsNotExist(err) {
				t.Error("output folder created despite prerequisite failure")
			}
			f.assertSourcesUnchanged(t)
		})
	}
}

func TestRun_RenderFailureIsolated(t *testing.T) {
	f := newFixture(t)
	f.renderer.fail["S2D A.docx"] = true

	sum, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 1 || sum.Failed != 1 {
		t.Fatalf("processed/failed = %d/%d, want 1/1", sum.Processed, sum.Failed)
	}
	a, b := sum.Documents[0], sum.Documents[1]
	if a.Status != StatusFailed || a.Phase != "rendering" || len(a.Errors) != 1 {
		t.Errorf("failed document: %+v", a)
	}
	if a.CopyPath == "" {
		t.Error("copy should exist even though rendering failed")
	}
	if b.Status != StatusCompleted {
		t.Errorf("second document should still complete: %+v", b)
	}
	f.assertSourcesUnchanged(t)
}

func TestRun_StalePositionsSkipped(t *testing.T) {
	f := newFixture(t)
	ds, err := f.pos.Load()
	if err != nil {
		t.Fatal(err)
	}
	ds.Set("S2D B.docx", []positions.Record{
		{Region: ooxml.Header, SectionIndex: 0, ParagraphIndex: 0, RunIndex: 1},
		{Region: ooxml.Footer, SectionIndex: 0, ParagraphIndex: 0, RunIndex: 0},
		{Region: ooxml.Header, SectionIndex: 4, ParagraphIndex: 0, RunIndex: 0},
	})
	if err := f.pos.Save(ds); err != nil {
		t.Fatal(err)
	}

	sum, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b := sum.Documents[1]
	if b.Replaced != 1 || b.Skipped != 2 || b.Status != StatusCompleted {
		t.Errorf("S2D B.docx: %+v", b)
	}
}

func TestRun_DocumentWithoutPositionsCopiedAsIs(t *testing.T) {
	f := newFixture(t)
	ds := positions.NewDataset()
	ds.Set("S2D A.docx", nil)
	if err := f.pos.Save(ds); err != nil {
		t.Fatal(err)
	}

	sum, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 2 || sum.Replaced != 0 {
		t.Errorf("processed/replaced = %d/%d, want 2/0", sum.Processed, sum.Replaced)
	}
	for _, name := range []string{"S2D A.docx", "S2D B.docx"} {
		got, err := os.ReadFile(filepath.Join(f.opts.CopyDir, name))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, f.sources[name]) {
			t.Errorf("%s: copy without positions should match the source", name)
		}
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := f.pipeline().Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if sum == nil || len(sum.Documents) != 0 || sum.Found != 2 {
		t.Errorf("expected an empty partial summary, got %+v", sum)
	}
	f.assertSourcesUnchanged(t)
}

func TestRun_RerunOverwritesCopies(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline()
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(filepath.Join(f.opts.CopyDir, "S2D A.docx"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(filepath.Join(f.opts.CopyDir, "S2D A.docx"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("a second run from the same sources should produce identical copies")
	}
}

func TestRun_SymlinkedCopyDirRefused(t *testing.T) {
	f := newFixture(t)
	if err := os.Symlink(f.opts.SourceDir, f.opts.CopyDir); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	sum, err := f.pipeline().Run(context.Background())
	if !errors.Is(err, ErrSourceWrite) {
		t.Fatalf("err = %v, want ErrSourceWrite", err)
	}
	if sum != nil {
		t.Errorf("expected no summary, got %+v", sum)
	}
	f.assertSourcesUnchanged(t)
}

func TestWorker_CopyOntoSourceFails(t *testing.T) {
	f := newFixture(t)
	link := filepath.Join(f.root, "alias")
	if err := os.Symlink(f.opts.SourceDir, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	w := newWorker(replace.NewEngine(replace.Options{}, quietLogger()), f.renderer, quietLogger())
	src := filepath.Join(f.opts.SourceDir, "S2D A.docx")
	res := w.process(context.Background(), src, filepath.Join(link, "S2D A.docx"), t.TempDir(), nil, nil)
	if res.Status != StatusFailed || res.Phase != "copying" {
		t.Errorf("result = %+v, want failed in copying", res)
	}
	f.assertSourcesUnchanged(t)
}

func TestRun_SourceChangedFailsDocument(t *testing.T) {
	f := newFixture(t)
	f.renderer.after = func(docPath string) {
		if filepath.Base(docPath) == "S2D B.docx" {
			os.WriteFile(filepath.Join(f.srcDir, "S2D B.docx"), []byte("changed"), 0o644)
		}
	}

	sum, err := f.pipeline().Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 1 || sum.Failed != 1 {
		t.Fatalf("processed/failed = %d/%d, want 1/1", sum.Processed, sum.Failed)
	}
	b := sum.Documents[1]
	if b.Status != StatusFailed || b.Phase != "verifying" {
		t.Errorf("S2D B.docx: %+v", b)
	}
}
