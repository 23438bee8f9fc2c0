package scanner

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinLongeway/Safe2Day/internal/docxtest"
	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/positions"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func scanFixture(t *testing.T, s *Scanner, d docxtest.Doc) []positions.Record {
	t.Helper()
	doc, err := ooxml.Parse(d.Bytes())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return s.Scan(doc, "fixture.docx")
}

func TestScan_HeaderAndFooter(t *testing.T) {
	recs := scanFixture(t, New(nil, quietLogger()), docxtest.HeaderFooter())

	center, right := ooxml.AlignCenter, ooxml.AlignRight
	want := []positions.Record{
		{Region: ooxml.Header, SectionIndex: 0, ParagraphIndex: 0, RunIndex: 0, Alignment: &center},
		{Region: ooxml.Footer, SectionIndex: 0, ParagraphIndex: 0, RunIndex: 0, Alignment: &right},
	}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(recs), recs)
	}
	for i := range want {
		if !recs[i].Equal(want[i]) {
			t.Errorf("record %d = %s, want %s", i, recs[i], want[i])
		}
	}
}

func TestScan_ZeroFind(t *testing.T) {
	tests := []struct {
		name string
		doc  docxtest.Doc
	}{
		{"no sections", docxtest.Doc{Body: []string{docxtest.Para("", docxtest.TextRun("body"))}}},
		{"text only", docxtest.Doc{Sections: []docxtest.Section{{
			Header: []string{docxtest.Para("center", docxtest.TextRun("Safe2Day"))},
			Footer: []string{docxtest.Para("")},
		}}}},
		{"vml picture", docxtest.Doc{Sections: []docxtest.Section{{
			Header: []string{docxtest.Para("", docxtest.PictRun())},
		}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := scanFixture(t, New(nil, quietLogger()), tt.doc)
			if recs == nil || len(recs) != 0 {
				t.Errorf("expected empty non-nil records, got %#v", recs)
			}
		})
	}
}

func TestScan_DuplicatesAndSections(t *testing.T) {
	doc := docxtest.Doc{Sections: []docxtest.Section{
		{Header: []string{
			docxtest.Para("", docxtest.TextRun("title")),
			docxtest.Para("left", docxtest.DrawingRun(1), docxtest.TextRun(" "), docxtest.DrawingRun(2)),
		}},
		{Footer: []string{docxtest.Para("", docxtest.DrawingRun(3))}},
	}}
	recs := scanFixture(t, New(nil, quietLogger()), doc)

	// Section 1 inherits section 0's header.
	type coord struct {
		region        ooxml.Region
		sect, para, r int
	}
	want := []coord{
		{ooxml.Header, 0, 1, 0},
		{ooxml.Header, 0, 1, 2},
		{ooxml.Header, 1, 1, 0},
		{ooxml.Header, 1, 1, 2},
		{ooxml.Footer, 1, 0, 0},
	}
	if len(recs) != len(want) {
		t.Fatalf("expected %d records, got %d: %+v", len(want), len(recs), recs)
	}
	for i, w := range want {
		r := recs[i]
		if r.Region != w.region || r.SectionIndex != w.sect || r.ParagraphIndex != w.para || r.RunIndex != w.r {
			t.Errorf("record %d = %s, want %v", i, r, w)
		}
	}
	if recs[4].Alignment != nil {
		t.Errorf("expected nil alignment for footer, got %v", *recs[4].Alignment)
	}
}

func TestScan_CustomDetector(t *testing.T) {
	pict := DetectorFunc(func(r ooxml.Run) bool { return r.HasPict() })
	doc := docxtest.Doc{Sections: []docxtest.Section{{
		Header: []string{docxtest.Para("", docxtest.PictRun(), docxtest.DrawingRun(1))},
	}}}
	recs := scanFixture(t, New(pict, quietLogger()), doc)
	if len(recs) != 1 || recs[0].RunIndex != 0 {
		t.Errorf("expected the VML run only, got %+v", recs)
	}
}

func TestScanFolder(t *testing.T) {
	dir := t.TempDir()
	docxtest.HeaderFooter().Write(t, dir, "S2D Intake.docx")
	docxtest.Doc{Body: []string{docxtest.Para("")}}.Write(t, dir, "S2D Blank.docx")
	os.WriteFile(filepath.Join(dir, "S2D Broken.docx"), []byte("not a zip"), 0o644)
	os.WriteFile(filepath.Join(dir, "~$S2D Intake.docx"), []byte("lock"), 0o644)
	docxtest.HeaderFooter().Write(t, dir, "Other.docx")
	docxtest.HeaderFooter().Write(t, dir, "S2D Old.doc")

	before := map[string][]byte{}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		before[e.Name()], _ = os.ReadFile(filepath.Join(dir, e.Name()))
	}

	ds, err := New(nil, quietLogger()).ScanFolder(dir, "S2D")
	if err != nil {
		t.Fatalf("ScanFolder: %v", err)
	}
	names := ds.Names()
	wantNames := []string{"S2D Blank.docx", "S2D Broken.docx", "S2D Intake.docx"}
	if len(names) != len(wantNames) {
		t.Fatalf("names = %v, want %v", names, wantNames)
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], wantNames[i])
		}
	}
	if recs, _ := ds.Get("S2D Broken.docx"); len(recs) != 0 {
		t.Errorf("broken document should have no records, got %d", len(recs))
	}
	if recs, _ := ds.Get("S2D Intake.docx"); len(recs) != 2 {
		t.Errorf("expected 2 records for intake, got %d", len(recs))
	}

	for name, data := range before {
		after, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || !bytes.Equal(after, data) {
			t.Errorf("%s changed during scan", name)
		}
	}
}

func TestScanFolder_MissingDir(t *testing.T) {
	if _, err := New(nil, quietLogger()).ScanFolder(filepath.Join(t.TempDir(), "nope"), "S2D"); err == nil {
		t.Error("expected error for missing folder")
	}
}

func TestScanFolder_NoMatches(t *testing.T) {
	dir := t.TempDir()
	docxtest.HeaderFooter().Write(t, dir, "Other.docx")

	ds, err := New(nil, quietLogger()).ScanFolder(dir, "S2D")
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("err = %v, want ErrNoDocuments", err)
	}
	if ds != nil {
		t.Errorf("expected no dataset, got %d documents", ds.Len())
	}
}
