package positions

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
)

func align(a ooxml.Alignment) *ooxml.Alignment { return &a }

func TestStore_RoundTrip(t *testing.T) {
	full := NewDataset()
	full.Set("S2D Intake.docx", []Record{
		{Region: ooxml.Header, SectionIndex: 0, ParagraphIndex: 0, RunIndex: 1, Alignment: align(ooxml.AlignCenter)},
		{Region: ooxml.Footer, SectionIndex: 0, ParagraphIndex: 2, RunIndex: 0, Alignment: nil},
	})
	full.Set("S2D Consent.docx", []Record{})
	full.Set("S2D Absent.docx", nil)

	empties := NewDataset()
	empties.Set("b.docx", nil)
	empties.Set("a.docx", nil)

	tests := []struct {
		name string
		ds   *Dataset
	}{
		{"empty dataset", NewDataset()},
		{"empty sequences", empties},
		{"records", full},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(filepath.Join(t.TempDir(), "logo_positions.json"))
			if err := store.Save(tt.ds); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := store.Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !got.Equal(tt.ds) {
				t.Errorf("round trip mismatch: got %v, want %v", got.Names(), tt.ds.Names())
			}
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "none.json"))
	_, err := store.Load()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("ErrNotFound should match fs.ErrNotExist")
	}
}

func TestStore_LoadEmptyIsNotMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo_positions.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 0 {
		t.Errorf("expected empty dataset, got %d documents", ds.Len())
	}
}

func TestStore_Encoding(t *testing.T) {
	ds := NewDataset()
	ds.Set("z.docx", []Record{{Region: ooxml.Footer, SectionIndex: 1, ParagraphIndex: 0, RunIndex: 2}})
	ds.Set("a.docx", []Record{})
	path := filepath.Join(t.TempDir(), "p.json")
	if err := NewStore(path).Save(ds); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	if strings.Index(s, "z.docx") > strings.Index(s, "a.docx") {
		t.Error("expected insertion order to be kept")
	}
	for _, want := range []string{`"type": "footer"`, `"section_index": 1`, `"para_index": 0`, `"run_index": 2`, `"alignment": null`, `"a.docx": []`} {
		if !strings.Contains(s, want) {
			t.Errorf("encoding missing %s:\n%s", want, s)
		}
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestRecord_LegacyAlignment(t *testing.T) {
	tests := []struct {
		in   string
		want *ooxml.Alignment
	}{
		{`null`, nil},
		{`""`, nil},
		{`"center"`, align(ooxml.AlignCenter)},
		{`0`, align(ooxml.AlignLeft)},
		{`1`, align(ooxml.AlignCenter)},
		{`2`, align(ooxml.AlignRight)},
		{`3`, align(ooxml.AlignBoth)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var r Record
			data := `{"type":"header","section_index":0,"para_index":0,"run_index":0,"alignment":` + tt.in + `}`
			if err := json.Unmarshal([]byte(data), &r); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			want := Record{Region: ooxml.Header, Alignment: tt.want}
			if !r.Equal(want) {
				t.Errorf("got %+v, want %+v", r, want)
			}
		})
	}

	var r Record
	if err := json.Unmarshal([]byte(`{"type":"header","alignment":6}`), &r); err == nil {
		t.Error("expected error for unknown alignment code")
	}
}

func TestDataset_SetOverwritesInPlace(t *testing.T) {
	ds := NewDataset()
	ds.Set("a", []Record{{Region: ooxml.Header}})
	ds.Set("b", nil)
	ds.Set("a", []Record{{Region: ooxml.Footer}, {Region: ooxml.Footer}})

	if got := strings.Join(ds.Names(), ","); got != "a,b" {
		t.Errorf("names = %s, want a,b", got)
	}
	recs, ok := ds.Get("a")
	if !ok || len(recs) != 2 {
		t.Errorf("expected overwritten entry with 2 records, got %v", recs)
	}
	if ds.Total() != 2 {
		t.Errorf("Total = %d, want 2", ds.Total())
	}
	if _, ok := ds.Get("missing"); ok {
		t.Error("expected missing name to be absent")
	}
}

func TestDataset_EqualNil(t *testing.T) {
	var none *Dataset
	ds := NewDataset()
	ds.Set("a", []Record{{Region: ooxml.Header}})

	if ds.Equal(nil) {
		t.Error("dataset equal to nil")
	}
	if none.Equal(ds) {
		t.Error("nil equal to dataset")
	}
	if !none.Equal(nil) {
		t.Error("nil not equal to nil")
	}
	if !NewDataset().Equal(NewDataset()) {
		t.Error("empty datasets differ")
	}
}
