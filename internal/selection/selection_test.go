package selection

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinLongeway/Safe2Day/internal/docxtest"
)

func TestStore_SaveLoad(t *testing.T) {
	dir := t.TempDir()
	logo := docxtest.WritePNG(t, dir, "acme.png", 4, 4)
	store := NewStore(filepath.Join(dir, "selected_logo.json"))

	if _, err := store.Load(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}
	if err := store.Save(New(logo)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.LogoPath != logo || got.LogoName != "acme.png" {
		t.Errorf("got %+v", got)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	if err := New(filepath.Join(dir, "gone.png")).Validate(); !errors.Is(err, ErrLogoMissing) {
		t.Errorf("expected ErrLogoMissing, got %v", err)
	}
	txt := filepath.Join(dir, "notes.txt")
	os.WriteFile(txt, []byte("x"), 0o644)
	if err := New(txt).Validate(); err == nil {
		t.Error("expected error for non-image extension")
	}
	if err := (Selection{}).Validate(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty selection, got %v", err)
	}
}

func TestCandidatesAndChoose(t *testing.T) {
	dir := t.TempDir()
	docxtest.WritePNG(t, dir, "b.PNG", 2, 2)
	docxtest.WritePNG(t, dir, "a.png", 2, 2)
	os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.png"), 0o755)

	cands, err := Candidates(dir)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(cands) != 2 || cands[0].LogoName != "a.png" || cands[1].LogoName != "b.PNG" {
		t.Fatalf("unexpected candidates %+v", cands)
	}

	tests := []struct {
		choice  string
		want    string
		wantErr bool
	}{
		{"1", "a.png", false},
		{"2", "b.PNG", false},
		{"b.PNG", "b.PNG", false},
		{"0", "", true},
		{"3", "", true},
		{"c.png", "", true},
	}
	for _, tt := range tests {
		got, err := Choose(cands, tt.choice)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Choose(%q): expected error", tt.choice)
			}
			continue
		}
		if err != nil || got.LogoName != tt.want {
			t.Errorf("Choose(%q) = %+v, %v; want %s", tt.choice, got, err, tt.want)
		}
	}
}
