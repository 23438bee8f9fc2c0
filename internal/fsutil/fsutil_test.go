package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "state.json")

	if err := WriteFileAtomic(path, []byte("one"), 0o600); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("two"), 0o600); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("content = %q, want two", got)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected temp files cleaned up, found %d entries", len(entries))
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.docx")
	dst := filepath.Join(dir, "dst.docx")
	if err := os.WriteFile(src, []byte("payload"), 0o640); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	os.Chtimes(src, mtime, mtime)

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "payload" {
		t.Errorf("copy content = %q", got)
	}
	info, _ := os.Stat(dst)
	if !info.ModTime().Equal(mtime) {
		t.Errorf("mtime = %v, want %v", info.ModTime(), mtime)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		path, dir string
		want      bool
	}{
		{"/a/b", "/a/b", true},
		{"/a/b/c", "/a/b", true},
		{"/a/b/../c", "/a/b", false},
		{"/a/bc", "/a/b", false},
		{"/x", "/a", false},
	}
	for _, tt := range tests {
		if got := Within(tt.path, tt.dir); got != tt.want {
			t.Errorf("Within(%q, %q) = %v, want %v", tt.path, tt.dir, got, tt.want)
		}
	}
}

func TestWithin_Symlink(t *testing.T) {
	root := t.TempDir()
	forms := filepath.Join(root, "Forms")
	if err := os.Mkdir(forms, 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "Client_Forms")
	if err := os.Symlink(forms, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if !Within(link, forms) {
		t.Error("symlink to the forms folder should count as inside it")
	}
	if !Within(filepath.Join(link, "not-yet", "out"), forms) {
		t.Error("missing folder below the symlink should count as inside it")
	}
	if Within(filepath.Join(root, "PDFs"), forms) {
		t.Error("sibling folder reported inside forms")
	}
}

func TestCopyFile_SameFile(t *testing.T) {
	root := t.TempDir()
	forms := filepath.Join(root, "Forms")
	if err := os.Mkdir(forms, 0o755); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(forms, "S2D A.docx")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "Client_Forms")
	if err := os.Symlink(forms, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	for _, dst := range []string{src, filepath.Join(link, "S2D A.docx")} {
		if err := CopyFile(src, dst); !errors.Is(err, ErrSameFile) {
			t.Errorf("CopyFile to %s: err = %v, want ErrSameFile", dst, err)
		}
	}
	got, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("source content = %q after refused copy", got)
	}
}
