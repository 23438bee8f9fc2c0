package sample

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KevinLongeway/Safe2Day/internal/docxtest"
	"github.com/KevinLongeway/Safe2Day/internal/imaging"
	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/KevinLongeway/Safe2Day/internal/scanner"
)

func TestBuild_WithLogo(t *testing.T) {
	logo, err := imaging.Decode(docxtest.PNG(20, 10))
	if err != nil {
		t.Fatal(err)
	}
	logo.Name = "Go_Auto1.png"

	data, err := Build(Options{Logo: logo})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	doc, err := ooxml.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	s := scanner.New(nil, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	recs := s.Scan(doc, DefaultName)
	if len(recs) != 2 {
		t.Fatalf("expected header and footer logos, got %+v", recs)
	}
	if recs[0].Region != ooxml.Header || recs[1].Region != ooxml.Footer {
		t.Errorf("unexpected regions %s, %s", recs[0], recs[1])
	}
	for _, r := range recs {
		if r.Alignment == nil || *r.Alignment != ooxml.AlignCenter {
			t.Errorf("%s should be centred", r)
		}
	}

	text, err := doc.BodyText()
	if err != nil {
		t.Fatalf("BodyText: %v", err)
	}
	if !strings.HasPrefix(text, "Occupational Health Assessment - Admin") {
		t.Errorf("unexpected body text %q", text)
	}
	if !strings.Contains(text, "Healthcare Provider:") {
		t.Errorf("body text missing signature block: %q", text)
	}
}

func TestWrite_Placeholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultName)
	if err := Write(path, Options{Title: "Intake"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	doc, err := ooxml.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	p, err := doc.Paragraph(ooxml.Footer, 0, 0)
	if err != nil {
		t.Fatalf("footer paragraph: %v", err)
	}
	if p.Text() != "Client Logo" {
		t.Errorf("footer text = %q", p.Text())
	}
	recs := scanner.New(nil, nil).Scan(doc, DefaultName)
	if len(recs) != 0 {
		t.Errorf("placeholder should not scan as a logo, got %d", len(recs))
	}
}
