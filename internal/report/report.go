// Package report writes a human-readable record of a batch run.
package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KevinLongeway/Safe2Day/internal/fsutil"
	"github.com/KevinLongeway/Safe2Day/internal/pipeline"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	MarkdownFile = "report.md"
	HTMLFile     = "report.html"
)

// Markdown formats a summary as a Markdown document with one table row
// per document.
func Markdown(sum *pipeline.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Safe2Day run %s\n\n", sum.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Logo: `%s`\n", sum.Logo)
	fmt.Fprintf(&b, "- Documents found: %d\n", sum.Found)
	fmt.Fprintf(&b, "- Processed: %d\n", sum.Processed)
	fmt.Fprintf(&b, "- Failed: %d\n", sum.Failed)
	fmt.Fprintf(&b, "- Logos replaced: %d\n", sum.Replaced)
	if sum.Skipped > 0 {
		fmt.Fprintf(&b, "- Stale positions skipped: %d\n", sum.Skipped)
	}
	fmt.Fprintf(&b, "- Word copies: `%s`\n", sum.CopyDir)
	fmt.Fprintf(&b, "- PDFs: `%s`\n", sum.PDFDir)
	fmt.Fprintf(&b, "- Duration: %s\n\n", sum.Duration().Round(time.Millisecond))

	b.WriteString("| Document | Status | Positions | Replaced | Skipped | PDF |\n")
	b.WriteString("|---|---|---:|---:|---:|---|\n")
	for _, d := range sum.Documents {
		pdf := "-"
		if d.PDFPath != "" {
			pdf = filepath.Base(d.PDFPath)
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %s |\n",
			cell(d.Name), d.Status, d.Records, d.Replaced, d.Skipped, cell(pdf))
	}

	var problems []string
	for _, d := range sum.Documents {
		for _, e := range d.Errors {
			problems = append(problems, fmt.Sprintf("- **%s**: %s", d.Name, e))
		}
	}
	if len(problems) > 0 {
		b.WriteString("\n## Problems\n\n")
		b.WriteString(strings.Join(problems, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\nSource documents were not modified.\n")
	return b.String()
}

// HTML renders Markdown to a standalone HTML page.
func HTML(md string) ([]byte, error) {
	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := conv.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Safe2Day report</title></head><body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}

// Write stores report.md and report.html in dir and returns their paths.
func Write(dir string, sum *pipeline.Summary) (string, string, error) {
	md := Markdown(sum)
	html, err := HTML(md)
	if err != nil {
		return "", "", err
	}
	mdPath := filepath.Join(dir, MarkdownFile)
	htmlPath := filepath.Join(dir, HTMLFile)
	if err := fsutil.WriteFileAtomic(mdPath, []byte(md), 0o644); err != nil {
		return "", "", fmt.Errorf("write report: %w", err)
	}
	if err := fsutil.WriteFileAtomic(htmlPath, html, 0o644); err != nil {
		return "", "", fmt.Errorf("write report: %w", err)
	}
	return mdPath, htmlPath, nil
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
