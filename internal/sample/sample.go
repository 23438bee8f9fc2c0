// Package sample generates a sample source form with a logo in its header
// and footer, for trying the scan and apply steps end to end.
package sample

import (
	"bytes"
	"fmt"

	"github.com/KevinLongeway/Safe2Day/internal/fsutil"
	"github.com/KevinLongeway/Safe2Day/internal/imaging"
	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/fumiama/go-docx"
)

// DefaultName is the file name of the generated form.
const DefaultName = "S2D OHA - Admin.docx"

// Options controls the generated form.
type Options struct {
	Title string
	// Logo is placed in the header and footer. Without one a text
	// placeholder is written instead.
	Logo        *imaging.Image
	HeaderWidth ooxml.Length
	FooterWidth ooxml.Length
}

// Build returns the .docx bytes of the sample form.
func Build(opts Options) ([]byte, error) {
	if opts.Title == "" {
		opts.Title = "Occupational Health Assessment - Admin"
	}
	if opts.HeaderWidth <= 0 {
		opts.HeaderWidth = ooxml.Inches(2.0)
	}
	if opts.FooterWidth <= 0 {
		opts.FooterWidth = ooxml.Inches(1.5)
	}

	body, err := buildBody(opts.Title)
	if err != nil {
		return nil, err
	}
	doc, err := ooxml.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("reopen sample body: %w", err)
	}

	for _, region := range ooxml.Regions {
		width := opts.HeaderWidth
		if region == ooxml.Footer {
			width = opts.FooterWidth
		}
		if err := addLogo(doc, region, opts.Logo, width); err != nil {
			return nil, err
		}
	}
	return doc.Bytes()
}

// Write builds the sample form and saves it at path.
func Write(path string, opts Options) error {
	data, err := Build(opts)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	return nil
}

func buildBody(title string) ([]byte, error) {
	d := docx.New().WithDefaultTheme()

	d.AddParagraph().Justification("center").AddText(title).Bold().Size("32")
	for _, field := range []string{"Employee Name", "Date", "Position"} {
		d.AddParagraph().AddText(field + ": ________________________")
	}
	d.AddParagraph()

	heading(d, "Assessment Details")
	d.AddParagraph().AddText("This is a sample S2D Occupational Health Assessment document for administrative staff.")
	d.AddParagraph()

	heading(d, "Health Screening")
	for _, item := range []string{"Vision Test", "Hearing Test", "Blood Pressure", "General Physical"} {
		d.AddParagraph().AddText("☐ " + item)
	}
	d.AddParagraph()

	heading(d, "Signature")
	d.AddParagraph().AddText("Healthcare Provider: ________________________")
	d.AddParagraph().AddText("Date: ________________________")

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write sample body: %w", err)
	}
	return buf.Bytes(), nil
}

func heading(d *docx.Docx, text string) {
	d.AddParagraph().AddText(text).Bold().Size("28")
}

func addLogo(doc *ooxml.Document, region ooxml.Region, logo *imaging.Image, width ooxml.Length) error {
	hf, err := doc.AddHeaderFooter(region)
	if err != nil {
		return fmt.Errorf("add %s: %w", region, err)
	}
	p, err := hf.Paragraph(0)
	if err != nil {
		return err
	}
	p.SetAlignment(ooxml.AlignCenter)
	if logo == nil {
		p.AddText("Client Logo")
		return nil
	}
	if _, err := p.AddPicture(logo.Picture(), width); err != nil {
		return fmt.Errorf("%s logo: %w", region, err)
	}
	return nil
}
