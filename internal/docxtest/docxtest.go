// Package docxtest builds small .docx packages in memory for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	nsDecl = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing" ` +
		`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture"`

	// ImageRel is the relationship id drawing runs use for the fixture image.
	ImageRel = "rIdLogo"
)

// Modified is the timestamp stamped on every fixture entry.
var Modified = time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC)

// Section describes one section. A nil Header or Footer means the section
// carries no reference of its own for that region.
type Section struct {
	Header []string
	Footer []string
}

// Doc describes a document. Paragraph strings are raw w:p elements, see
// Para, TextRun and DrawingRun.
type Doc struct {
	Body     []string
	Sections []Section
}

// Para builds a w:p. An empty align leaves out w:pPr.
func Para(align string, runs ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	if align != "" {
		fmt.Fprintf(&b, `<w:pPr><w:jc w:val="%s"/></w:pPr>`, align)
	}
	for _, r := range runs {
		b.WriteString(r)
	}
	b.WriteString("</w:p>")
	return b.String()
}

// TextRun builds a run holding text.
func TextRun(text string) string {
	return `<w:r><w:t xml:space="preserve">` + text + `</w:t></w:r>`
}

// DrawingRun builds a run holding an inline picture with docPr id.
func DrawingRun(id int) string {
	return fmt.Sprintf(`<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">`+
		`<wp:extent cx="914400" cy="457200"/><wp:docPr id="%d" name="Old Logo %d"/>`+
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="0" name="old.png"/><pic:cNvPicPr/></pic:nvPicPr>`+
		`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="914400" cy="457200"/></a:xfrm><a:prstGeom prst="rect"/></pic:spPr>`+
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`, id, id, ImageRel)
}

// PictRun builds a run holding a legacy VML picture.
func PictRun() string {
	return `<w:r><w:pict><v:shape xmlns:v="urn:schemas-microsoft-com:vml" style="width:72pt;height:36pt"/></w:pict></w:r>`
}

// Bytes assembles the package.
func (d Doc) Bytes() []byte {
	files := map[string]string{}
	var order []string
	add := func(name, content string) {
		files[name] = content
		order = append(order, name)
	}

	var ct strings.Builder
	ct.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	ct.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	ct.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ct.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	ct.WriteString(`<Default Extension="png" ContentType="image/png"/>`)
	ct.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>`)

	var docRels strings.Builder
	docRels.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	docRels.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)

	var parts []struct{ name, content string }
	var sectPrs []string
	n := 0
	for _, sec := range d.Sections {
		var refs strings.Builder
		for _, region := range []struct {
			kind, root string
			paras      []string
		}{{"header", "hdr", sec.Header}, {"footer", "ftr", sec.Footer}} {
			if region.paras == nil {
				continue
			}
			n++
			name := fmt.Sprintf("%s%d.xml", region.kind, n)
			rid := fmt.Sprintf("rId%d", 100+n)
			fmt.Fprintf(&refs, `<w:%sReference w:type="default" r:id="%s"/>`, region.kind, rid)
			fmt.Fprintf(&docRels, `<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/%s" Target="%s"/>`, rid, region.kind, name)
			fmt.Fprintf(&ct, `<Override PartName="/word/%s" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.%s+xml"/>`, name, region.kind)
			parts = append(parts, struct{ name, content string }{
				"word/" + name,
				`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
					fmt.Sprintf(`<w:%s %s>%s</w:%s>`, region.root, nsDecl, strings.Join(region.paras, ""), region.root),
			})
			parts = append(parts, struct{ name, content string }{
				"word/_rels/" + name + ".rels",
				`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
					`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
					`<Relationship Id="` + ImageRel + `" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="media/logo.png"/>` +
					`</Relationships>`,
			})
		}
		sectPrs = append(sectPrs, `<w:sectPr>`+refs.String()+`<w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`)
	}
	ct.WriteString(`</Types>`)
	docRels.WriteString(`</Relationships>`)

	var body strings.Builder
	for _, p := range d.Body {
		body.WriteString(p)
	}
	for i, sp := range sectPrs {
		if i < len(sectPrs)-1 {
			fmt.Fprintf(&body, `<w:p><w:pPr>%s</w:pPr></w:p>`, sp)
		} else {
			body.WriteString(sp)
		}
	}

	add("[Content_Types].xml", ct.String())
	add("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
		`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>`+
		`</Relationships>`)
	add("word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<w:document `+nsDecl+`><w:body>`+body.String()+`</w:body></w:document>`)
	add("word/_rels/document.xml.rels", docRels.String())
	for _, p := range parts {
		add(p.name, p.content)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		addZipFile(zw, name, []byte(files[name]))
	}
	addZipFile(zw, "word/media/logo.png", PNG(4, 2))
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Write stores the package at dir/name and returns the path.
func (d Doc) Write(t testing.TB, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, d.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return p
}

// HeaderFooter is the common fixture: one section whose header and footer
// each hold a single centred paragraph with one logo.
func HeaderFooter() Doc {
	return Doc{
		Body: []string{Para("", TextRun("Intake form"))},
		Sections: []Section{{
			Header: []string{Para("center", DrawingRun(1))},
			Footer: []string{Para("right", DrawingRun(2))},
		}},
	}
}

// PNG encodes a w x h image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x * 10), B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WritePNG stores a w x h PNG at dir/name and returns the path.
func WritePNG(t testing.TB, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, PNG(w, h), 0o644); err != nil {
		t.Fatalf("write png %s: %v", name, err)
	}
	return p
}

func addZipFile(zw *zip.Writer, name string, data []byte) {
	fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: Modified})
	if err != nil {
		panic(err)
	}
	if _, err := fw.Write(data); err != nil {
		panic(err)
	}
}
