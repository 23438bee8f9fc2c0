package ooxml

import (
	"strings"

	"github.com/beevik/etree"
)

// Alignment is a paragraph justification keyword, the value of w:jc.
type Alignment string

const (
	AlignLeft           Alignment = "left"
	AlignCenter         Alignment = "center"
	AlignRight          Alignment = "right"
	AlignBoth           Alignment = "both"
	AlignDistribute     Alignment = "distribute"
	AlignStart          Alignment = "start"
	AlignEnd            Alignment = "end"
	AlignMediumKashida  Alignment = "mediumKashida"
	AlignHighKashida    Alignment = "highKashida"
	AlignLowKashida     Alignment = "lowKashida"
	AlignThaiDistribute Alignment = "thaiDistribute"
)

// pPr children that must follow w:jc.
var afterJc = map[string]bool{
	"textDirection":    true,
	"textAlignment":    true,
	"textboxTightWrap": true,
	"outlineLvl":       true,
	"divId":            true,
	"cnfStyle":         true,
	"rPr":              true,
	"sectPr":           true,
	"pPrChange":        true,
}

// Paragraph is a w:p inside a header or footer.
type Paragraph struct {
	hf *HeaderFooter
	el *etree.Element
}

// Element exposes the underlying XML element.
func (p *Paragraph) Element() *etree.Element { return p.el }

// Runs returns the direct w:r children. Runs nested in hyperlinks, field
// results or content controls are not included.
func (p *Paragraph) Runs() []Run {
	var runs []Run
	for _, el := range childrenW(p.el, "r") {
		runs = append(runs, Run{el: el})
	}
	return runs
}

// Text concatenates the text of the direct runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs() {
		sb.WriteString(r.Text())
	}
	return sb.String()
}

// Alignment returns the paragraph's own justification, or nil when the
// paragraph does not set one (style inheritance is not consulted).
func (p *Paragraph) Alignment() *Alignment {
	ppr := childW(p.el, "pPr")
	if ppr == nil {
		return nil
	}
	jc := childW(ppr, "jc")
	if jc == nil {
		return nil
	}
	v := attrW(jc, "val")
	if v == "" {
		return nil
	}
	a := Alignment(v)
	return &a
}

// SetAlignment writes w:jc, creating w:pPr when needed.
func (p *Paragraph) SetAlignment(a Alignment) {
	ppr := childW(p.el, "pPr")
	if ppr == nil {
		ppr = etree.NewElement("w:pPr")
		p.el.InsertChildAt(0, ppr)
	}
	jc := childW(ppr, "jc")
	if jc == nil {
		jc = etree.NewElement("w:jc")
		pos := len(ppr.Child)
		for _, c := range ppr.ChildElements() {
			if afterJc[c.Tag] {
				pos = c.Index()
				break
			}
		}
		ppr.InsertChildAt(pos, jc)
	}
	jc.CreateAttr("w:val", string(a))
	p.hf.doc.markDirty(p.hf.part)
}

// RemoveDrawings deletes every w:drawing from every direct run and returns
// how many were removed.
func (p *Paragraph) RemoveDrawings() int {
	n := 0
	for _, r := range p.Runs() {
		for _, d := range r.drawings() {
			r.el.RemoveChild(d)
			n++
		}
	}
	if n > 0 {
		p.hf.doc.markDirty(p.hf.part)
	}
	return n
}

// Clear removes all content except the paragraph properties.
func (p *Paragraph) Clear() {
	for i := len(p.el.Child) - 1; i >= 0; i-- {
		if el, ok := p.el.Child[i].(*etree.Element); ok && isW(el, "pPr") {
			continue
		}
		p.el.RemoveChildAt(i)
	}
	p.hf.doc.markDirty(p.hf.part)
}

// AddText appends a run holding text.
func (p *Paragraph) AddText(text string) Run {
	r := p.el.CreateElement("w:r")
	t := r.CreateElement("w:t")
	if strings.TrimSpace(text) != text {
		t.CreateAttr("xml:space", "preserve")
	}
	t.SetText(text)
	p.hf.doc.markDirty(p.hf.part)
	return Run{el: r}
}

// Run is a direct w:r child of a paragraph.
type Run struct {
	el *etree.Element
}

// Element exposes the underlying XML element.
func (r Run) Element() *etree.Element { return r.el }

func (r Run) drawings() []*etree.Element {
	return childrenW(r.el, "drawing")
}

// DrawingCount is the number of direct w:drawing children.
func (r Run) DrawingCount() int {
	return len(r.drawings())
}

// HasDrawing reports whether the run carries at least one w:drawing.
func (r Run) HasDrawing() bool {
	return r.DrawingCount() > 0
}

// HasPict reports whether the run carries a legacy VML w:pict.
func (r Run) HasPict() bool {
	return childW(r.el, "pict") != nil
}

// Text concatenates the run's w:t content.
func (r Run) Text() string {
	var sb strings.Builder
	for _, t := range childrenW(r.el, "t") {
		sb.WriteString(t.Text())
	}
	return sb.String()
}
