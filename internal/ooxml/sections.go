package ooxml

import (
	"fmt"

	"github.com/beevik/etree"
)

// Region selects the header or the footer story of a section.
type Region string

const (
	Header Region = "header"
	Footer Region = "footer"
)

// Regions lists the regions in scan order.
var Regions = []Region{Header, Footer}

// Valid reports whether r names a known region.
func (r Region) Valid() bool {
	return r == Header || r == Footer
}

func (r Region) refTag() string {
	if r == Footer {
		return "footerReference"
	}
	return "headerReference"
}

func (r Region) rootTag() string {
	if r == Footer {
		return "ftr"
	}
	return "hdr"
}

func (r Region) relType() string {
	if r == Footer {
		return relFooter
	}
	return relHeader
}

func (r Region) contentType() string {
	if r == Footer {
		return ctFooter
	}
	return ctHeader
}

// Section is one w:sectPr of the main document, in declaration order.
type Section struct {
	doc    *Document
	index  int
	sectPr *etree.Element
}

// Index is the zero-based position of the section in the document.
func (s *Section) Index() int { return s.index }

// Sections returns the document's sections: every sectPr carried by a
// body-level paragraph, followed by the body's final sectPr.
func (d *Document) Sections() ([]*Section, error) {
	if d.sections != nil {
		return d.sections, nil
	}
	root, err := d.root(d.mainPart)
	if err != nil {
		return nil, err
	}
	sections := []*Section{}
	body := childW(root, "body")
	if body == nil {
		d.sections = sections
		return sections, nil
	}
	for _, c := range body.ChildElements() {
		var sp *etree.Element
		switch {
		case isW(c, "p"):
			if ppr := childW(c, "pPr"); ppr != nil {
				sp = childW(ppr, "sectPr")
			}
		case isW(c, "sectPr"):
			sp = c
		}
		if sp != nil {
			sections = append(sections, &Section{doc: d, index: len(sections), sectPr: sp})
		}
	}
	d.sections = sections
	return sections, nil
}

// Region returns the default header or footer in effect for the section.
// A section without its own reference inherits the nearest earlier one, as
// Word does. ErrNotFound is returned when no section up to this one
// defines the region.
func (s *Section) Region(r Region) (*HeaderFooter, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("region %q: %w", r, ErrNotFound)
	}
	sections, err := s.doc.Sections()
	if err != nil {
		return nil, err
	}
	for i := s.index; i >= 0; i-- {
		id := defaultReference(sections[i].sectPr, r.refTag())
		if id == "" {
			continue
		}
		return s.doc.headerFooter(r, id)
	}
	return nil, fmt.Errorf("section %d %s: %w", s.index, r, ErrNotFound)
}

func defaultReference(sectPr *etree.Element, tag string) string {
	for _, ref := range childrenW(sectPr, tag) {
		typ := attrW(ref, "type")
		if typ != "" && typ != "default" {
			continue
		}
		if id := attrR(ref, "id"); id != "" {
			return id
		}
	}
	return ""
}

func (d *Document) headerFooter(r Region, relID string) (*HeaderFooter, error) {
	rels, err := d.rels(d.mainPart)
	if err != nil {
		return nil, err
	}
	part, ok := rels.target(relID)
	if !ok {
		return nil, fmt.Errorf("%s relationship %s: %w", r, relID, ErrNotFound)
	}
	root, err := d.root(part)
	if err != nil {
		return nil, err
	}
	return &HeaderFooter{doc: d, region: r, part: part, root: root}, nil
}

// Paragraph resolves a (region, section, paragraph) coordinate to a live
// paragraph. Any coordinate that does not resolve yields ErrNotFound.
func (d *Document) Paragraph(r Region, section, paragraph int) (*Paragraph, error) {
	sections, err := d.Sections()
	if err != nil {
		return nil, err
	}
	if section < 0 || section >= len(sections) {
		return nil, fmt.Errorf("section %d of %d: %w", section, len(sections), ErrNotFound)
	}
	hf, err := sections[section].Region(r)
	if err != nil {
		return nil, err
	}
	return hf.Paragraph(paragraph)
}

// HeaderFooter is a header or footer part.
type HeaderFooter struct {
	doc    *Document
	region Region
	part   string
	root   *etree.Element
}

// Region reports whether this is a header or a footer.
func (h *HeaderFooter) Region() Region { return h.region }

// Part is the package part name, e.g. "word/header1.xml".
func (h *HeaderFooter) Part() string { return h.part }

// Paragraphs returns the direct paragraph children of the story, in order.
// Paragraphs inside tables or text boxes are not included.
func (h *HeaderFooter) Paragraphs() []*Paragraph {
	var paras []*Paragraph
	for _, el := range childrenW(h.root, "p") {
		paras = append(paras, &Paragraph{hf: h, el: el})
	}
	return paras
}

// Paragraph returns the i-th direct paragraph.
func (h *HeaderFooter) Paragraph(i int) (*Paragraph, error) {
	paras := h.Paragraphs()
	if i < 0 || i >= len(paras) {
		return nil, fmt.Errorf("%s paragraph %d of %d: %w", h.region, i, len(paras), ErrNotFound)
	}
	return paras[i], nil
}

// AddHeaderFooter creates a new default header or footer holding one empty
// paragraph and attaches it to the last section. A body without any
// section properties gets a final sectPr first.
func (d *Document) AddHeaderFooter(r Region) (*HeaderFooter, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("region %q: %w", r, ErrNotFound)
	}
	main, err := d.root(d.mainPart)
	if err != nil {
		return nil, err
	}
	body := childW(main, "body")
	if body == nil {
		return nil, fmt.Errorf("%w: document has no body", ErrInvalidPackage)
	}
	sections, err := d.Sections()
	if err != nil {
		return nil, err
	}
	var sectPr *etree.Element
	if len(sections) > 0 {
		sectPr = sections[len(sections)-1].sectPr
	} else {
		sectPr = body.CreateElement("w:sectPr")
	}
	if main.SelectAttr("xmlns:r") == nil {
		main.CreateAttr("xmlns:r", nsR)
	}

	part := d.nextFreeName("word/"+string(r), ".xml")
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("w:" + r.rootTag())
	root.CreateAttr("xmlns:w", nsW)
	root.CreateAttr("xmlns:r", nsR)
	root.CreateAttr("xmlns:wp", nsWP)
	root.CreateElement("w:p")
	d.putXMLPart(part, doc)

	if err := d.ensureOverrideContentType(part, r.contentType()); err != nil {
		return nil, err
	}
	rels, err := d.rels(d.mainPart)
	if err != nil {
		return nil, err
	}
	id := rels.add(r.relType(), part)

	// Drop any previous default reference for this region, then put the new
	// one ahead of the other section properties.
	for _, ref := range childrenW(sectPr, r.refTag()) {
		if t := attrW(ref, "type"); t == "" || t == "default" {
			sectPr.RemoveChild(ref)
		}
	}
	ref := etree.NewElement("w:" + r.refTag())
	ref.CreateAttr("w:type", "default")
	ref.CreateAttr("r:id", id)
	pos := 0
	for _, c := range sectPr.ChildElements() {
		if isW(c, "headerReference") || isW(c, "footerReference") {
			pos = c.Index() + 1
		}
	}
	sectPr.InsertChildAt(pos, ref)
	d.markDirty(d.mainPart)
	d.sections = nil

	return &HeaderFooter{doc: d, region: r, part: part, root: root}, nil
}

func isW(e *etree.Element, tag string) bool {
	if e.Tag != tag {
		return false
	}
	return e.Space == "w" || e.NamespaceURI() == nsW
}

func childW(e *etree.Element, tag string) *etree.Element {
	for _, c := range e.ChildElements() {
		if isW(c, tag) {
			return c
		}
	}
	return nil
}

func childrenW(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if isW(c, tag) {
			out = append(out, c)
		}
	}
	return out
}

func attrW(e *etree.Element, key string) string {
	for i := range e.Attr {
		a := &e.Attr[i]
		if a.Key == key && (a.Space == "w" || a.NamespaceURI() == nsW) {
			return a.Value
		}
	}
	return ""
}

func attrR(e *etree.Element, key string) string {
	for i := range e.Attr {
		a := &e.Attr[i]
		if a.Key == key && (a.Space == "r" || a.NamespaceURI() == nsR) {
			return a.Value
		}
	}
	return ""
}
