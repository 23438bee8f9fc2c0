// Package ooxml is a small, lossless model of a WordprocessingML (.docx)
// package, limited to what logo placement needs: sections, their
// header/footer parts, paragraphs, runs and inline pictures.
//
// Parts that are never touched are written back byte for byte. Parts that
// are edited are re-serialized from their XML tree, keeping every element
// and attribute the model does not understand.
package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	nsW   = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP  = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"
	nsCT  = "http://schemas.openxmlformats.org/package/2006/content-types"

	relOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relHeader         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relFooter         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	relImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"

	ctHeader = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	ctFooter = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"

	contentTypesPart = "[Content_Types].xml"
	defaultMainPart  = "word/document.xml"
)

// ErrNotFound is returned when a section, header/footer or paragraph
// coordinate does not resolve in the document.
var ErrNotFound = errors.New("location not found")

// ErrInvalidPackage is returned when the bytes are not a usable .docx.
var ErrInvalidPackage = errors.New("invalid docx package")

type entry struct {
	name     string
	method   uint16
	modified time.Time
	data     []byte
}

// Document is an opened .docx package held fully in memory.
type Document struct {
	entries  []*entry
	index    map[string]*entry
	parts    map[string]*etree.Document
	dirty    map[string]bool
	mainPart string
	modified time.Time

	sections []*Section
}

// Open reads a .docx file. The file is only ever opened for reading.
func Open(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	return Parse(data)
}

// Parse loads a .docx package from its raw bytes.
func Parse(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	d := &Document{
		index: make(map[string]*entry, len(zr.File)),
		parts: make(map[string]*etree.Document),
		dirty: make(map[string]bool),
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidPackage, f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidPackage, f.Name, err)
		}
		e := &entry{name: f.Name, method: f.Method, modified: f.Modified, data: b}
		d.entries = append(d.entries, e)
		d.index[f.Name] = e
	}

	d.mainPart = d.findMainPart()
	main, ok := d.index[d.mainPart]
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrInvalidPackage, d.mainPart)
	}
	d.modified = main.modified

	root, err := d.root(d.mainPart)
	if err != nil {
		return nil, err
	}
	if root.Tag != "document" {
		return nil, fmt.Errorf("%w: main part root is <%s>", ErrInvalidPackage, root.FullTag())
	}
	return d, nil
}

// findMainPart follows the package-level officeDocument relationship,
// falling back to the conventional location.
func (d *Document) findMainPart() string {
	e, ok := d.index["_rels/.rels"]
	if !ok {
		return defaultMainPart
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(e.data); err != nil || doc.Root() == nil {
		return defaultMainPart
	}
	for _, rel := range doc.Root().SelectElements("Relationship") {
		if rel.SelectAttrValue("Type", "") == relOfficeDocument {
			return strings.TrimPrefix(rel.SelectAttrValue("Target", defaultMainPart), "/")
		}
	}
	return defaultMainPart
}

// HasPart reports whether the package contains the named part.
func (d *Document) HasPart(name string) bool {
	_, ok := d.index[name]
	return ok
}

// PartNames returns every part name in package order.
func (d *Document) PartNames() []string {
	names := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		names = append(names, e.name)
	}
	return names
}

// PartBytes returns the current serialized content of a part.
func (d *Document) PartBytes(name string) ([]byte, error) {
	e, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("part %s: %w", name, ErrNotFound)
	}
	if d.dirty[name] {
		return d.parts[name].WriteToBytes()
	}
	return e.data, nil
}

// root returns the parsed XML root of a part, parsing it on first use.
func (d *Document) root(name string) (*etree.Element, error) {
	if doc, ok := d.parts[name]; ok {
		return doc.Root(), nil
	}
	e, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("part %s: %w", name, ErrNotFound)
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(e.data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("parse %s: %w: empty part", name, ErrInvalidPackage)
	}
	d.parts[name] = doc
	return doc.Root(), nil
}

func (d *Document) markDirty(name string) {
	d.dirty[name] = true
}

// putPart adds or replaces a raw part.
func (d *Document) putPart(name string, data []byte) {
	if e, ok := d.index[name]; ok {
		e.data = data
		delete(d.parts, name)
		delete(d.dirty, name)
		return
	}
	e := &entry{name: name, method: zip.Deflate, modified: d.modified, data: data}
	d.entries = append(d.entries, e)
	d.index[name] = e
}

// putXMLPart adds a new XML part from an element tree.
func (d *Document) putXMLPart(name string, doc *etree.Document) {
	d.putPart(name, nil)
	d.parts[name] = doc
	d.markDirty(name)
}

// WriteTo serializes the package as a .docx zip archive. Entries keep their
// original order, compression method and timestamp, so saving an untouched
// document twice yields identical bytes.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, e := range d.entries {
		data := e.data
		if d.dirty[e.name] {
			b, err := d.parts[e.name].WriteToBytes()
			if err != nil {
				return cw.n, fmt.Errorf("serialize %s: %w", e.name, err)
			}
			data = b
		}
		fh := &zip.FileHeader{Name: e.name, Method: e.method, Modified: e.modified}
		fw, err := zw.CreateHeader(fh)
		if err != nil {
			return cw.n, fmt.Errorf("create %s: %w", e.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return cw.n, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("close zip: %w", err)
	}
	return cw.n, nil
}

// Bytes returns the serialized package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the package to filename, creating or truncating it.
func (d *Document) Save(filename string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// relsPartName returns the relationships part that belongs to a part.
func relsPartName(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget turns a relationship target into a part name.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// relativeTarget is the inverse of resolveTarget for parts below the
// source's directory.
func relativeTarget(source, part string) string {
	dir := path.Dir(source) + "/"
	if strings.HasPrefix(part, dir) {
		return strings.TrimPrefix(part, dir)
	}
	return "/" + part
}

// nextFreeName returns the lowest "<prefix><n><suffix>" not yet in the package.
func (d *Document) nextFreeName(prefix, suffix string) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s%d%s", prefix, n, suffix)
		if _, ok := d.index[name]; !ok {
			return name
		}
	}
}

// storyParts returns the main part and every header/footer part, sorted.
func (d *Document) storyParts() []string {
	parts := []string{d.mainPart}
	var extra []string
	for _, e := range d.entries {
		base := path.Base(e.name)
		if path.Dir(e.name) == path.Dir(d.mainPart) && path.Ext(base) == ".xml" &&
			(strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")) {
			extra = append(extra, e.name)
		}
	}
	sort.Strings(extra)
	return append(parts, extra...)
}
