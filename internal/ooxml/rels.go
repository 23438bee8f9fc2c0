package ooxml

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// relationships is the parsed _rels part of a source part.
type relationships struct {
	doc    *Document
	source string
	part   string
	root   *etree.Element
}

// rels returns the relationships of a source part, creating an empty
// relationships part in memory when the source has none yet.
func (d *Document) rels(source string) (*relationships, error) {
	name := relsPartName(source)
	if !d.HasPart(name) {
		doc := etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
		root := doc.CreateElement("Relationships")
		root.CreateAttr("xmlns", nsRel)
		d.putXMLPart(name, doc)
	}
	root, err := d.root(name)
	if err != nil {
		return nil, err
	}
	return &relationships{doc: d, source: source, part: name, root: root}, nil
}

// target resolves a relationship id to a part name.
func (r *relationships) target(id string) (string, bool) {
	for _, rel := range r.root.SelectElements("Relationship") {
		if rel.SelectAttrValue("Id", "") != id {
			continue
		}
		if rel.SelectAttrValue("TargetMode", "") == "External" {
			return "", false
		}
		return resolveTarget(r.source, rel.SelectAttrValue("Target", "")), true
	}
	return "", false
}

// find returns the id of an existing relationship of the given type that
// points at part.
func (r *relationships) find(relType, part string) (string, bool) {
	for _, rel := range r.root.SelectElements("Relationship") {
		if rel.SelectAttrValue("Type", "") != relType {
			continue
		}
		if resolveTarget(r.source, rel.SelectAttrValue("Target", "")) == part {
			return rel.SelectAttrValue("Id", ""), true
		}
	}
	return "", false
}

// add registers a relationship to part under the lowest free rIdN and
// returns the id. An existing identical relationship is reused.
func (r *relationships) add(relType, part string) string {
	if id, ok := r.find(relType, part); ok {
		return id
	}
	used := make(map[int]bool)
	for _, rel := range r.root.SelectElements("Relationship") {
		num, ok := strings.CutPrefix(rel.SelectAttrValue("Id", ""), "rId")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(num); err == nil {
			used[n] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}
	id := fmt.Sprintf("rId%d", n)

	rel := r.root.CreateElement("Relationship")
	rel.CreateAttr("Id", id)
	rel.CreateAttr("Type", relType)
	rel.CreateAttr("Target", relativeTarget(r.source, part))
	r.doc.markDirty(r.part)
	return id
}

// ensureDefaultContentType declares a content type for a file extension.
func (d *Document) ensureDefaultContentType(ext, contentType string) error {
	root, err := d.root(contentTypesPart)
	if err != nil {
		return err
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, def := range root.SelectElements("Default") {
		if strings.EqualFold(def.SelectAttrValue("Extension", ""), ext) {
			return nil
		}
	}
	def := etree.NewElement("Default")
	def.CreateAttr("Extension", ext)
	def.CreateAttr("ContentType", contentType)
	// Defaults precede Overrides by convention.
	pos := len(root.Child)
	if first := root.SelectElement("Override"); first != nil {
		pos = first.Index()
	}
	root.InsertChildAt(pos, def)
	d.markDirty(contentTypesPart)
	return nil
}

// ensureOverrideContentType declares the content type of a single part.
func (d *Document) ensureOverrideContentType(part, contentType string) error {
	root, err := d.root(contentTypesPart)
	if err != nil {
		return err
	}
	partName := "/" + part
	for _, o := range root.SelectElements("Override") {
		if o.SelectAttrValue("PartName", "") == partName {
			return nil
		}
	}
	o := root.CreateElement("Override")
	o.CreateAttr("PartName", partName)
	o.CreateAttr("ContentType", contentType)
	d.markDirty(contentTypesPart)
	return nil
}
