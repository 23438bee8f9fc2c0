package ooxml

import (
	"bytes"
	"crypto/sha256"
	"encoding/xml"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/fumiama/go-docx"
)

// Length is a distance in English Metric Units.
type Length int64

const emuPerInch = 914400

// Inches converts inches to EMU.
func Inches(in float64) Length {
	return Length(in * emuPerInch)
}

// Inches converts the length back to inches.
func (l Length) Inches() float64 {
	return float64(l) / emuPerInch
}

// Picture is an image ready to be embedded.
type Picture struct {
	Name        string // shown as the drawing's description
	Data        []byte
	Ext         string // file extension without the dot, e.g. "png"
	ContentType string
	PixelWidth  int
	PixelHeight int
}

// ErrBadPicture is returned for pictures that cannot be embedded.
var ErrBadPicture = errors.New("unusable picture")

func (p *Picture) validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: nil", ErrBadPicture)
	case len(p.Data) == 0:
		return fmt.Errorf("%w: no data", ErrBadPicture)
	case p.Ext == "" || p.ContentType == "":
		return fmt.Errorf("%w: unknown format", ErrBadPicture)
	case p.PixelWidth <= 0 || p.PixelHeight <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrBadPicture, p.PixelWidth, p.PixelHeight)
	}
	return nil
}

// AddPicture appends a run holding an inline picture of the given display
// width; the height follows the image's aspect ratio.
//
// Every identifier is derived from the current package content: the media
// part is shared with any identical image already present, the relationship
// takes the lowest free id and the drawing the next free docPr id. Applying
// the same edits to two copies of one source therefore gives identical parts.
func (p *Paragraph) AddPicture(pic *Picture, width Length) (Run, error) {
	if err := pic.validate(); err != nil {
		return Run{}, err
	}
	if width <= 0 {
		return Run{}, fmt.Errorf("%w: width %d", ErrBadPicture, width)
	}
	d := p.hf.doc

	media, err := d.addMedia(pic)
	if err != nil {
		return Run{}, err
	}
	rels, err := d.rels(p.hf.part)
	if err != nil {
		return Run{}, err
	}
	rid := rels.add(relImage, media)

	docPrID := d.nextDrawingID()
	height := Length(int64(width) * int64(pic.PixelHeight) / int64(pic.PixelWidth))

	drawing, err := drawingElement(pic, rid, docPrID, width, height)
	if err != nil {
		return Run{}, err
	}
	ensureNamespace(p.hf.root, "wp", nsWP)
	ensureNamespace(p.hf.root, "r", nsR)

	r := p.el.CreateElement("w:r")
	r.AddChild(drawing)
	d.markDirty(p.hf.part)
	return Run{el: r}, nil
}

// addMedia stores the picture under word/media, reusing an existing part
// with identical bytes.
func (d *Document) addMedia(pic *Picture) (string, error) {
	sum := sha256.Sum256(pic.Data)
	mediaDir := path.Join(path.Dir(d.mainPart), "media") + "/"
	for _, e := range d.entries {
		if strings.HasPrefix(e.name, mediaDir) && sha256.Sum256(e.data) == sum {
			return e.name, nil
		}
	}
	name := d.nextFreeName(mediaDir+"image", "."+pic.Ext)
	d.putPart(name, pic.Data)
	if err := d.ensureDefaultContentType(pic.Ext, pic.ContentType); err != nil {
		return "", err
	}
	return name, nil
}

// nextDrawingID returns one more than the largest wp:docPr id used in the
// main document and its headers and footers. Unparsable parts are ignored.
func (d *Document) nextDrawingID() int {
	highest := 0
	for _, part := range d.storyParts() {
		root, err := d.root(part)
		if err != nil {
			continue
		}
		for _, el := range root.FindElements(".//docPr") {
			if n, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && n > highest {
				highest = n
			}
		}
	}
	return highest + 1
}

// drawingElement renders an inline w:drawing with go-docx's DrawingML
// types and lifts it into an element tree.
func drawingElement(pic *Picture, rid string, id int, cx, cy Length) (*etree.Element, error) {
	name := "Picture " + strconv.Itoa(id)
	dr := &docx.Drawing{
		Inline: &docx.WPInline{
			Extent:       &docx.WPExtent{CX: int64(cx), CY: int64(cy)},
			EffectExtent: &docx.WPEffectExtent{},
			DocPr:        &docx.WPDocPr{ID: id, Name: name},
			CNvGraphicFramePr: &docx.WPCNvGraphicFramePr{
				Locks: docx.AGraphicFrameLocks{
					XMLA:           docx.XMLNS_DRAWINGML_MAIN,
					NoChangeAspect: 1,
				},
			},
			Graphic: &docx.AGraphic{
				XMLA: docx.XMLNS_DRAWINGML_MAIN,
				GraphicData: &docx.AGraphicData{
					URI: docx.XMLNS_PICTURE,
					Pic: &docx.Picture{
						XMLPIC: docx.XMLNS_DRAWINGML_PICTURE,
						NonVisualPicProperties: &docx.PICNonVisualPicProperties{
							NonVisualDrawingProperties: docx.NonVisualProperties{
								ID:   0,
								Name: pictureName(pic),
							},
						},
						BlipFill: &docx.PICBlipFill{
							Blip:    docx.ABlip{Embed: rid},
							Stretch: docx.AStretch{FillRect: &docx.AFillRect{}},
						},
						SpPr: &docx.PICSpPr{
							Xfrm:     docx.AXfrm{Ext: docx.AExt{CX: int64(cx), CY: int64(cy)}},
							PrstGeom: &docx.APrstGeom{Prst: "rect"},
						},
					},
				},
			},
		},
	}
	raw, err := xml.Marshal(dr)
	if err != nil {
		return nil, fmt.Errorf("marshal drawing: %w", err)
	}
	frag := etree.NewDocument()
	if _, err := frag.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("parse drawing: %w", err)
	}
	el := frag.Root()
	if el == nil {
		return nil, errors.New("parse drawing: empty")
	}
	frag.RemoveChild(el)
	return el, nil
}

func pictureName(pic *Picture) string {
	if pic.Name != "" {
		return pic.Name
	}
	return "image." + pic.Ext
}

func ensureNamespace(root *etree.Element, prefix, uri string) {
	if root.SelectAttr("xmlns:"+prefix) == nil {
		root.CreateAttr("xmlns:"+prefix, uri)
	}
}
