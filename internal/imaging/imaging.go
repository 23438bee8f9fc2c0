// Package imaging loads replacement logo images and works out what a
// document needs to embed them: format, content type and pixel size.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KevinLongeway/Safe2Day/internal/ooxml"
	"github.com/fumiama/imgsz"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Extensions is the whitelist of raster formats accepted as logos.
var Extensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tiff"}

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// ErrUnsupported is returned for files outside the whitelist or whose
// content is not a recognised raster image.
var ErrUnsupported = errors.New("unsupported image")

// Image is a loaded logo.
type Image struct {
	Path   string
	Name   string
	Data   []byte
	Format string // png, jpeg, gif, bmp or tiff
	Width  int    // pixels
	Height int    // pixels
}

// IsSupported reports whether filename has a whitelisted extension.
func IsSupported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// List returns the whitelisted images directly inside dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read logo dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Load reads an image file and detects its format and size.
func Load(path string) (*Image, error) {
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	img.Path = path
	img.Name = filepath.Base(path)
	return img, nil
}

// Decode reads format and size from raw image bytes without decoding pixels.
func Decode(data []byte) (*Image, error) {
	w, h, format, err := Probe(data)
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, Format: format, Width: w, Height: h}, nil
}

// Probe returns the pixel size and format of an image. PNG, JPEG and GIF
// headers are read with imgsz; BMP and TIFF with x/image.
func Probe(data []byte) (width, height int, format string, err error) {
	sz, format, err := imgsz.DecodeSize(bytes.NewReader(data))
	if err == nil {
		if format == "jpg" {
			format = "jpeg"
		}
		if _, ok := contentTypes[format]; !ok {
			return 0, 0, "", fmt.Errorf("%w: %s", ErrUnsupported, format)
		}
		return sz.Width, sz.Height, format, nil
	}
	if cfg, berr := bmp.DecodeConfig(bytes.NewReader(data)); berr == nil {
		return cfg.Width, cfg.Height, "bmp", nil
	}
	if cfg, terr := tiff.DecodeConfig(bytes.NewReader(data)); terr == nil {
		return cfg.Width, cfg.Height, "tiff", nil
	}
	return 0, 0, "", fmt.Errorf("%w: %v", ErrUnsupported, err)
}

// ContentType is the MIME type Word expects for the image's format.
func (img *Image) ContentType() string {
	return contentTypes[img.Format]
}

// Picture adapts the image for embedding in a document.
func (img *Image) Picture() *ooxml.Picture {
	return &ooxml.Picture{
		Name:        img.Name,
		Data:        img.Data,
		Ext:         img.Format,
		ContentType: img.ContentType(),
		PixelWidth:  img.Width,
		PixelHeight: img.Height,
	}
}
