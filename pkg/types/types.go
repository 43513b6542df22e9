package types

import (
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Preset is a print size expressed as a width:height ratio in arbitrary
// units (inches for the defaults). It is not a pixel size.
type Preset struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DefaultPresets are the standard print sizes produced for every image.
var DefaultPresets = []Preset{
	{24, 36},
	{18, 24},
	{16, 20},
	{11, 14},
	{5, 7},
}

// String returns the preset as "WxH"
func (p Preset) String() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Ratio returns width divided by height
func (p Preset) Ratio() float64 {
	return float64(p.Width) / float64(p.Height)
}

// Valid reports whether both sides are positive
func (p Preset) Valid() bool {
	return p.Width > 0 && p.Height > 0
}

// PixelSize returns the output size in pixels at the given dots per unit
func (p Preset) PixelSize(dpi int) (int, int) {
	return p.Width * dpi, p.Height * dpi
}

// ParsePreset parses a "WxH" string such as "16x20"
func ParsePreset(s string) (Preset, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Preset{}, fmt.Errorf("invalid preset %q: expected WxH", s)
	}
	pw, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return Preset{}, fmt.Errorf("invalid preset width in %q: %w", s, err)
	}
	ph, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return Preset{}, fmt.Errorf("invalid preset height in %q: %w", s, err)
	}
	p := Preset{Width: pw, Height: ph}
	if !p.Valid() {
		return Preset{}, fmt.Errorf("invalid preset %q: sides must be positive", s)
	}
	return p, nil
}

// ImageInfo holds the intrinsic metadata of a source image
type ImageInfo struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// CropBox is a pixel rectangle inside the source image
type CropBox struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the box to an image.Rectangle
func (b CropBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Left+b.Width, b.Top+b.Height)
}

// Artifact describes one written output image
type Artifact struct {
	Preset Preset `json:"preset"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Bytes  int64  `json:"bytes"`
}

// OutputOptions controls how artifacts are encoded and where they go
type OutputOptions struct {
	Dir       string
	Format    string
	Quality   int
	Lossless  bool
	CreateDir bool
}
