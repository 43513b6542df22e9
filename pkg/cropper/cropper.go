package cropper

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/printcrop/pkg/types"
)

// CenterCropper cuts the largest centered region of a given aspect ratio
// out of an image
type CenterCropper struct {
	config CropConfig
}

// CropConfig holds configuration for center cropping
type CropConfig struct {
	// MinCropSize rejects boxes whose shorter side falls below it
	MinCropSize int
}

// New creates a new CenterCropper with default configuration
func New() *CenterCropper {
	return &CenterCropper{
		config: CropConfig{
			MinCropSize: 1,
		},
	}
}

// NewWithConfig creates a new CenterCropper with custom configuration
func NewWithConfig(config CropConfig) *CenterCropper {
	if config.MinCropSize < 1 {
		config.MinCropSize = 1
	}
	return &CenterCropper{config: config}
}

// CropResult contains the result of a cropping operation
type CropResult struct {
	Image  image.Image
	Box    types.CropBox
	Preset types.Preset
}

// ComputeCropBox returns the largest box of the preset's aspect ratio that
// fits a width x height image, centered on both axes.
//
// The box starts at full width; if the matching height would overflow, it
// is clamped to full height and the width is derived from it instead.
func ComputeCropBox(width, height int, preset types.Preset) (types.CropBox, error) {
	if width <= 0 || height <= 0 {
		return types.CropBox{}, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if !preset.Valid() {
		return types.CropBox{}, fmt.Errorf("invalid preset %s", preset)
	}

	aspectRatio := preset.Ratio()

	cropWidth := width
	cropHeight := round(float64(width) / aspectRatio)
	if cropHeight > height {
		cropHeight = height
		cropWidth = round(float64(height) * aspectRatio)
	}

	box := types.CropBox{
		Left:   round(float64(width-cropWidth) / 2),
		Top:    round(float64(height-cropHeight) / 2),
		Width:  cropWidth,
		Height: cropHeight,
	}
	if err := CheckBox(box, width, height); err != nil {
		return types.CropBox{}, err
	}
	return box, nil
}

// CheckBox verifies that a box is non-empty and lies inside the image
func CheckBox(box types.CropBox, width, height int) error {
	if box.Width <= 0 || box.Height <= 0 {
		return fmt.Errorf("empty crop box %dx%d", box.Width, box.Height)
	}
	if box.Left < 0 || box.Top < 0 || box.Left+box.Width > width || box.Top+box.Height > height {
		return fmt.Errorf("crop box %dx%d+%d+%d exceeds image %dx%d",
			box.Width, box.Height, box.Left, box.Top, width, height)
	}
	return nil
}

// CropToPreset crops an image to the centered box of the preset's ratio
func (c *CenterCropper) CropToPreset(img image.Image, preset types.Preset) (CropResult, error) {
	bounds := img.Bounds()
	box, err := ComputeCropBox(bounds.Dx(), bounds.Dy(), preset)
	if err != nil {
		return CropResult{}, err
	}

	cropped, err := c.Extract(img, box)
	if err != nil {
		return CropResult{}, err
	}

	return CropResult{
		Image:  cropped,
		Box:    box,
		Preset: preset,
	}, nil
}

// Extract copies the box out of img. The box is relative to img's bounds.
func (c *CenterCropper) Extract(img image.Image, box types.CropBox) (image.Image, error) {
	bounds := img.Bounds()
	if err := CheckBox(box, bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}
	if box.Width < c.config.MinCropSize || box.Height < c.config.MinCropSize {
		return nil, fmt.Errorf("crop box %dx%d is below minimum size %d",
			box.Width, box.Height, c.config.MinCropSize)
	}

	rect := box.Rect().Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}

// round rounds half up. All inputs here are non-negative.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
