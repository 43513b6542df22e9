package analyzer

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/printcrop/pkg/types"
)

// sniffLen is the number of bytes http.DetectContentType looks at
const sniffLen = 512

// ImageAnalyzer inspects source images before they are transformed
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	// SupportedTypes lists accepted MIME types of source files
	SupportedTypes []string
}

// DefaultSupportedTypes are the MIME types a source image may have
var DefaultSupportedTypes = []string{"image/gif", "image/png", "image/jpeg"}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedTypes: DefaultSupportedTypes,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	if len(config.SupportedTypes) == 0 {
		config.SupportedTypes = DefaultSupportedTypes
	}
	return &ImageAnalyzer{config: config}
}

// DetectType sniffs the MIME type of a file from its leading bytes
func (a *ImageAnalyzer) DetectType(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	return a.DetectTypeFromReader(file)
}

// DetectTypeFromReader sniffs the MIME type of the data in reader
func (a *ImageAnalyzer) DetectTypeFromReader(reader io.Reader) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read image header: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}

// CheckSupported rejects files that are not one of the supported image types
func (a *ImageAnalyzer) CheckSupported(path string) error {
	mimeType, err := a.DetectType(path)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrUnsupportedInput, err)
	}
	if !a.isTypeSupported(mimeType) {
		return fmt.Errorf("%w: %s is %s", types.ErrUnsupportedInput, path, mimeType)
	}
	return nil
}

// ReadInfo reads the intrinsic dimensions of an image without decoding pixels
func (a *ImageAnalyzer) ReadInfo(path string) (types.ImageInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return types.ImageInfo{}, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return types.ImageInfo{}, fmt.Errorf("failed to decode image header: %w", err)
	}

	return types.ImageInfo{
		Path:   path,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// LoadImage decodes the full image. EXIF orientation is not applied, so
// the pixel grid matches the dimensions reported by ReadInfo.
func (a *ImageAnalyzer) LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// GetImageInfo returns the dimensions of an already decoded image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) types.ImageInfo {
	bounds := img.Bounds()
	return types.ImageInfo{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}

func (a *ImageAnalyzer) isTypeSupported(mimeType string) bool {
	for _, supported := range a.config.SupportedTypes {
		if strings.EqualFold(mimeType, supported) {
			return true
		}
	}
	return false
}
