package cropper

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/printcrop/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Gradient so every pixel is distinguishable by position
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	return img
}

func TestNew(t *testing.T) {
	c := New()
	require.NotNil(t, c)
	assert.Equal(t, 1, c.config.MinCropSize)
}

func TestNewWithConfig(t *testing.T) {
	c := NewWithConfig(CropConfig{MinCropSize: 50})
	assert.Equal(t, 50, c.config.MinCropSize)

	c = NewWithConfig(CropConfig{})
	assert.Equal(t, 1, c.config.MinCropSize)
}

func TestComputeCropBox(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		preset        types.Preset
		want          types.CropBox
	}{
		{
			name:  "square source portrait preset",
			width: 1000, height: 1000,
			preset: types.Preset{Width: 16, Height: 20},
			want:   types.CropBox{Left: 100, Top: 0, Width: 800, Height: 1000},
		},
		{
			name:  "landscape source 2:3 preset",
			width: 4000, height: 3000,
			preset: types.Preset{Width: 24, Height: 36},
			want:   types.CropBox{Left: 1000, Top: 0, Width: 2000, Height: 3000},
		},
		{
			name:  "tall source keeps full width",
			width: 3000, height: 6000,
			preset: types.Preset{Width: 18, Height: 24},
			want:   types.CropBox{Left: 0, Top: 1000, Width: 3000, Height: 4000},
		},
		{
			name:  "landscape preset on portrait source",
			width: 3000, height: 4000,
			preset: types.Preset{Width: 36, Height: 24},
			want:   types.CropBox{Left: 0, Top: 1000, Width: 3000, Height: 2000},
		},
		{
			name:  "exact ratio match",
			width: 500, height: 700,
			preset: types.Preset{Width: 5, Height: 7},
			want:   types.CropBox{Left: 0, Top: 0, Width: 500, Height: 700},
		},
		{
			name:  "half pixel offset rounds up",
			width: 1001, height: 1000,
			preset: types.Preset{Width: 16, Height: 20},
			want:   types.CropBox{Left: 101, Top: 0, Width: 800, Height: 1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeCropBox(tt.width, tt.height, tt.preset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeCropBoxInvalid(t *testing.T) {
	_, err := ComputeCropBox(0, 100, types.Preset{Width: 5, Height: 7})
	assert.Error(t, err)

	_, err = ComputeCropBox(100, 100, types.Preset{Width: 0, Height: 7})
	assert.Error(t, err)
}

func TestComputeCropBoxInvariants(t *testing.T) {
	sizes := []int{1, 2, 3, 7, 10, 99, 100, 101, 333, 640, 1000, 1023, 1920, 4032}

	for _, w := range sizes {
		for _, h := range sizes {
			for _, p := range types.DefaultPresets {
				box, err := ComputeCropBox(w, h, p)
				require.NoError(t, err, "%dx%d %s", w, h, p)

				assert.LessOrEqual(t, box.Left+box.Width, w)
				assert.LessOrEqual(t, box.Top+box.Height, h)
				assert.Equal(t, round(float64(w-box.Width)/2), box.Left)
				assert.Equal(t, round(float64(h-box.Height)/2), box.Top)

				// Portrait presets on sources at least as wide as tall always
				// take full height, and full width whenever they fit.
				if w >= h {
					assert.LessOrEqual(t, box.Height, h)
					if round(float64(w)/p.Ratio()) <= h {
						assert.Equal(t, w, box.Width)
					}
				}
			}
		}
	}
}

func TestCropToPreset(t *testing.T) {
	c := New()
	img := createTestImage(400, 300)

	result, err := c.CropToPreset(img, types.Preset{Width: 5, Height: 7})
	require.NoError(t, err)

	// 300 * 5/7 = 214.28 -> 214 wide, left = round(186/2) = 93
	assert.Equal(t, types.CropBox{Left: 93, Top: 0, Width: 214, Height: 300}, result.Box)
	bounds := result.Image.Bounds()
	assert.Equal(t, 214, bounds.Dx())
	assert.Equal(t, 300, bounds.Dy())

	r, g, _, _ := result.Image.At(0, 0).RGBA()
	assert.Equal(t, uint32(93), r>>8)
	assert.Equal(t, uint32(0), g>>8)
}

func TestExtractOffsetBounds(t *testing.T) {
	c := New()
	img := createTestImage(200, 200).(*image.RGBA).SubImage(image.Rect(50, 50, 150, 150))

	out, err := c.Extract(img, types.CropBox{Left: 10, Top: 20, Width: 30, Height: 40})
	require.NoError(t, err)
	assert.Equal(t, 30, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())

	r, g, _, _ := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(60), r>>8)
	assert.Equal(t, uint32(70), g>>8)
}

func TestExtractRejectsBadBox(t *testing.T) {
	c := NewWithConfig(CropConfig{MinCropSize: 10})
	img := createTestImage(100, 100)

	_, err := c.Extract(img, types.CropBox{Left: 50, Top: 0, Width: 60, Height: 10})
	assert.Error(t, err)

	_, err = c.Extract(img, types.CropBox{Left: 0, Top: 0, Width: 5, Height: 5})
	assert.Error(t, err)

	_, err = c.Extract(img, types.CropBox{Left: -1, Top: 0, Width: 10, Height: 10})
	assert.Error(t, err)
}

func BenchmarkComputeCropBox(b *testing.B) {
	for i := 0; i < b.N; i++ {
		for _, p := range types.DefaultPresets {
			_, _ = ComputeCropBox(4032, 3024, p)
		}
	}
}

func BenchmarkCropToPreset(b *testing.B) {
	c := New()
	img := createTestImage(1920, 1080)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range types.DefaultPresets {
			_, _ = c.CropToPreset(img, p)
		}
	}
}
