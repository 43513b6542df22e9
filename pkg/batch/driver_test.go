package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/printcrop/pkg/analyzer"
	"github.com/menta2k/printcrop/pkg/processing"
	"github.com/menta2k/printcrop/pkg/types"
)

type fakeEngine struct {
	mu      sync.Mutex
	calls   []types.Preset
	fail    map[types.Preset]error
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32
}

func (f *fakeEngine) Produce(ctx context.Context, sourcePath string, preset types.Preset) (types.Artifact, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.calls = append(f.calls, preset)
	f.mu.Unlock()

	if err := f.fail[preset]; err != nil {
		return types.Artifact{}, types.NewTransformError(preset, types.ErrWrite, err)
	}
	return types.Artifact{Preset: preset, Path: fmt.Sprintf("%s %s", preset, filepath.Base(sourcePath))}, nil
}

type rejectAll struct{}

func (rejectAll) CheckSupported(path string) error {
	return fmt.Errorf("%w: %s", types.ErrUnsupportedInput, path)
}

func TestNewDriverDefaults(t *testing.T) {
	d := NewDriver(&fakeEngine{}, nil, Config{})
	assert.Equal(t, types.DefaultPresets, d.Presets())
	assert.Equal(t, len(types.DefaultPresets), d.limit)
}

func TestNewDriverDropsRepeatedPresets(t *testing.T) {
	fiveBySeven := types.Preset{Width: 5, Height: 7}
	fourBySix := types.Preset{Width: 4, Height: 6}
	engine := &fakeEngine{}
	d := NewDriver(engine, nil, Config{
		Presets: []types.Preset{fiveBySeven, fiveBySeven, fourBySix, fiveBySeven},
	})

	assert.Equal(t, []types.Preset{fiveBySeven, fourBySix}, d.Presets())
	assert.Equal(t, 2, d.limit)

	result, err := d.ProcessImage(context.Background(), "/in/photo.jpg")
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.Preset{fiveBySeven, fourBySix}, engine.calls)
	assert.Len(t, result.Outcomes, 2)
}

func TestProcessImageRunsEveryPreset(t *testing.T) {
	engine := &fakeEngine{}
	d := NewDriver(engine, nil, Config{})

	result, err := d.ProcessImage(context.Background(), "/in/photo.jpg")
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "/in/photo.jpg", result.Source)
	assert.ElementsMatch(t, types.DefaultPresets, engine.calls)
	require.Len(t, result.Outcomes, 5)
	for i, o := range result.Outcomes {
		assert.Equal(t, types.DefaultPresets[i], o.Preset)
		assert.NoError(t, o.Err)
	}
	assert.Len(t, result.Artifacts(), 5)
	assert.NoError(t, result.Err())
	assert.Contains(t, result.Summary(), "5 prints written")
}

func TestProcessImageIsolatesFailures(t *testing.T) {
	bad := types.Preset{Width: 11, Height: 14}
	engine := &fakeEngine{fail: map[types.Preset]error{bad: os.ErrPermission}}
	d := NewDriver(engine, nil, Config{})

	result, err := d.ProcessImage(context.Background(), "photo.png")
	require.NoError(t, err)

	assert.Len(t, engine.calls, 5)
	assert.Len(t, result.Artifacts(), 4)
	require.Len(t, result.Failures(), 1)
	assert.True(t, errors.Is(result.Err(), types.ErrWrite))
	assert.True(t, errors.Is(result.Err(), os.ErrPermission))
	assert.Equal(t, bad, result.Outcomes[3].Preset)
	assert.Error(t, result.Outcomes[3].Err)
	assert.Contains(t, result.Summary(), "1 of 5 prints failed")
}

func TestProcessImageRejectsUnsupported(t *testing.T) {
	engine := &fakeEngine{}
	d := NewDriver(engine, rejectAll{}, Config{})

	result, err := d.ProcessImage(context.Background(), "notes.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedInput))
	assert.Empty(t, engine.calls)
	assert.Empty(t, result.Outcomes)
}

func TestProcessImageConcurrencyLimit(t *testing.T) {
	engine := &fakeEngine{delay: 20 * time.Millisecond}
	d := NewDriver(engine, nil, Config{Concurrency: 1})

	_, err := d.ProcessImage(context.Background(), "photo.png")
	require.NoError(t, err)
	assert.Equal(t, int32(1), engine.peak.Load())
	assert.Equal(t, types.DefaultPresets, engine.calls)

	engine = &fakeEngine{delay: 20 * time.Millisecond}
	d = NewDriver(engine, nil, Config{Concurrency: 2})
	_, err = d.ProcessImage(context.Background(), "photo.png")
	require.NoError(t, err)
	assert.LessOrEqual(t, engine.peak.Load(), int32(2))
}

// end-to-end against the real engine

func writeSource(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	path := filepath.Join(t.TempDir(), "portrait.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func newRealDriver(t *testing.T, outDir string) (*Driver, *processing.Processor) {
	t.Helper()
	a := analyzer.New()
	p, err := processing.NewProcessor(processing.Config{
		DPI:      8,
		Analyzer: a,
		Output:   types.OutputOptions{Dir: outDir, CreateDir: true},
	})
	require.NoError(t, err)
	return NewDriver(p, a, Config{}), p
}

func TestProcessImageWritesAllPresets(t *testing.T) {
	src := writeSource(t, 300, 200)
	outDir := filepath.Join(t.TempDir(), "results")
	d, _ := newRealDriver(t, outDir)

	result, err := d.ProcessImage(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	for _, p := range types.DefaultPresets {
		path := filepath.Join(outDir, p.String()+" portrait.png")
		f, err := os.Open(path)
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, p.Width*8, cfg.Width)
		assert.Equal(t, p.Height*8, cfg.Height)
	}
}

func TestProcessImageTwiceIsIdentical(t *testing.T) {
	src := writeSource(t, 240, 180)
	outDir := t.TempDir()
	d, _ := newRealDriver(t, outDir)

	_, err := d.ProcessImage(context.Background(), src)
	require.NoError(t, err)
	first := map[string][]byte{}
	for _, p := range types.DefaultPresets {
		b, err := os.ReadFile(filepath.Join(outDir, p.String()+" portrait.png"))
		require.NoError(t, err)
		first[p.String()] = b
	}

	_, err = d.ProcessImage(context.Background(), src)
	require.NoError(t, err)
	for _, p := range types.DefaultPresets {
		b, err := os.ReadFile(filepath.Join(outDir, p.String()+" portrait.png"))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(first[p.String()], b), "%s changed between runs", p)
	}
}

func TestProcessImageRejectsTextFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "readme.png")
	require.NoError(t, os.WriteFile(src, []byte("hello, I am not a picture\n"), 0o644))
	outDir := filepath.Join(t.TempDir(), "results")
	d, _ := newRealDriver(t, outDir)

	_, err := d.ProcessImage(context.Background(), src)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrUnsupportedInput))
	assert.NoDirExists(t, outDir)
}

func TestProcessImageWriteFailureIsLocal(t *testing.T) {
	src := writeSource(t, 300, 200)
	outDir := t.TempDir()
	d, p := newRealDriver(t, outDir)

	blocked := types.Preset{Width: 16, Height: 20}
	info, err := p.Analyzer().ReadInfo(src)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(p.OutputPath(info, blocked), 0o755))

	result, err := d.ProcessImage(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, result.Failures(), 1)
	assert.True(t, errors.Is(result.Failures()[0], types.ErrWrite))
	assert.Len(t, result.Artifacts(), 4)
	for _, a := range result.Artifacts() {
		assert.FileExists(t, a.Path)
	}
}

func TestProcessImageRepeatedPresetWritesOnce(t *testing.T) {
	src := writeSource(t, 300, 200)
	outDir := t.TempDir()
	a := analyzer.New()
	p, err := processing.NewProcessor(processing.Config{
		DPI:      8,
		Analyzer: a,
		Output:   types.OutputOptions{Dir: outDir},
	})
	require.NoError(t, err)

	preset := types.Preset{Width: 5, Height: 7}
	d := NewDriver(p, a, Config{Presets: []types.Preset{preset, preset, preset, preset}})

	result, err := d.ProcessImage(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, result.Err())
	require.Len(t, result.Artifacts(), 1)
	assert.FileExists(t, filepath.Join(outDir, "5x7 portrait.png"))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
