package cropper

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/batchcrop/pkg/analyzer"
	"github.com/menta2k/batchcrop/pkg/types"
)

// createTestImage creates an image whose pixel color encodes its coordinates
func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

func mustNew(t testing.TB, ratio float64) *Cropper {
	c, err := New(ratio)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	c, err := New(1.5)
	require.NoError(t, err)
	assert.Equal(t, 1.5, c.Ratio())

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := New(bad)
		assert.Error(t, err, "ratio %v", bad)
	}
}

func TestCropSize(t *testing.T) {
	c := mustNew(t, 1.5)

	tests := []struct {
		name string
		img  types.Size
		o    types.Orientation
		want types.Size
	}{
		{"wide landscape narrows width", types.Size{W: 1600, H: 1000}, types.Landscape, types.Size{W: 1500, H: 1000}},
		{"tall landscape narrows height", types.Size{W: 1500, H: 1200}, types.Landscape, types.Size{W: 1500, H: 1000}},
		{"exact ratio keeps size", types.Size{W: 1500, H: 1000}, types.Landscape, types.Size{W: 1500, H: 1000}},
		{"auto resolves portrait", types.Size{W: 1000, H: 1600}, types.Auto, types.Size{W: 1000, H: 1500}},
		{"square auto is portrait", types.Size{W: 900, H: 900}, types.Auto, types.Size{W: 600, H: 900}},
		{"forced portrait on landscape", types.Size{W: 1600, H: 1000}, types.Portrait, types.Size{W: 666, H: 1000}},
		{"tiny image keeps one pixel", types.Size{W: 1, H: 1}, types.Auto, types.Size{W: 1, H: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.CropSize(tt.img, tt.o))
		})
	}
}

func TestCropSizeProperties(t *testing.T) {
	for _, ratio := range []float64{1.0, 1.5, 4.0 / 3.0, 16.0 / 9.0, 0.8} {
		c := mustNew(t, ratio)
		for w := 200; w <= 3000; w += 97 {
			for h := 200; h <= 3000; h += 113 {
				img := types.Size{W: w, H: h}
				for _, o := range []types.Orientation{types.Auto, types.Landscape, types.Portrait} {
					crop := c.CropSize(img, o)

					require.LessOrEqual(t, crop.W, img.W)
					require.LessOrEqual(t, crop.H, img.H)

					if analyzer.IsCorrectRatio(img, crop) {
						continue
					}

					narrowed := 0
					if crop.W < img.W {
						narrowed++
					}
					if crop.H < img.H {
						narrowed++
					}
					require.Equal(t, 1, narrowed, "img=%v crop=%v ratio=%v", img, crop, ratio)

					target := ratio
					if analyzer.ResolveOrientation(img, o) == types.Portrait {
						target = 1 / ratio
					}
					got := float64(crop.W) / float64(crop.H)
					require.InDelta(t, 1.0, got/target, 0.01, "img=%v crop=%v", img, crop)
				}
			}
		}
	}
}

func TestCropSizeAlreadyCorrect(t *testing.T) {
	c := mustNew(t, 1.5)
	img := types.Size{W: 1500, H: 1000}
	crop := c.CropSize(img, types.Auto)
	assert.Equal(t, img, crop)
	assert.True(t, analyzer.IsCorrectRatio(img, crop))
}

func TestInitial(t *testing.T) {
	c := mustNew(t, 1.5)
	r := c.Initial(types.Size{W: 1600, H: 1000})
	assert.Equal(t, types.Rect{X: 50, Y: 0, W: 1500, H: 1000}, r)
}

func TestCenterOffset(t *testing.T) {
	assert.Equal(t, image.Pt(50, 0), CenterOffset(types.Size{W: 1600, H: 1000}, types.Size{W: 1500, H: 1000}))
	assert.Equal(t, image.Pt(0, 100), CenterOffset(types.Size{W: 1500, H: 1201}, types.Size{W: 1500, H: 1000}))
}

func TestSnapOffset(t *testing.T) {
	img := types.Size{W: 1600, H: 1000}
	crop := types.Size{W: 1500, H: 1000}

	assert.Equal(t, image.Pt(100, 0), SnapOffset(types.Right, img, crop))
	assert.Equal(t, image.Pt(0, 0), SnapOffset(types.Left, img, crop))
	assert.Equal(t, image.Pt(0, 0), SnapOffset(types.Up, img, crop))

	tall := types.Size{W: 1000, H: 1600}
	pcrop := types.Size{W: 1000, H: 1500}
	assert.Equal(t, image.Pt(0, 100), SnapOffset(types.Down, tall, pcrop))
	// Left and Up share the origin as their target
	assert.Equal(t, SnapOffset(types.Left, tall, pcrop), SnapOffset(types.Up, tall, pcrop))
}

func TestPanSteps(t *testing.T) {
	large, small := PanSteps(types.Size{W: 6000, H: 4000})
	assert.Equal(t, 60, large)
	assert.Equal(t, 12, small)

	large, small = PanSteps(types.Size{W: 300, H: 499})
	assert.Equal(t, 4, large)
	assert.Equal(t, 0, small)
}

func TestPanDelta(t *testing.T) {
	assert.Equal(t, image.Pt(-5, 0), PanDelta(types.Left, 5))
	assert.Equal(t, image.Pt(5, 0), PanDelta(types.Right, 5))
	assert.Equal(t, image.Pt(0, -5), PanDelta(types.Up, 5))
	assert.Equal(t, image.Pt(0, 5), PanDelta(types.Down, 5))
}

func TestClampOffset(t *testing.T) {
	img := types.Size{W: 1600, H: 1000}
	crop := types.Size{W: 1500, H: 1000}

	assert.Equal(t, image.Pt(0, 0), ClampOffset(img, crop, image.Pt(-20, -3)))
	assert.Equal(t, image.Pt(100, 0), ClampOffset(img, crop, image.Pt(250, 40)))
	assert.Equal(t, image.Pt(42, 0), ClampOffset(img, crop, image.Pt(42, 0)))
}

func TestClampOffsetIdempotent(t *testing.T) {
	img := types.Size{W: 1200, H: 900}
	crop := types.Size{W: 600, H: 900}
	for x := -700; x <= 1400; x += 37 {
		for y := -50; y <= 50; y += 25 {
			p := ClampOffset(img, crop, image.Pt(x, y))
			require.GreaterOrEqual(t, p.X, 0)
			require.LessOrEqual(t, p.X, img.W-crop.W)
			require.Equal(t, 0, p.Y)
			require.Equal(t, p, ClampOffset(img, crop, p))
		}
	}
}

func TestCrop(t *testing.T) {
	img := createTestImage(200, 100)
	out, err := Crop(img, types.Rect{X: 50, Y: 10, W: 120, H: 80})
	require.NoError(t, err)

	b := out.Bounds()
	assert.Equal(t, 120, b.Dx())
	assert.Equal(t, 80, b.Dy())
	assert.Equal(t, image.Point{}, b.Min)

	r, g, _, _ := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(50), r>>8)
	assert.Equal(t, uint32(10), g>>8)
}

func TestCropOutOfBounds(t *testing.T) {
	img := createTestImage(200, 100)
	_, err := Crop(img, types.Rect{X: 100, Y: 0, W: 150, H: 100})
	assert.Error(t, err)
}

func BenchmarkCropSize(b *testing.B) {
	c := mustNew(b, 1.5)
	img := types.Size{W: 6000, H: 4000}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.CropSize(img, types.Auto)
	}
}

func BenchmarkCrop(b *testing.B) {
	img := createTestImage(1920, 1080)
	r := mustNew(b, 1.5).Initial(types.SizeOf(img))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Crop(img, r)
	}
}
