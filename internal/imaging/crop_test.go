package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omrscan/internal/domain"
)

// testPNG renders a 100x80 image whose left half is red and right half blue,
// so crops can be verified by pixel color.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCrop_HalfImage(t *testing.T) {
	out, err := Crop(testPNG(t), CropRegion{X: 0, Y: 0, W: 0.5, H: 1})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())

	r, _, b, _ := img.At(10, 10).RGBA()
	assert.NotZero(t, r)
	assert.Zero(t, b)
}

func TestCrop_RightRegion(t *testing.T) {
	out, err := Crop(testPNG(t), CropRegion{X: 0.5, Y: 0.25, W: 0.5, H: 0.5})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	r, _, b, _ := img.At(10, 10).RGBA()
	assert.Zero(t, r)
	assert.NotZero(t, b)
}

func TestCrop_ClampsOverflowingExtent(t *testing.T) {
	// x+w > 1 is allowed; the rectangle clamps at the image edge.
	out, err := Crop(testPNG(t), CropRegion{X: 0.9, Y: 0.9, W: 0.5, H: 0.5})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
}

func TestCrop_InvalidCoordinates(t *testing.T) {
	src := testPNG(t)
	for _, region := range []CropRegion{
		{X: -0.1, Y: 0, W: 0.5, H: 0.5},
		{X: 0, Y: 1.5, W: 0.5, H: 0.5},
		{X: 0, Y: 0, W: 0, H: 0.5},
		{X: 0, Y: 0, W: 0.5, H: 0},
	} {
		_, err := Crop(src, region)
		assert.ErrorIs(t, err, domain.ErrInvalidCropRegion, "region %+v", region)
	}
}

func TestCrop_NotAnImage(t *testing.T) {
	_, err := Crop([]byte("definitely not an image"), CropRegion{X: 0, Y: 0, W: 1, H: 1})
	assert.Error(t, err)
}
