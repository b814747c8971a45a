package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	_ "image/jpeg"

	"omrscan/internal/domain"
)

// CropRegion is a rectangle in relative coordinates: x/y is the top-left
// corner and w/h the extent, all as fractions of the image dimensions.
type CropRegion struct {
	X float64
	Y float64
	W float64
	H float64
}

// Validate checks that every coordinate lies within [0,1] and the region has
// positive area.
func (r CropRegion) Validate() error {
	for _, v := range []float64{r.X, r.Y, r.W, r.H} {
		if v < 0 || v > 1 {
			return domain.ErrInvalidCropRegion
		}
	}
	if r.W == 0 || r.H == 0 {
		return domain.ErrInvalidCropRegion
	}
	return nil
}

// Crop decodes src, cuts out the region (clamped to the image bounds), and
// re-encodes the result as PNG regardless of the source format.
func Crop(src []byte, region CropRegion) ([]byte, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	left := clamp(int(region.X*float64(width)), 0, width)
	top := clamp(int(region.Y*float64(height)), 0, height)
	right := clamp(int((region.X+region.W)*float64(width)), 0, width)
	bottom := clamp(int((region.Y+region.H)*float64(height)), 0, height)
	if right <= left || bottom <= top {
		return nil, domain.ErrInvalidCropRegion
	}

	rect := image.Rect(left, top, right, bottom).Add(bounds.Min)
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encoding cropped image: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
