package dataset

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"gonum.org/v1/gonum/mat"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// LoadImageFile decodes a 28x28 PNG, JPEG or BMP image into a network input
// vector.
func LoadImageFile(path string) (*mat.VecDense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("while opening image file: %w", err)
	}
	defer f.Close()

	rawImg, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("while decoding image: %w", err)
	}

	rawBounds := rawImg.Bounds()
	if rawBounds.Dx() != ImageWidth || rawBounds.Dy() != ImageHeight {
		return nil, fmt.Errorf("%w: %s is %dx%d", ErrImageSize, path, rawBounds.Dx(), rawBounds.Dy())
	}

	out := mat.NewVecDense(ImageSize, nil)
	for y := 0; y < ImageHeight; y++ {
		for x := 0; x < ImageWidth; x++ {
			v := float64(color.GrayModel.Convert(rawImg.At(rawBounds.Min.X+x, rawBounds.Min.Y+y)).(color.Gray).Y) / 255
			out.SetVec(y*ImageWidth+x, v)
		}
	}

	return out, nil
}
