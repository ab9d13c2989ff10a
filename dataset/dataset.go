// Package dataset turns MNIST-style files on disk into toolbox samples.
//
// Two layouts are supported: the mnist.npz archive distributed with Keras,
// and a directory of numbered 24-bit BMP files whose class label is stored in
// the reserved field of the BMP file header.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/ahmedtd/mlp/toolbox"
	"gonum.org/v1/gonum/mat"
)

const (
	ImageWidth  = 28
	ImageHeight = 28
	ImageSize   = ImageWidth * ImageHeight
	NumClasses  = 10
)

var (
	ErrImageSize  = errors.New("image is not 28x28")
	ErrLabelRange = errors.New("label out of range")
)

// Limits caps how many samples are loaded from each split.  Zero means no
// limit.
type Limits struct {
	Train int
	Test  int
}

// MakeSample scales 8-bit gray pixels into [0, 1] and one-hot encodes label.
func MakeSample(pixels []uint8, label int) (toolbox.Sample, error) {
	if len(pixels) != ImageSize {
		return toolbox.Sample{}, fmt.Errorf("%w: got %d pixels", ErrImageSize, len(pixels))
	}
	if label < 0 || label >= NumClasses {
		return toolbox.Sample{}, fmt.Errorf("%w: %d", ErrLabelRange, label)
	}

	image := mat.NewVecDense(ImageSize, nil)
	for j, p := range pixels {
		image.SetVec(j, float64(p)/255)
	}

	return toolbox.Sample{Image: image, Label: toolbox.OneHot(label, NumClasses)}, nil
}

// SamplePixels is the inverse of MakeSample.
func SamplePixels(s toolbox.Sample) ([]uint8, int, error) {
	if s.Image == nil || s.Image.Len() != ImageSize {
		return nil, 0, ErrImageSize
	}
	label, err := toolbox.TrueClass(s.Label)
	if err != nil {
		return nil, 0, err
	}

	pixels := make([]uint8, ImageSize)
	for j := range pixels {
		v := math.Round(s.Image.AtVec(j) * 255)
		pixels[j] = uint8(math.Max(0, math.Min(255, v)))
	}
	return pixels, label, nil
}

func limit(n, maxCount int) int {
	if maxCount > 0 && maxCount < n {
		return maxCount
	}
	return n
}
