package dataset

import (
	"fmt"

	"github.com/ahmedtd/mlp/toolbox"
	"github.com/sbinet/npyio/npz"
)

// LoadNPZ reads x_train, y_train, x_test and y_test from an mnist.npz
// archive.
func LoadNPZ(path string, limits Limits) (train, test []toolbox.Sample, err error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("while opening mnist data file: %w", err)
	}
	defer r.Close()

	train, err = loadSplit(r, "x_train.npy", "y_train.npy", limits.Train)
	if err != nil {
		return nil, nil, fmt.Errorf("while reading training split: %w", err)
	}

	test, err = loadSplit(r, "x_test.npy", "y_test.npy", limits.Test)
	if err != nil {
		return nil, nil, fmt.Errorf("while reading test split: %w", err)
	}

	return train, test, nil
}

func loadSplit(r *npz.Reader, imagesName, labelsName string, maxCount int) ([]toolbox.Sample, error) {
	pixels, shape, err := loadUint8(r, imagesName)
	if err != nil {
		return nil, err
	}
	labels, _, err := loadUint8(r, labelsName)
	if err != nil {
		return nil, err
	}
	return samplesFromRaw(pixels, shape, labels, maxCount)
}

func loadUint8(r *npz.Reader, name string) ([]uint8, []int, error) {
	header := r.Header(name)
	if header == nil {
		return nil, nil, fmt.Errorf("no entry %s", name)
	}

	// numpy writes C-order (row-major) arrays, which is the layout the
	// samples use.
	var raw []uint8
	if err := r.Read(name, &raw); err != nil {
		return nil, nil, fmt.Errorf("while reading %s as uint8 array: %w", name, err)
	}

	return raw, header.Descr.Shape, nil
}

// pixels (input) is a row-major uint8 array.  Shape (n, 28, 28) or (n, 784)
// labels (input) holds one class per image.  Shape (n)
func samplesFromRaw(pixels []uint8, shape []int, labels []uint8, maxCount int) ([]toolbox.Sample, error) {
	if len(shape) < 2 {
		return nil, fmt.Errorf("%w: image array shape %v", ErrImageSize, shape)
	}
	perImage := 1
	for _, s := range shape[1:] {
		perImage *= s
	}
	if perImage != ImageSize {
		return nil, fmt.Errorf("%w: image array shape %v", ErrImageSize, shape)
	}

	n := shape[0]
	if len(pixels) != n*ImageSize {
		return nil, fmt.Errorf("image array has %d values, shape %v wants %d", len(pixels), shape, n*ImageSize)
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%d labels for %d images", len(labels), n)
	}

	n = limit(n, maxCount)
	samples := make([]toolbox.Sample, n)
	for k := 0; k < n; k++ {
		s, err := MakeSample(pixels[k*ImageSize:(k+1)*ImageSize], int(labels[k]))
		if err != nil {
			return nil, fmt.Errorf("while converting sample %d: %w", k, err)
		}
		samples[k] = s
	}

	return samples, nil
}
