package dataset

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/ahmedtd/mlp/toolbox"
	"golang.org/x/image/bmp"
)

// The class label lives in the 4-byte reserved field of the 14-byte BMP file
// header.
const (
	bmpFileHeaderSize = 14
	bmpLabelOffset    = 6
)

// BMPName is the file name of the index'th image in a BMP directory.
func BMPName(index int) string {
	return fmt.Sprintf("%05d.bmp", index)
}

// DecodeBMP reads a BMP image and the label stored in its header.  Pixels are
// returned as gray values in row-major order, top row first.
func DecodeBMP(r io.Reader) (pixels []uint8, width, height, label int, err error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("while reading bmp: %w", err)
	}
	if len(raw) < bmpFileHeaderSize || raw[0] != 'B' || raw[1] != 'M' {
		return nil, 0, 0, 0, fmt.Errorf("not a bmp file")
	}
	label = int(int32(binary.LittleEndian.Uint32(raw[bmpLabelOffset:])))

	img, err := bmp.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, 0, 0, 0, fmt.Errorf("while decoding bmp: %w", err)
	}

	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	pixels = make([]uint8, 0, width*height)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = append(pixels, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}

	return pixels, width, height, label, nil
}

// EncodeBMP writes gray pixels (row-major, top row first) as a 24-bit BMP and
// stores label in the file header.
func EncodeBMP(w io.Writer, pixels []uint8, width, height, label int) error {
	if len(pixels) != width*height {
		return fmt.Errorf("%d pixels for a %dx%d image", len(pixels), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := pixels[y*width+x]
			img.SetRGBA(x, y, color.RGBA{R: p, G: p, B: p, A: 0xff})
		}
	}

	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return fmt.Errorf("while encoding bmp: %w", err)
	}

	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[bmpLabelOffset:], uint32(int32(label)))

	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("while writing bmp: %w", err)
	}
	return nil
}

// LoadBMPFile reads one labeled 28x28 BMP file.
func LoadBMPFile(path string) (toolbox.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return toolbox.Sample{}, fmt.Errorf("while opening %s: %w", path, err)
	}
	defer f.Close()

	pixels, width, height, label, err := DecodeBMP(f)
	if err != nil {
		return toolbox.Sample{}, fmt.Errorf("while reading %s: %w", path, err)
	}
	if width != ImageWidth || height != ImageHeight {
		return toolbox.Sample{}, fmt.Errorf("%w: %s is %dx%d", ErrImageSize, path, width, height)
	}

	s, err := MakeSample(pixels, label)
	if err != nil {
		return toolbox.Sample{}, fmt.Errorf("while converting %s: %w", path, err)
	}
	return s, nil
}

// LoadBMPDir loads the files BMPName(first) .. BMPName(first+count-1) from
// dir.
func LoadBMPDir(dir string, first, count int) ([]toolbox.Sample, error) {
	samples := make([]toolbox.Sample, 0, count)
	for i := first; i < first+count; i++ {
		s, err := LoadBMPFile(filepath.Join(dir, BMPName(i)))
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// WriteBMPDir writes samples to dir as BMPName(first), BMPName(first+1), ...
func WriteBMPDir(dir string, first int, samples []toolbox.Sample) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("while creating %s: %w", dir, err)
	}

	for k, s := range samples {
		pixels, label, err := SamplePixels(s)
		if err != nil {
			return fmt.Errorf("while converting sample %d: %w", k, err)
		}

		path := filepath.Join(dir, BMPName(first+k))
		if err := writeBMPFile(path, pixels, label); err != nil {
			return err
		}
	}
	return nil
}

func writeBMPFile(path string, pixels []uint8, label int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating %s: %w", path, err)
	}
	defer f.Close()

	if err := EncodeBMP(f, pixels, ImageWidth, ImageHeight, label); err != nil {
		return fmt.Errorf("while writing %s: %w", path, err)
	}
	return f.Close()
}
