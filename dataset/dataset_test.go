package dataset

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ahmedtd/mlp/toolbox"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestMakeSampleScalesAndEncodes(t *testing.T) {
	pixels := make([]uint8, ImageSize)
	pixels[0] = 255
	pixels[1] = 51

	s, err := MakeSample(pixels, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if diff := cmp.Diff(s.Image.RawVector().Data[:3], []float64{1, 0.2, 0}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Wrong image; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(s.Label.RawVector().Data, []float64{0, 0, 0, 0, 1, 0, 0, 0, 0, 0}); diff != "" {
		t.Errorf("Wrong label; diff (-got +want)\n%s", diff)
	}

	gotPixels, gotLabel, err := SamplePixels(s)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if gotLabel != 4 {
		t.Errorf("SamplePixels label %d, want 4", gotLabel)
	}
	if diff := cmp.Diff(gotPixels, pixels); diff != "" {
		t.Errorf("SamplePixels; diff (-got +want)\n%s", diff)
	}
}

func TestMakeSampleErrors(t *testing.T) {
	if _, err := MakeSample(make([]uint8, 10), 1); !errors.Is(err, ErrImageSize) {
		t.Errorf("Short image: got error %v, want ErrImageSize", err)
	}
	if _, err := MakeSample(make([]uint8, ImageSize), 10); !errors.Is(err, ErrLabelRange) {
		t.Errorf("Label 10: got error %v, want ErrLabelRange", err)
	}
	if _, err := MakeSample(make([]uint8, ImageSize), -1); !errors.Is(err, ErrLabelRange) {
		t.Errorf("Label -1: got error %v, want ErrLabelRange", err)
	}
}

func TestSamplesFromRaw(t *testing.T) {
	n := 3
	pixels := make([]uint8, n*ImageSize)
	for k := 0; k < n; k++ {
		pixels[k*ImageSize+k] = 255
	}
	labels := []uint8{7, 0, 9}

	samples, err := samplesFromRaw(pixels, []int{n, ImageHeight, ImageWidth}, labels, 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(samples) != n {
		t.Fatalf("Got %d samples, want %d", len(samples), n)
	}

	gotClasses := []int{}
	for k, s := range samples {
		class, err := toolbox.TrueClass(s.Label)
		if err != nil {
			t.Fatalf("sample %d: %v", k, err)
		}
		gotClasses = append(gotClasses, class)
		if s.Image.AtVec(k) != 1 {
			t.Errorf("sample %d: pixel %d is %v, want 1", k, k, s.Image.AtVec(k))
		}
	}
	if diff := cmp.Diff(gotClasses, []int{7, 0, 9}); diff != "" {
		t.Errorf("Wrong classes; diff (-got +want)\n%s", diff)
	}

	limited, err := samplesFromRaw(pixels, []int{n, ImageSize}, labels, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Got %d samples with limit 2", len(limited))
	}
}

func TestSamplesFromRawErrors(t *testing.T) {
	pixels := make([]uint8, 2*ImageSize)

	if _, err := samplesFromRaw(pixels, []int{2, 32, 32}, []uint8{0, 1}, 0); !errors.Is(err, ErrImageSize) {
		t.Errorf("32x32 shape: got error %v, want ErrImageSize", err)
	}
	if _, err := samplesFromRaw(pixels, []int{2, ImageHeight, ImageWidth}, []uint8{0}, 0); err == nil {
		t.Errorf("Label count mismatch accepted")
	}
	if _, err := samplesFromRaw(pixels, []int{2, ImageHeight, ImageWidth}, []uint8{0, 200}, 0); !errors.Is(err, ErrLabelRange) {
		t.Errorf("Label 200: got error %v, want ErrLabelRange", err)
	}
}

func TestLoadImageFile(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, ImageWidth, ImageHeight))
	img.SetGray(3, 1, color.Gray{Y: 255})

	path := filepath.Join(t.TempDir(), "digit.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	f.Close()

	got, err := LoadImageFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Len() != ImageSize {
		t.Fatalf("Got vector of length %d", got.Len())
	}
	if got.AtVec(1*ImageWidth+3) != 1 {
		t.Errorf("Pixel (3, 1) is %v, want 1", got.AtVec(1*ImageWidth+3))
	}
	if got.AtVec(0) != 0 {
		t.Errorf("Pixel (0, 0) is %v, want 0", got.AtVec(0))
	}
}

func TestLoadImageFileChecksSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 32, 32))); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	f.Close()

	if _, err := LoadImageFile(path); !errors.Is(err, ErrImageSize) {
		t.Errorf("Got error %v, want ErrImageSize", err)
	}
}
