package dataset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ahmedtd/mlp/toolbox"
	"github.com/google/go-cmp/cmp"
)

func testPixels(width, height int) []uint8 {
	pixels := make([]uint8, width*height)
	for i := range pixels {
		pixels[i] = uint8((i * 37) % 256)
	}
	return pixels
}

func TestBMPRoundTrip(t *testing.T) {
	// 5 columns forces row padding in the 24-bit layout.
	pixels := testPixels(5, 3)

	var buf bytes.Buffer
	if err := EncodeBMP(&buf, pixels, 5, 3, 7); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	gotPixels, width, height, label, err := DecodeBMP(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if width != 5 || height != 3 {
		t.Errorf("Got %dx%d image, want 5x3", width, height)
	}
	if label != 7 {
		t.Errorf("Got label %d, want 7", label)
	}
	if diff := cmp.Diff(gotPixels, pixels); diff != "" {
		t.Errorf("Wrong pixels; diff (-got +want)\n%s", diff)
	}
}

func TestBMPHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeBMP(&buf, testPixels(ImageWidth, ImageHeight), ImageWidth, ImageHeight, 3); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	raw := buf.Bytes()

	if string(raw[0:2]) != "BM" {
		t.Errorf("Bad signature %q", raw[0:2])
	}
	if got := binary.LittleEndian.Uint32(raw[6:]); got != 3 {
		t.Errorf("Label field is %d, want 3", got)
	}
	if got := binary.LittleEndian.Uint32(raw[10:]); got != 14+40 {
		t.Errorf("Pixel data offset is %d, want 54", got)
	}
	if got := binary.LittleEndian.Uint16(raw[28:]); got != 24 {
		t.Errorf("Bits per pixel is %d, want 24", got)
	}
}

func TestDecodeBMPRejectsOtherFormats(t *testing.T) {
	if _, _, _, _, err := DecodeBMP(bytes.NewReader([]byte("\x89PNG\r\n\x1a\n0000000000"))); err == nil {
		t.Errorf("DecodeBMP accepted a PNG signature")
	}
}

func TestBMPDirRoundTrip(t *testing.T) {
	dir := t.TempDir()

	want := make([]toolbox.Sample, 4)
	for k := range want {
		pixels := make([]uint8, ImageSize)
		for j := range pixels {
			pixels[j] = uint8((j + 13*k) % 256)
		}
		s, err := MakeSample(pixels, k*2)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want[k] = s
	}

	if err := WriteBMPDir(dir, 10, want); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "00010.bmp")); err != nil {
		t.Fatalf("Expected 00010.bmp: %v", err)
	}

	got, err := LoadBMPDir(dir, 10, 4)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Loaded %d samples, want %d", len(got), len(want))
	}
	for k := range want {
		if diff := cmp.Diff(got[k].Image.RawVector().Data, want[k].Image.RawVector().Data); diff != "" {
			t.Errorf("sample %d: wrong image; diff (-got +want)\n%s", k, diff)
		}
		if diff := cmp.Diff(got[k].Label.RawVector().Data, want[k].Label.RawVector().Data); diff != "" {
			t.Errorf("sample %d: wrong label; diff (-got +want)\n%s", k, diff)
		}
	}

	if _, err := LoadBMPDir(dir, 10, 5); err == nil {
		t.Errorf("LoadBMPDir succeeded with a missing file")
	}
}

func TestLoadBMPFileChecksSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), BMPName(0))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := EncodeBMP(f, testPixels(4, 4), 4, 4, 1); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	f.Close()

	if _, err := LoadBMPFile(path); !errors.Is(err, ErrImageSize) {
		t.Errorf("Got error %v, want ErrImageSize", err)
	}
}

func TestLoadBMPFileChecksLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), BMPName(0))
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := EncodeBMP(f, testPixels(ImageWidth, ImageHeight), ImageWidth, ImageHeight, 12); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	f.Close()

	if _, err := LoadBMPFile(path); !errors.Is(err, ErrLabelRange) {
		t.Errorf("Got error %v, want ErrLabelRange", err)
	}
}
