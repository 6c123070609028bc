package imgfilter

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// noisyImage renders per-pixel noise so JPEG output stays above small
// file-size thresholds.
func noisyImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x*7 + y*13) % 256),
				G: uint8((x*31 + y*3) % 256),
				B: uint8((x * y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, noisyImage(w, h), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIsValidAcceptsGoodJPEG(t *testing.T) {
	t.Parallel()

	path := writeJPEG(t, t.TempDir(), "good.jpg", 500, 500)
	f := New(Config{MinFileBytes: 1})

	if !f.IsValid(path) {
		t.Error("500x500 JPEG rejected")
	}
}

func TestIsValidRejectsSmallDimensions(t *testing.T) {
	t.Parallel()

	path := writeJPEG(t, t.TempDir(), "tiny.jpg", 50, 50)
	f := New(Config{MinDim: 300, MinFileBytes: 1})

	if f.IsValid(path) {
		t.Error("50x50 image passed a 300px minimum dimension filter")
	}
}

func TestIsValidRejectsExtremeAspectRatio(t *testing.T) {
	t.Parallel()

	path := writeJPEG(t, t.TempDir(), "banner.jpg", 2000, 100) // 20:1
	f := New(Config{MinDim: 50, MinFileBytes: 1})

	if f.IsValid(path) {
		t.Error("20:1 banner passed the aspect ratio filter")
	}
}

func TestIsValidRejectsFileSizeOutOfBounds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeJPEG(t, dir, "img.jpg", 500, 500)

	tooBig := New(Config{MinFileBytes: 1, MaxFileBytes: 100})
	if tooBig.IsValid(path) {
		t.Error("file above MaxFileBytes accepted")
	}

	tooSmall := New(Config{MinFileBytes: 100 * 1024 * 1024})
	if tooSmall.IsValid(path) {
		t.Error("file below MinFileBytes accepted")
	}
}

func TestIsValidRejectsDisallowedFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := png.Encode(&buf, noisyImage(400, 400)); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	f := New(Config{AllowedFormats: []string{"jpeg"}, MinFileBytes: 1})
	if f.IsValid(path) {
		t.Error("PNG accepted by a JPEG-only filter")
	}
}

func TestIsValidRejectsTruncatedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeJPEG(t, dir, "whole.jpg", 500, 500)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	truncated := filepath.Join(dir, "truncated.jpg")
	// Keep the header intact so DecodeConfig succeeds, then cut the body.
	if err := os.WriteFile(truncated, data[:len(data)/2], 0o600); err != nil {
		t.Fatal(err)
	}

	f := New(Config{MinFileBytes: 1})
	if f.IsValid(truncated) {
		t.Error("truncated JPEG accepted")
	}
}

func TestIsValidRejectsMissingFile(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	if f.IsValid(filepath.Join(t.TempDir(), "nope.jpg")) {
		t.Error("missing file accepted")
	}
}

func TestInspect(t *testing.T) {
	t.Parallel()

	path := writeJPEG(t, t.TempDir(), "img.jpg", 320, 240)

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Format != "jpeg" || info.Width != 320 || info.Height != 240 {
		t.Errorf("Inspect = %+v, want jpeg 320x240", info)
	}
	if info.FileBytes <= 0 {
		t.Error("FileBytes not populated")
	}
}
