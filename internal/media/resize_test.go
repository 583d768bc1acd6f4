package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func encodeTestImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to decode thumbnail: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestThumbnailDownscalesPreservingAspect(t *testing.T) {
	src := encodeTestImage(t, 2048, 1536)

	out, err := Thumbnail(src, 1024, 768)
	if err != nil {
		t.Fatalf("Thumbnail returned error: %v", err)
	}

	w, h := decodeDims(t, out)
	if w != 1024 || h != 768 {
		t.Errorf("got %dx%d, want 1024x768", w, h)
	}
}

func TestThumbnailWideImageBoundByWidth(t *testing.T) {
	src := encodeTestImage(t, 4096, 1024)

	out, err := Thumbnail(src, 1024, 768)
	if err != nil {
		t.Fatalf("Thumbnail returned error: %v", err)
	}

	w, h := decodeDims(t, out)
	if w != 1024 {
		t.Errorf("width = %d, want 1024", w)
	}
	if h != 256 {
		t.Errorf("height = %d, want 256", h)
	}
}

func TestThumbnailSmallImageKeepsSize(t *testing.T) {
	src := encodeTestImage(t, 320, 240)

	out, err := Thumbnail(src, 1024, 768)
	if err != nil {
		t.Fatalf("Thumbnail returned error: %v", err)
	}

	w, h := decodeDims(t, out)
	if w != 320 || h != 240 {
		t.Errorf("got %dx%d, want 320x240", w, h)
	}
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	if _, err := Thumbnail([]byte("not an image"), 100, 100); err == nil {
		t.Error("expected error for undecodable data")
	}
}

func TestThumbnailRejectsInvalidBounds(t *testing.T) {
	src := encodeTestImage(t, 10, 10)
	if _, err := Thumbnail(src, 0, 100); err == nil {
		t.Error("expected error for zero width bound")
	}
}
