package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestProcessPhoto(t *testing.T) {
	data := testPNG(t, 200, 100)

	result, err := ProcessPhoto(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected JPEG output, got %q", result.MIME)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Errorf("small image should not be resized, got %v", img.Bounds())
	}
}

func TestProcessPhotoDownscales(t *testing.T) {
	data := testPNG(t, 2048, 1024)

	result, err := ProcessPhoto(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != MaxDimension {
		t.Errorf("expected width %d, got %d", MaxDimension, img.Bounds().Dx())
	}
	if img.Bounds().Dy() != MaxDimension/2 {
		t.Errorf("expected height %d, got %d", MaxDimension/2, img.Bounds().Dy())
	}
}

func TestProcessPhotoRejectsNonImage(t *testing.T) {
	_, err := ProcessPhoto(bytes.NewReader([]byte("definitely not an image")))
	if err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestRenderSticker(t *testing.T) {
	data, err := RenderSticker("https://stckr.example/qr/AB12CD")
	if err != nil {
		t.Fatalf("RenderSticker: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding sticker: %v", err)
	}
	if format != "png" {
		t.Errorf("expected PNG, got %q", format)
	}
	if img.Bounds().Dx() != StickerSize || img.Bounds().Dy() != StickerSize {
		t.Errorf("expected %dx%d sticker, got %v", StickerSize, StickerSize, img.Bounds())
	}
}
