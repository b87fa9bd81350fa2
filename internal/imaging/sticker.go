package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

// StickerSize is the edge length of a rendered sticker image in pixels.
const StickerSize = 512

// stickerMargin is the white border around the QR matrix. Scanners need the
// quiet zone; the print shop needs bleed.
const stickerMargin = 48

// RenderSticker produces the printable PNG for a claim URL. Stickers are
// rendered once per code and cached; callers should not invoke this on every
// request.
func RenderSticker(claimURL string) ([]byte, error) {
	code, err := qrcode.New(claimURL, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encoding qr matrix: %w", err)
	}
	code.DisableBorder = true

	inner := StickerSize - 2*stickerMargin
	matrix := code.Image(inner)

	sticker := image.NewRGBA(image.Rect(0, 0, StickerSize, StickerSize))
	draw.Draw(sticker, sticker.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// NearestNeighbor keeps module edges crisp; interpolation would blur
	// them and hurt scan reliability.
	target := image.Rect(stickerMargin, stickerMargin, stickerMargin+inner, stickerMargin+inner)
	draw.NearestNeighbor.Scale(sticker, target, matrix, matrix.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, sticker); err != nil {
		return nil, fmt.Errorf("encoding sticker PNG: %w", err)
	}
	return buf.Bytes(), nil
}
