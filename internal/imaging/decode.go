// Package imaging handles decoding uploaded image bytes into the
// normalized color model the rest of the pipeline works with.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	// registered decoders for the accepted upload formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const jpegQuality = 90

// Decode parses raw upload bytes and normalizes the result to a
// three-channel RGB image (RGBA-backed, alpha forced opaque by draw).
func Decode(data []byte) (image.Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}

	// Normalize palette/gray/YCbCr sources to RGBA.
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst, nil
}

// EncodeJPEG renders img as JPEG for archival.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
