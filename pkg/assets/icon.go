package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/webp"
)

// DecodeIcon reads a PNG, JPEG or WebP source image
func DecodeIcon(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var img image.Image
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		img, err = webp.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode image: %w", err)
		}
	}
	return img, nil
}

// RenderIcon resizes src to a size x size PNG.
// Opaque icons are flattened onto white since the App Store rejects alpha in the marketing icon.
func RenderIcon(src image.Image, size uint, opaque bool) ([]byte, error) {
	var resized image.Image = resize.Resize(size, size, src, resize.Lanczos3)

	if opaque {
		bounds := resized.Bounds()
		canvas := image.NewRGBA(bounds)
		draw.Draw(canvas, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(canvas, bounds, resized, bounds.Min, draw.Over)
		resized = canvas
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, resized); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
