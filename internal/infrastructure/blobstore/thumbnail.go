package blobstore

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"
)

// thumbnail decodes data with the stdlib's image package and returns a JPEG
// encoding of it resized to fit within maxW x maxH, preserving aspect
// ratio, via nearest-neighbor sampling. Nothing in the retrieved example
// pack imports an image-resize library (golang.org/x/image or similar), so
// this falls back to a small hand-rolled resize rather than inventing a
// third-party dependency no example repo demonstrates.
func thumbnail(data []byte, maxW, maxH int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	scale := 1.0
	if srcW > maxW {
		scale = float64(maxW) / float64(srcW)
	}
	if s := float64(maxH) / float64(srcH); srcH > maxH && s < scale {
		scale = s
	}
	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	for y := 0; y < dstH; y++ {
		sy := bounds.Min.Y + y*srcH/dstH
		for x := 0; x < dstW; x++ {
			sx := bounds.Min.X + x*srcW/dstW
			dst.Set(x, y, color.RGBAModel.Convert(src.At(sx, sy)))
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
