package escpos

import "image"

// MaxRasterWidth is the printable width in dots of an 80mm head.
const MaxRasterWidth = 384

// Raster converts img to a GS v 0 raster block no wider than maxWidth dots.
// Pixels darker than mid-grey print black.
func Raster(img image.Image, maxWidth int) []byte {
	if img == nil {
		return nil
	}
	if maxWidth <= 0 || maxWidth > MaxRasterWidth {
		maxWidth = MaxRasterWidth
	}
	if img.Bounds().Dx() > maxWidth {
		img = resizeToWidth(img, maxWidth)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// ESC/POS width must be divisible by 8
	width -= width % 8
	if width == 0 || height == 0 {
		return nil
	}

	rowBytes := width / 8
	raster := make([]byte, rowBytes*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			if a < 0x8000 {
				continue // transparent prints white
			}
			gray := (r + g + b) / 3
			if gray < 0x8000 {
				raster[y*rowBytes+x/8] |= 1 << (7 - uint(x%8))
			}
		}
	}

	header := []byte{
		gs, 0x76, 0x30, 0x00,
		byte(rowBytes), byte(rowBytes >> 8),
		byte(height), byte(height >> 8),
	}
	return append(header, raster...)
}

func resizeToWidth(src image.Image, targetWidth int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	scale := float64(targetWidth) / float64(w)
	newHeight := int(float64(h) * scale)
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, newHeight))
	for y := 0; y < newHeight; y++ {
		for x := 0; x < targetWidth; x++ {
			sx := bounds.Min.X + int(float64(x)/scale)
			sy := bounds.Min.Y + int(float64(y)/scale)
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
