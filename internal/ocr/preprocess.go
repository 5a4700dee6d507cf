package ocr

import (
	"image"
	"image/draw"
)

// Preprocess converts img to 8-bit grayscale and stretches its contrast so the
// 1st and 99th luminance percentiles map to black and white. The result is a
// pure function of the pixels.
func Preprocess(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	stretchContrast(gray)
	return gray
}

func stretchContrast(g *image.Gray) {
	n := len(g.Pix)
	if n == 0 {
		return
	}
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	lo := percentile(hist, n, 0.01)
	hi := percentile(hist, n, 0.99)
	if hi <= lo {
		return
	}
	var lut [256]uint8
	span := int(hi) - int(lo)
	for v := 0; v < 256; v++ {
		switch {
		case v <= int(lo):
			lut[v] = 0
		case v >= int(hi):
			lut[v] = 255
		default:
			lut[v] = uint8((v - int(lo)) * 255 / span)
		}
	}
	for i, p := range g.Pix {
		g.Pix[i] = lut[p]
	}
}

func percentile(hist [256]int, total int, q float64) uint8 {
	target := int(float64(total) * q)
	acc := 0
	for v, c := range hist {
		acc += c
		if acc > target {
			return uint8(v)
		}
	}
	return 255
}

// Binarize applies Otsu's threshold to a grayscale image in place.
func Binarize(g *image.Gray) {
	n := len(g.Pix)
	if n == 0 {
		return
	}
	var hist [256]int
	for _, p := range g.Pix {
		hist[p]++
	}
	var sum float64
	for v, c := range hist {
		sum += float64(v * c)
	}
	var sumB, best float64
	var wB int
	threshold := 0
	for v, c := range hist {
		wB += c
		if wB == 0 {
			continue
		}
		wF := n - wB
		if wF == 0 {
			break
		}
		sumB += float64(v * c)
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = v
		}
	}
	for i, p := range g.Pix {
		if int(p) > threshold {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
}
