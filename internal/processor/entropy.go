package processor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	analysisSize = 256
	maxSteps     = 32
)

// EntropyRect returns the region of img with the aspect ratio of w x h that
// carries the most luminance entropy. The window slides along the long axis
// only; equal scores resolve toward the centre.
func EntropyRect(img image.Image, w, h int) image.Rectangle {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()

	cw, ch := sw, sh
	if sw*h > sh*w {
		cw = int(math.Round(float64(sh) * float64(w) / float64(h)))
	} else {
		ch = int(math.Round(float64(sw) * float64(h) / float64(w)))
	}
	cw = clamp(cw, 1, sw)
	ch = clamp(ch, 1, sh)

	if cw == sw && ch == sh {
		return b
	}

	small := imaging.Grayscale(imaging.Fit(img, analysisSize, analysisSize, imaging.Box))

	horizontal := cw < sw
	slack := sh - ch
	length := ch
	scale := float64(small.Bounds().Dy()) / float64(sh)
	if horizontal {
		slack = sw - cw
		length = cw
		scale = float64(small.Bounds().Dx()) / float64(sw)
	}

	steps := slack
	if steps > maxSteps {
		steps = maxSteps
	}

	center := slack / 2
	bestOff := center
	best := -1.0
	for i := 0; i <= steps; i++ {
		off := slack * i / steps

		lo := int(float64(off) * scale)
		hi := int(math.Ceil(float64(off+length) * scale))
		var r image.Rectangle
		if horizontal {
			r = image.Rect(lo, 0, hi, small.Bounds().Dy())
		} else {
			r = image.Rect(0, lo, small.Bounds().Dx(), hi)
		}

		e := entropy(small, r.Intersect(small.Bounds()))
		if e > best+1e-9 || (math.Abs(e-best) <= 1e-9 && abs(off-center) < abs(bestOff-center)) {
			best = e
			bestOff = off
		}
	}

	if horizontal {
		return image.Rect(b.Min.X+bestOff, b.Min.Y, b.Min.X+bestOff+cw, b.Max.Y)
	}
	return image.Rect(b.Min.X, b.Min.Y+bestOff, b.Max.X, b.Min.Y+bestOff+ch)
}

// entropy is the Shannon entropy of the grey levels inside r.
func entropy(img *image.NRGBA, r image.Rectangle) float64 {
	if r.Empty() {
		return 0
	}

	var hist [256]int
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			hist[img.Pix[img.PixOffset(x, y)]]++
		}
	}

	n := float64(r.Dx() * r.Dy())
	var e float64
	for _, c := range hist {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		e -= p * math.Log2(p)
	}
	return e
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
