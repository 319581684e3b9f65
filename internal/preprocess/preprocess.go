package preprocess

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Artifacts carries the preprocessed image plus the measurements the
// pipeline surfaces in its result.
type Artifacts struct {
	Image              image.Image
	DeskewAngleDegrees float64
	SharpnessScore     float64
}

// analysisWidth is the downsample width for skew/sharpness estimation.
const analysisWidth = 512

// Prepare applies the OCR-oriented cleanup chain: grayscale, mild contrast
// boost, sharpening, then deskew. A skew estimate beyond maxDeskewAngle is
// treated as a misdetection and discarded rather than applied.
func Prepare(img image.Image, maxDeskewAngle float64) *Artifacts {
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.6)

	angle := estimateSkewAngle(gray)
	if math.Abs(angle) > maxDeskewAngle {
		angle = 0
	}

	out := image.Image(gray)
	if math.Abs(angle) > 0.1 {
		out = imaging.Rotate(gray, angle, color.White)
	}

	return &Artifacts{
		Image:              out,
		DeskewAngleDegrees: angle,
		SharpnessScore:     laplacianVariance(out),
	}
}

// estimateSkewAngle finds the rotation (degrees, counter-clockwise) that
// maximizes the variance of the horizontal ink projection. Text rows produce
// a strongly peaked projection when level.
func estimateSkewAngle(img image.Image) float64 {
	small := imaging.Grayscale(imaging.Resize(img, analysisWidth, 0, imaging.Linear))
	b := small.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 16 || h < 16 {
		return 0
	}

	var lumSum int64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lumSum += int64(small.NRGBAAt(x, y).R)
		}
	}
	mean := float64(lumSum) / float64(w*h)

	type pixel struct{ x, y int }
	var ink []pixel
	threshold := uint8(mean * 0.8)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if small.NRGBAAt(x, y).R < threshold {
				ink = append(ink, pixel{x, y})
			}
		}
	}
	if len(ink) < 64 {
		return 0
	}

	bestAngle := 0.0
	bestScore := -1.0
	for a := -15.0; a <= 15.0; a += 0.5 {
		shear := math.Tan(a * math.Pi / 180)
		rows := make([]float64, h)
		for _, p := range ink {
			y := p.y + int(float64(p.x-w/2)*shear)
			if y >= 0 && y < h {
				rows[y]++
			}
		}
		if score := variance(rows); score > bestScore {
			bestScore = score
			bestAngle = a
		}
	}
	return bestAngle
}

// laplacianVariance measures focus: blurry scans have near-uniform second
// derivatives and score close to zero.
func laplacianVariance(img image.Image) float64 {
	small := imaging.Grayscale(imaging.Resize(img, analysisWidth, 0, imaging.Linear))
	b := small.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	values := make([]float64, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := float64(small.NRGBAAt(x, y).R)
			lap := 4*c -
				float64(small.NRGBAAt(x-1, y).R) -
				float64(small.NRGBAAt(x+1, y).R) -
				float64(small.NRGBAAt(x, y-1).R) -
				float64(small.NRGBAAt(x, y+1).R)
			values = append(values, lap)
		}
	}
	return variance(values)
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	acc := 0.0
	for _, v := range values {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(values))
}
