package preprocess

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// Geometry limits for a card-shaped region within a larger photo. ID-1 cards
// have an aspect ratio near 1.586; the window allows for perspective tilt.
const (
	regionMinAreaRatio = 0.08
	regionMaxAreaRatio = 0.95
	regionMinAspect    = 1.1
	regionMaxAspect    = 2.8

	regionPadXRatio = 0.04
	regionPadYRatio = 0.06

	detectWidth = 256
)

// DetectCardRegions finds up to maxRegions card-like rectangles in the image,
// largest first. Detection runs on a downsampled gradient map: strong edges
// are grouped into connected components and each component's bounding box is
// kept when its area and aspect ratio look card-shaped.
func DetectCardRegions(img image.Image, maxRegions int) []image.Rectangle {
	orig := img.Bounds()
	if orig.Dx() < 32 || orig.Dy() < 32 || maxRegions <= 0 {
		return nil
	}

	small := imaging.Grayscale(imaging.Resize(img, detectWidth, 0, imaging.Linear))
	b := small.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 8 || h < 8 {
		return nil
	}

	// Gradient magnitude (|dx| + |dy|) over the luminance channel.
	grad := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			dx := float64(small.NRGBAAt(x+1, y).R) - float64(small.NRGBAAt(x-1, y).R)
			dy := float64(small.NRGBAAt(x, y+1).R) - float64(small.NRGBAAt(x, y-1).R)
			grad[y*w+x] = math.Abs(dx) + math.Abs(dy)
		}
	}

	mean, std := meanStd(grad)
	threshold := mean + std

	mask := make([]bool, w*h)
	for i, g := range grad {
		mask[i] = g > threshold
	}
	dilate(mask, w, h)

	boxes := componentBoxes(mask, w, h)

	// Map boxes back to full-resolution coordinates and filter by geometry.
	scaleX := float64(orig.Dx()) / float64(w)
	scaleY := float64(orig.Dy()) / float64(h)
	imageArea := float64(orig.Dx() * orig.Dy())

	var regions []image.Rectangle
	for _, box := range boxes {
		r := image.Rect(
			orig.Min.X+int(float64(box.Min.X)*scaleX),
			orig.Min.Y+int(float64(box.Min.Y)*scaleY),
			orig.Min.X+int(float64(box.Max.X)*scaleX),
			orig.Min.Y+int(float64(box.Max.Y)*scaleY),
		)
		area := float64(r.Dx() * r.Dy())
		if r.Dy() == 0 {
			continue
		}
		aspect := float64(r.Dx()) / float64(r.Dy())
		if area/imageArea < regionMinAreaRatio || area/imageArea > regionMaxAreaRatio {
			continue
		}
		if aspect < regionMinAspect || aspect > regionMaxAspect {
			continue
		}
		regions = append(regions, padRegion(r, orig))
	}

	sort.Slice(regions, func(i, j int) bool {
		return regions[i].Dx()*regions[i].Dy() > regions[j].Dx()*regions[j].Dy()
	})
	if len(regions) > maxRegions {
		regions = regions[:maxRegions]
	}
	return regions
}

// padRegion grows the rectangle slightly so tight edge boxes do not clip the
// card's printed margins, clamped to the image bounds.
func padRegion(r, bounds image.Rectangle) image.Rectangle {
	padX := int(float64(r.Dx()) * regionPadXRatio)
	padY := int(float64(r.Dy()) * regionPadYRatio)
	padded := image.Rect(r.Min.X-padX, r.Min.Y-padY, r.Max.X+padX, r.Max.Y+padY)
	return padded.Intersect(bounds)
}

// dilate expands the mask by one pixel in 4-neighborhood so broken card
// outlines connect into one component.
func dilate(mask []bool, w, h int) {
	src := make([]bool, len(mask))
	copy(src, mask)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src[y*w+x] {
				continue
			}
			if (x > 0 && src[y*w+x-1]) || (x < w-1 && src[y*w+x+1]) ||
				(y > 0 && src[(y-1)*w+x]) || (y < h-1 && src[(y+1)*w+x]) {
				mask[y*w+x] = true
			}
		}
	}
}

// componentBoxes labels connected mask components (8-neighborhood) and
// returns their bounding boxes.
func componentBoxes(mask []bool, w, h int) []image.Rectangle {
	visited := make([]bool, len(mask))
	var boxes []image.Rectangle
	var stack []int

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		minX, minY := w, h
		maxX, maxY := 0, 0
		size := 0

		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%w, idx/w
			size++
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if mask[nidx] && !visited[nidx] {
						visited[nidx] = true
						stack = append(stack, nidx)
					}
				}
			}
		}

		// Tiny specks are noise, not card outlines.
		if size >= w*h/100 {
			boxes = append(boxes, image.Rect(minX, minY, maxX+1, maxY+1))
		}
	}
	return boxes
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
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
	return mean, math.Sqrt(acc / float64(len(values)))
}
