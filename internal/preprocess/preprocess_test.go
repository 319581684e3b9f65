package preprocess

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
)

// stripes draws dark text-like rows on a white page. slope tilts the rows to
// simulate a skewed scan (positive slope drops the rows left to right).
func stripes(w, h int, slope float64) image.Image {
	img := imaging.New(w, h, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	black := color.NRGBA{A: 255}
	for y0 := 20; y0 < h-20; y0 += 20 {
		for x := 0; x < w; x++ {
			yy := y0 + int(float64(x)*slope)
			for t := 0; t < 3; t++ {
				if yy+t >= 0 && yy+t < h {
					img.SetNRGBA(x, yy+t, black)
				}
			}
		}
	}
	return img
}

func TestPrepareUniformImage(t *testing.T) {
	img := imaging.New(400, 250, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	art := Prepare(img, 12)

	if art.Image == nil {
		t.Fatal("Prepare returned nil image")
	}
	if art.DeskewAngleDegrees != 0 {
		t.Errorf("deskew angle = %v, want 0 for a featureless image", art.DeskewAngleDegrees)
	}
	if art.SharpnessScore < 0 {
		t.Errorf("sharpness = %v, want non-negative", art.SharpnessScore)
	}
}

func TestPrepareLevelRowsStayLevel(t *testing.T) {
	art := Prepare(stripes(512, 320, 0), 12)
	if math.Abs(art.DeskewAngleDegrees) > 1.0 {
		t.Errorf("deskew angle = %v, want near 0 for level rows", art.DeskewAngleDegrees)
	}
}

func TestPrepareDetectsSkewedRows(t *testing.T) {
	skewed := stripes(512, 320, math.Tan(5*math.Pi/180))
	art := Prepare(skewed, 12)
	if got := math.Abs(art.DeskewAngleDegrees); got < 1.5 || got > 10 {
		t.Errorf("deskew angle = %v, want a few degrees for tilted rows", art.DeskewAngleDegrees)
	}
}

func TestPrepareDiscardsAnglesBeyondLimit(t *testing.T) {
	skewed := stripes(512, 320, math.Tan(5*math.Pi/180))
	art := Prepare(skewed, 1)
	if art.DeskewAngleDegrees != 0 {
		t.Errorf("deskew angle = %v, want 0 when the estimate exceeds the limit", art.DeskewAngleDegrees)
	}
}

func TestPrepareSharpnessOrdersBlurry(t *testing.T) {
	sharp := stripes(512, 320, 0)
	blurry := imaging.Blur(sharp, 4)

	sharpScore := Prepare(sharp, 12).SharpnessScore
	blurScore := Prepare(blurry, 12).SharpnessScore
	if sharpScore <= blurScore {
		t.Errorf("sharpness sharp=%v blurry=%v, want sharp > blurry", sharpScore, blurScore)
	}
}

// cardScene draws a card-shaped dark outline on a white background at the
// given rectangle.
func cardScene(w, h int, card image.Rectangle) image.Image {
	img := imaging.New(w, h, color.NRGBA{R: 245, G: 245, B: 245, A: 255})
	dark := color.NRGBA{R: 40, G: 40, B: 40, A: 255}
	for x := card.Min.X; x < card.Max.X; x++ {
		for t := 0; t < 3; t++ {
			img.SetNRGBA(x, card.Min.Y+t, dark)
			img.SetNRGBA(x, card.Max.Y-1-t, dark)
		}
	}
	for y := card.Min.Y; y < card.Max.Y; y++ {
		for t := 0; t < 3; t++ {
			img.SetNRGBA(card.Min.X+t, y, dark)
			img.SetNRGBA(card.Max.X-1-t, y, dark)
		}
	}
	return img
}

func TestDetectCardRegionsFindsCardOutline(t *testing.T) {
	card := image.Rect(60, 60, 380, 260)
	scene := cardScene(512, 384, card)

	regions := DetectCardRegions(scene, 3)
	if len(regions) == 0 {
		t.Fatal("no regions detected around a drawn card outline")
	}

	bounds := scene.Bounds()
	center := image.Pt(card.Min.X+card.Dx()/2, card.Min.Y+card.Dy()/2)
	found := false
	for _, r := range regions {
		if !r.In(bounds) {
			t.Errorf("region %v exceeds image bounds %v", r, bounds)
		}
		aspect := float64(r.Dx()) / float64(r.Dy())
		if aspect < regionMinAspect || aspect > regionMaxAspect {
			t.Errorf("region %v aspect %v outside card window", r, aspect)
		}
		if center.In(r) {
			found = true
		}
	}
	if !found {
		t.Errorf("regions %v do not cover the card center %v", regions, center)
	}
}

func TestDetectCardRegionsEmptyCases(t *testing.T) {
	uniform := imaging.New(512, 384, color.NRGBA{R: 245, G: 245, B: 245, A: 255})
	if regions := DetectCardRegions(uniform, 3); len(regions) != 0 {
		t.Errorf("uniform image produced regions %v", regions)
	}

	card := image.Rect(60, 60, 380, 260)
	scene := cardScene(512, 384, card)
	if regions := DetectCardRegions(scene, 0); regions != nil {
		t.Errorf("maxRegions=0 produced regions %v", regions)
	}

	tiny := imaging.New(16, 16, color.NRGBA{A: 255})
	if regions := DetectCardRegions(tiny, 3); regions != nil {
		t.Errorf("tiny image produced regions %v", regions)
	}
}
