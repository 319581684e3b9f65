package input

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/veridoc/idverify-worker/internal/errors"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 220, G: 220, B: 220, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func TestLoadPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	writeTestPNG(t, path, 64, 40)

	img, err := Load(path, 1<<20, 220)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 40 {
		t.Errorf("loaded image is %dx%d, want 64x40", b.Dx(), b.Dy())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.png"), 1<<20, 220)
	if got := apperrors.CodeOf(err); got != apperrors.ErrorInputUnreadable {
		t.Errorf("error code = %q, want %q", got, apperrors.ErrorInputUnreadable)
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.txt")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, 1<<20, 220)
	if got := apperrors.CodeOf(err); got != apperrors.ErrorInputUnsupported {
		t.Errorf("error code = %q, want %q", got, apperrors.ErrorInputUnsupported)
	}
}

func TestLoadTooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	writeTestPNG(t, path, 64, 40)

	_, err := Load(path, 8, 220)
	if got := apperrors.CodeOf(err); got != apperrors.ErrorInputTooLarge {
		t.Errorf("error code = %q, want %q", got, apperrors.ErrorInputTooLarge)
	}
}

func TestLoadCorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "card.png")
	if err := os.WriteFile(path, []byte("garbage bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, 1<<20, 220)
	if got := apperrors.CodeOf(err); got != apperrors.ErrorInputUnreadable {
		t.Errorf("error code = %q, want %q", got, apperrors.ErrorInputUnreadable)
	}
}
