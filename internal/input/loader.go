package input

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"

	apperrors "github.com/veridoc/idverify-worker/internal/errors"
)

var supportedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

func init() {
	// unipdf runs unlicensed without this; set the key when available.
	if key := os.Getenv("UNIDOC_LICENSE_API_KEY"); key != "" {
		_ = license.SetMeteredKey(key)
	}
}

// Load reads a document from disk and returns it as a decoded image.
// PDFs are rasterized at pdfDPI; only the first page is used.
func Load(path string, maxSizeBytes int64, pdfDPI int) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewInputUnreadableError(path, err)
	}

	if info.Size() > maxSizeBytes {
		return nil, apperrors.NewInputTooLargeError(path, info.Size(), maxSizeBytes)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return loadPDF(path, pdfDPI)
	case supportedImageExts[ext]:
		return loadImage(path)
	default:
		return nil, apperrors.NewInputUnsupportedError(path, fmt.Sprintf("extension %q", ext))
	}
}

func loadImage(path string) (image.Image, error) {
	// AutoOrientation applies the EXIF rotation phone cameras record.
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewInputUnreadableError(path, err)
	}
	return img, nil
}

func loadPDF(path string, dpi int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewInputUnreadableError(path, err)
	}
	defer f.Close()

	reader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, apperrors.NewInputUnreadableError(path, err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, apperrors.NewInputUnreadableError(path, err)
	}
	if numPages == 0 {
		return nil, apperrors.NewInputUnsupportedError(path, "PDF has no pages")
	}

	page, err := reader.GetPage(1)
	if err != nil {
		return nil, apperrors.NewInputUnreadableError(path, err)
	}

	device := render.NewImageDevice()
	if box, err := page.GetMediaBox(); err == nil && box != nil {
		widthPts := box.Urx - box.Llx
		if widthPts > 0 {
			device.OutputWidth = int(widthPts * float64(dpi) / 72.0)
		}
	}

	img, err := device.Render(page)
	if err != nil {
		return nil, apperrors.NewInputUnreadableError(path, fmt.Errorf("failed to rasterize first page: %w", err))
	}
	return img, nil
}
