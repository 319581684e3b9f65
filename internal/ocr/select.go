package ocr

import (
	"fmt"
	"strings"

	"github.com/veridoc/idverify-worker/internal/errors"
)

// Options selects and configures an Engine.
type Options struct {
	Engine           string // "auto", "tesseract" or "docai"
	Languages        []string
	DocAIProjectID   string
	DocAILocation    string
	DocAIProcessorID string
}

// NewEngine builds the requested engine. In "auto" mode the constructors are
// tried in order (tesseract first, docai second) and the first success wins;
// when all fail, every constructor's failure reason is reported.
func NewEngine(opts Options) (Engine, error) {
	type constructor struct {
		name  string
		build func() (Engine, error)
	}

	tesseract := constructor{
		name: "tesseract",
		build: func() (Engine, error) {
			return NewTesseractEngine(opts.Languages)
		},
	}
	docai := constructor{
		name: "docai",
		build: func() (Engine, error) {
			return NewDocAIEngine(opts.DocAIProjectID, opts.DocAILocation, opts.DocAIProcessorID)
		},
	}

	var order []constructor
	switch opts.Engine {
	case "", "auto":
		order = []constructor{tesseract, docai}
	case "tesseract":
		order = []constructor{tesseract}
	case "docai":
		order = []constructor{docai}
	default:
		return nil, fmt.Errorf("unsupported OCR engine %q", opts.Engine)
	}

	var failures []string
	for _, c := range order {
		engine, err := c.build()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", c.name, err))
			continue
		}
		return engine, nil
	}

	return nil, errors.NewEngineUnavailableError(strings.Join(failures, "; "))
}
