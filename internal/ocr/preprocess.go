package ocr

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// preprocessWidth is the target width for oversized screenshots. Phone
// screenshots above this width slow tesseract down without improving
// recognition.
const (
	oversizeWidth    = 1200
	preprocessWidth  = 1000
	contrastPercent  = 20
	sharpenSigma     = 1.0
)

// preprocess rewrites the image into a shape tesseract reads best: capped
// width, grayscale, contrast boosted and lightly sharpened. Returns the path
// of a temporary PNG and a cleanup func removing it.
func preprocess(path string) (string, func(), error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return "", nil, fmt.Errorf("open image: %w", err)
	}

	if img.Bounds().Dx() > oversizeWidth {
		img = imaging.Resize(img, preprocessWidth, 0, imaging.Lanczos)
	}
	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, contrastPercent)
	img = imaging.Sharpen(img, sharpenSigma)

	tmpDir, err := os.MkdirTemp("", "orderscan-ocr-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	out := filepath.Join(tmpDir, "input.png")
	if err := imaging.Save(img, out); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("save preprocessed image: %w", err)
	}
	return out, cleanup, nil
}
