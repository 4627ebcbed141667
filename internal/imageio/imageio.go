// Package imageio loads scanned document images as grayscale mats.
// PNG, JPEG, TIFF, and BMP scans are supported.
package imageio

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"ocr-tuner/internal/quality"
)

// LoadGray loads an image file and returns it as a single-channel 8-bit
// mat. Undecodable or zero-area images report quality.ErrInvalidImage so
// batch callers can skip them.
func LoadGray(path string) (gocv.Mat, error) {
	file, err := os.Open(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("decode %s: %v: %w", path, err, quality.ErrInvalidImage)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return gocv.NewMat(), fmt.Errorf("decode %s: zero area: %w", path, quality.ErrInvalidImage)
	}

	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)

	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("convert %s: %w", path, err)
	}
	return mat, nil
}

// SavePNG writes a mat to a PNG file.
func SavePNG(img gocv.Mat, path string) error {
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("write %s failed", path)
	}
	return nil
}
