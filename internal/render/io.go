package render

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// LoadImage opens and decodes an image file (JPEG, PNG, BMP, TIFF, GIF).
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading image %s: %w", path, err)
	}
	return img, nil
}

// SaveImage encodes img to path; the format follows the file extension.
func SaveImage(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("saving image %s: %w", path, err)
	}
	return nil
}
