package imageio

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// IsPPM reports whether a path names a PPM file by extension
func IsPPM(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".ppm")
}

// Save writes img to path, choosing the format from the extension.
// PPM is written as plain text; PNG, JPEG, GIF, TIFF and BMP go through imaging.
func Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if !IsPPM(path) {
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	if err := WritePPM(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// Open loads an image from path, detecting PPM by extension and anything else by content
func Open(path string) (image.Image, error) {
	if !IsPPM(path) {
		img, err := imaging.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open image file: %w", err)
		}
		return img, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	img, err := ReadPPM(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// EncodePNG writes img to w as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// Thumbnail scales img down to fit within maxWidth x maxHeight, keeping the aspect ratio.
// Images already within bounds are returned unchanged.
func Thumbnail(img image.Image, maxWidth, maxHeight uint) image.Image {
	return resize.Thumbnail(maxWidth, maxHeight, img, resize.Bilinear)
}

// Resize scales img to the given width, with height following the aspect ratio
func Resize(img image.Image, width uint) image.Image {
	return resize.Resize(width, 0, img, resize.Bilinear)
}
