package compose

import (
	"fmt"
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"
)

// LoadImageFile decodes a branding asset from disk.
func LoadImageFile(path string) (image.Image, error) {
	f, err := os.Open(path) //nolint:gosec // asset paths come from the config file
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}
