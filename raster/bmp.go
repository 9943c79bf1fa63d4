package raster

import (
	"fmt"
	"image"
	"io"
	"os"

	"golang.org/x/image/bmp"
)

// Gray wraps pixels as an image without copying. pixels must hold
// width*height bytes, row-major, top row first.
func Gray(pixels []byte, width, height int) *image.Gray {
	return &image.Gray{
		Pix:    pixels,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

// WriteBMP encodes a single-channel coverage buffer as an 8-bit grayscale
// BMP (256-entry palette, bottom-up rows padded to 4 bytes).
func WriteBMP(w io.Writer, pixels []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrEmptyBitmap
	}
	if len(pixels) < width*height {
		return fmt.Errorf("raster: %d pixels for a %dx%d bitmap", len(pixels), width, height)
	}
	return bmp.Encode(w, Gray(pixels, width, height))
}

// SaveBMP writes a coverage buffer to a BMP file at path.
func SaveBMP(path string, pixels []byte, width, height int) (err error) {
	if width <= 0 || height <= 0 {
		return ErrEmptyBitmap
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("raster: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteBMP(f, pixels, width, height)
}

// Image returns the bitmap as an image sharing its pixels.
func (b *Bitmap) Image() *image.Gray {
	return Gray(b.Pixels, b.Width, b.Height)
}

// WriteBMP encodes the bitmap as a grayscale BMP.
func (b *Bitmap) WriteBMP(w io.Writer) error {
	return WriteBMP(w, b.Pixels, b.Width, b.Height)
}

// SaveBMP writes the bitmap to a BMP file at path.
func (b *Bitmap) SaveBMP(path string) error {
	return SaveBMP(path, b.Pixels, b.Width, b.Height)
}
