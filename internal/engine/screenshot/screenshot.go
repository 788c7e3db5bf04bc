// Package screenshot writes framebuffer captures as PNG files.
package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// Writer names and writes captures under Dir.
type Writer struct {
	Dir    string
	Prefix string

	now func() time.Time
}

// NewWriter returns a writer for dir. An empty dir writes to the working
// directory.
func NewWriter(dir, prefix string) *Writer {
	return &Writer{Dir: dir, Prefix: prefix, now: time.Now}
}

// Filename returns the path the next capture would be written to.
func (w *Writer) Filename() string {
	name := fmt.Sprintf("%s_%s.png", w.Prefix, w.now().Format("2006-01-02_15-04-05.000"))
	if w.Dir == "" {
		return name
	}
	return filepath.Join(w.Dir, name)
}

// SaveGL writes bottom-up RGBA pixels as read back from GL.
func (w *Writer) SaveGL(pixels []byte, width, height int) (string, error) {
	img, err := FlipRGBA(pixels, width, height)
	if err != nil {
		return "", err
	}
	return w.Save(img)
}

// Save writes img and returns the file path.
func (w *Writer) Save(img image.Image) (string, error) {
	if w.Dir != "" {
		if err := os.MkdirAll(w.Dir, 0o755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}

	path := w.Filename()
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding PNG: %w", err)
	}
	return path, f.Close()
}

// FlipRGBA converts bottom-up rows into a top-down image.
func FlipRGBA(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("empty capture %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img, nil
}
