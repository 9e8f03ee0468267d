package api

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// Export encodes img to w.
func Export(w io.Writer, img image.Image, opts ExportOptions) error {
	switch opts.Format {
	case "png", "":
		enc := png.Encoder{CompressionLevel: pngLevel(opts.Compression)}
		return enc.Encode(w, img)
	case "jpeg", "jpg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: opts.Quality})
	}
	return fmt.Errorf("unsupported export format %q", opts.Format)
}

// SaveImage writes img to a file, creating missing directories.
func SaveImage(filename string, img image.Image, opts ExportOptions) error {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Export(f, img, opts); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", filename, err)
	}
	return f.Close()
}

func pngLevel(compression int) png.CompressionLevel {
	switch {
	case compression <= 0:
		return png.NoCompression
	case compression <= 3:
		return png.BestSpeed
	case compression <= 6:
		return png.DefaultCompression
	}
	return png.BestCompression
}
