package cameramark

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"k8s.io/klog/v2"
)

// OutPrefix is prepended to the base name of each input file.
var OutPrefix = "marked_"

// DefaultQuality matches the usual JPEG encoder default.
var DefaultQuality = 75

var supportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Supported reports whether path has an image extension we can mark. Case is ignored.
func Supported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// Marker runs the per-file pipeline. It holds no per-file state.
type Marker struct {
	meta    Extractor
	fonts   *Fonts
	quality int
}

// NewMarker returns a Marker. A quality outside 1-100 falls back to DefaultQuality.
func NewMarker(meta Extractor, fonts *Fonts, quality int) *Marker {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Marker{meta: meta, fonts: fonts, quality: quality}
}

// OutPath returns where the marked copy of path is written in outDir.
func OutPath(path string, outDir string) string {
	return filepath.Join(outDir, OutPrefix+filepath.Base(path))
}

// Mark frames a single photo and writes it to outDir, returning the output path.
func (m *Marker) Mark(path string, outDir string) (string, error) {
	if !Supported(path) {
		return "", fmt.Errorf("%w: %s", ErrInvalidFormat, filepath.Base(path))
	}

	r, err := m.meta.Extract(path)
	if err != nil {
		return "", fmt.Errorf("extract: %w", err)
	}

	img, err := imgio.Open(path)
	if err != nil {
		return "", fmt.Errorf("imgio.Open: %w", err)
	}

	framed, l, err := AddBorder(img, r)
	if err != nil {
		return "", fmt.Errorf("border: %w", err)
	}

	if err := Overlay(framed, r, l, m.fonts); err != nil {
		return "", fmt.Errorf("overlay: %w", err)
	}

	out := OutPath(path, outDir)
	if err := imgio.Save(out, framed, m.encoder(path)); err != nil {
		klog.Errorf("save failed: %s", err)
		return "", fmt.Errorf("save: %w", err)
	}

	klog.V(1).Infof("wrote %s (%dx%d)", out, framed.Bounds().Dx(), framed.Bounds().Dy())
	return out, nil
}

func (m *Marker) encoder(path string) imgio.Encoder {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return imgio.PNGEncoder()
	}
	return imgio.JPEGEncoder(m.quality)
}
