package cameramark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"k8s.io/klog/v2"
)

const maxFontBytes = 32 << 20

// FontSource says where the TrueType font comes from. Path wins over URL.
type FontSource struct {
	Path string
	URL  string
}

// Fonts is a parsed font with faces cached per pixel size. It is not safe for concurrent use.
type Fonts struct {
	font  *opentype.Font
	faces map[int]font.Face
}

// LoadFonts acquires the font once, from disk or over HTTP.
func LoadFonts(ctx context.Context, src FontSource) (*Fonts, error) {
	var bs []byte
	var err error

	switch {
	case src.Path != "":
		klog.Infof("loading font from %s", src.Path)
		bs, err = os.ReadFile(src.Path)
	case src.URL != "":
		klog.Infof("fetching font from %s", src.URL)
		bs, err = fetchFont(ctx, src.URL)
	default:
		return nil, errors.New("no font path or URL given")
	}
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	return FontsFromBytes(bs)
}

// FontsFromBytes parses a TrueType or OpenType font.
func FontsFromBytes(bs []byte) (*Fonts, error) {
	f, err := opentype.Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Fonts{font: f, faces: map[int]font.Face{}}, nil
}

// Face returns a face rendering at px pixels per em.
func (f *Fonts) Face(px int) (font.Face, error) {
	if px < 1 {
		px = 1
	}
	if face, ok := f.faces[px]; ok {
		return face, nil
	}

	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	f.faces[px] = face
	return face, nil
}

// Close releases every cached face.
func (f *Fonts) Close() error {
	var errs []error
	for px, face := range f.faces {
		if err := face.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(f.faces, px)
	}
	return errors.Join(errs...)
}

func fetchFont(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, resp.Status)
	}

	bs, err := io.ReadAll(io.LimitReader(resp.Body, maxFontBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bs) > maxFontBytes {
		return nil, fmt.Errorf("font at %s exceeds %d bytes", url, maxFontBytes)
	}
	return bs, nil
}
