package cameramark

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
	"k8s.io/klog/v2"
)

// Layout is how the metadata is arranged in the border of one photo.
type Layout struct {
	// Vertical photos are rotated upright and get a taller, centered footer.
	Vertical bool
	// Border is the height in pixels of the white strip added below the photo.
	Border int
}

// borderSize returns the border thickness for an image of the given size.
func borderSize(w, h int, vertical bool) int {
	m := min(w, h)
	if vertical {
		return int(float64(m) / 2.5)
	}
	return m / 5
}

// rotateLeft turns img 90 degrees counter-clockwise onto a w x h canvas swapped to h x w.
func rotateLeft(img image.Image) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	// negative angles rotate counter-clockwise
	rot := transform.Rotate(img, -90, &transform.RotationOptions{ResizeBounds: true})

	// trig rounding can leave the resized canvas a pixel larger than the swapped size
	rw, rh := rot.Bounds().Dx(), rot.Bounds().Dy()
	if rw == h && rh == w {
		return rot
	}
	off := rot.Bounds().Min.Add(image.Pt((rw-h)/2, (rh-w)/2))
	return transform.Crop(rot, image.Rectangle{Min: off, Max: off.Add(image.Pt(h, w))})
}

// AddBorder rotates vertical photos upright and adds a white border to the bottom edge.
func AddBorder(img image.Image, r *Record) (*image.RGBA, Layout, error) {
	vertical, err := r.Vertical()
	if err != nil {
		return nil, Layout{}, err
	}

	if vertical {
		img = rotateLeft(img)
	}

	b := img.Bounds()
	l := Layout{Vertical: vertical, Border: borderSize(b.Dx(), b.Dy(), vertical)}
	klog.V(1).Infof("%s: %dx%d vertical=%v border=%d", r.Path(), b.Dx(), b.Dy(), l.Vertical, l.Border)

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()+l.Border))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, 0, b.Dx(), b.Dy()), img, b.Min, draw.Src)

	return dst, l, nil
}
