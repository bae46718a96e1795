package cameramark

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"k8s.io/klog/v2"
)

var (
	primaryColor   = color.RGBA{0, 0, 0, 255}
	secondaryColor = color.RGBA{125, 125, 125, 255}
)

const (
	// columnGap separates the make from the model column in horizontal layout.
	columnGap = 100
	// rowGap is the distance of each row from the border's center line in horizontal layout.
	rowGap       = 25
	dividerWidth = 2
)

// box is the measured extent of drawn text.
type box struct {
	x0, y0, x1, y1 float64
}

// styles are the three font sizes used in the footer.
type styles struct {
	header, subheader, normal font.Face
}

func newStyles(f *Fonts, l Layout) (styles, error) {
	header := l.Border / 3
	if l.Vertical {
		header = l.Border / 4
	}
	sizes := []int{header, int(float64(header) * 0.4), int(float64(header) * 0.3)}

	faces := make([]font.Face, len(sizes))
	for i, px := range sizes {
		face, err := f.Face(px)
		if err != nil {
			return styles{}, fmt.Errorf("face %dpx: %w", px, err)
		}
		faces[i] = face
	}
	return styles{header: faces[0], subheader: faces[1], normal: faces[2]}, nil
}

// Overlay prints the record into the border of dst.
func Overlay(dst *image.RGBA, r *Record, l Layout, f *Fonts) error {
	vals := map[string]string{}
	for _, name := range []string{Make, Model, LensModel, DateTime} {
		v, err := r.Get(name)
		if err != nil {
			return err
		}
		vals[name] = v
	}

	exposure, err := exposureLine(r)
	if err != nil {
		return err
	}

	st, err := newStyles(f, l)
	if err != nil {
		return err
	}

	klog.V(1).Infof("%s: drawing %s %s / %s", r.Path(), vals[Make], vals[Model], exposure)
	if l.Vertical {
		overlayVertical(dst, vals, exposure, l, st)
	} else {
		overlayHorizontal(dst, vals, exposure, l, st)
	}
	return nil
}

// overlayHorizontal puts make and model on the left, date and exposure on the right.
func overlayHorizontal(dst *image.RGBA, vals map[string]string, exposure string, l Layout, st styles) {
	const ratio = 0.025
	w, h := float64(dst.Bounds().Dx()), float64(dst.Bounds().Dy())
	mid := h - float64(l.Border/2)

	mk := drawText(dst, st.header, primaryColor, w*ratio, mid, "lm", vals[Make])
	drawText(dst, st.subheader, secondaryColor, mk.x1+columnGap, mid-rowGap, "lb", vals[Model])
	drawText(dst, st.subheader, secondaryColor, mk.x1+columnGap, mid+rowGap, "lt", vals[LensModel])

	drawText(dst, st.normal, secondaryColor, w*(1-ratio), mid+rowGap, "rt", vals[DateTime])
	drawText(dst, st.subheader, primaryColor, w*(1-ratio), mid-rowGap, "rb", exposure)
}

// overlayVertical stacks everything centered: make, model and lens, a divider, exposure, date.
func overlayVertical(dst *image.RGBA, vals map[string]string, exposure string, l Layout, st styles) {
	const ratio = 0.02
	h := float64(dst.Bounds().Dy())
	center := float64(dst.Bounds().Dx() / 2)

	mk := drawText(dst, st.header, primaryColor, center, h*(1+ratio)-float64(l.Border), "mt", vals[Make])
	model := fmt.Sprintf("%s  |  %s", vals[Model], vals[LensModel])
	md := drawText(dst, st.subheader, secondaryColor, center, mk.y1+h*ratio, "mt", model)

	y := md.y1 + h*ratio
	line := image.Rect(int(md.x0), int(y)-dividerWidth/2, int(md.x1)+1, int(y)+dividerWidth/2)
	draw.Draw(dst, line, image.NewUniform(primaryColor), image.Point{}, draw.Src)

	dt := drawText(dst, st.normal, secondaryColor, center, h*(1-ratio), "mb", vals[DateTime])
	drawText(dst, st.subheader, primaryColor, center, dt.y0-h*ratio, "mb", exposure)
}

// place positions s so that its anchor point lands on (x, y). The first anchor
// letter is horizontal (l, m, r) against the advance width; the second is
// vertical: t and b are the ink top and bottom, m is midway between the
// ascender and descender lines, s is the baseline.
func place(face font.Face, x, y float64, anchor string, s string) (fixed.Point26_6, box) {
	bounds, adv := font.BoundString(face, s)
	width := fixedFloat(adv)

	dotX := x
	switch anchor[0] {
	case 'm':
		dotX -= width / 2
	case 'r':
		dotX -= width
	}

	dotY := y
	switch anchor[1] {
	case 't':
		dotY -= fixedFloat(bounds.Min.Y)
	case 'm':
		m := face.Metrics()
		dotY -= (fixedFloat(m.Descent) - fixedFloat(m.Ascent)) / 2
	case 'b':
		dotY -= fixedFloat(bounds.Max.Y)
	}

	dot := fixed.Point26_6{X: toFixed(dotX), Y: toFixed(dotY)}
	return dot, box{
		x0: dotX,
		y0: dotY + fixedFloat(bounds.Min.Y),
		x1: dotX + width,
		y1: dotY + fixedFloat(bounds.Max.Y),
	}
}

func drawText(dst draw.Image, face font.Face, c color.Color, x, y float64, anchor string, s string) box {
	dot, b := place(face, x, y, anchor, s)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(s)
	return b
}

func fixedFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func toFixed(f float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(f * 64))
}
