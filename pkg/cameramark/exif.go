package cameramark

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	"k8s.io/klog/v2"
)

// Extractor reads the camera metadata of an image file.
type Extractor interface {
	Extract(path string) (*Record, error)
}

const exifPointerTag = 0x8769

var ifd0Tags = map[uint16]string{
	0x010f: Make,
	0x0110: Model,
	0x0112: Orientation,
	0x0132: DateTime,
}

var exifTags = map[uint16]string{
	0x829a: ExposureTime,
	0x829d: FNumber,
	0x8827: ISOSpeedRatings,
	0x920a: FocalLength,
	0xa432: LensSpecification,
	0xa433: LensMake,
	0xa434: LensModel,
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ExifReader extracts metadata in-process using goexif.
type ExifReader struct{}

// Extract implements Extractor.
func (ExifReader) Extract(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if strings.EqualFold(filepath.Ext(path), ".png") {
		raw, err := pngExif(f)
		if err != nil {
			return nil, fmt.Errorf("png exif: %w", err)
		}
		src = bytes.NewReader(raw)
	}

	fields := map[string]string{}
	x, err := exif.Decode(src)
	switch {
	case err != nil && (x == nil || exif.IsCriticalError(err)):
		klog.Warningf("no usable exif in %s: %v", path, err)
	case err != nil:
		klog.Warningf("partial exif in %s: %v", path, err)
		fallthrough
	default:
		fields, err = readTags(x)
		if err != nil {
			return nil, fmt.Errorf("read tags for %s: %w", path, err)
		}
	}

	for k, v := range fields {
		klog.V(2).Infof("%s: %q=%q", path, k, v)
	}

	r := NewRecord(path, fields)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// readTags looks up the target tags by ID in IFD0 and the Exif sub-IFD.
func readTags(x *exif.Exif) (map[string]string, error) {
	fields := map[string]string{}
	if x == nil || x.Tiff == nil || len(x.Tiff.Dirs) == 0 {
		return fields, nil
	}

	ifd0 := x.Tiff.Dirs[0]
	if err := collectTags(fields, ifd0.Tags, ifd0Tags); err != nil {
		return nil, err
	}

	for _, t := range ifd0.Tags {
		if t.Id != exifPointerTag {
			continue
		}
		off, err := t.Int64(0)
		if err != nil {
			return nil, fmt.Errorf("exif pointer: %w", err)
		}
		r := bytes.NewReader(x.Raw)
		if _, err := r.Seek(off, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek exif ifd: %w", err)
		}
		d, _, err := tiff.DecodeDir(r, x.Tiff.Order)
		if err != nil {
			return nil, fmt.Errorf("decode exif ifd: %w", err)
		}
		if err := collectTags(fields, d.Tags, exifTags); err != nil {
			return nil, err
		}
	}

	return fields, nil
}

func collectTags(fields map[string]string, tags []*tiff.Tag, names map[uint16]string) error {
	for _, t := range tags {
		name, ok := names[t.Id]
		if !ok {
			continue
		}
		v, err := formatTag(name, t)
		if err != nil {
			return fmt.Errorf("format %s: %w", name, err)
		}
		fields[name] = v
	}
	return nil
}

// formatTag renders a tag value the way EXIF tag dumps conventionally print it.
func formatTag(name string, t *tiff.Tag) (string, error) {
	var vals []string

	switch t.Format() {
	case tiff.StringVal:
		s, err := t.StringVal()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(strings.TrimRight(s, "\x00")), nil
	case tiff.RatVal:
		for i := 0; i < int(t.Count); i++ {
			num, den, err := t.Rat2(i)
			if err != nil {
				return "", err
			}
			vals = append(vals, formatRat(num, den))
		}
	case tiff.IntVal:
		for i := 0; i < int(t.Count); i++ {
			n, err := t.Int64(i)
			if err != nil {
				return "", err
			}
			vals = append(vals, strconv.FormatInt(n, 10))
		}
		if name == Orientation && len(vals) == 1 {
			n, _ := strconv.Atoi(vals[0])
			if label, ok := orientationLabels[n]; ok {
				return label, nil
			}
		}
	case tiff.FloatVal:
		for i := 0; i < int(t.Count); i++ {
			f, err := t.Float(i)
			if err != nil {
				return "", err
			}
			vals = append(vals, strconv.FormatFloat(f, 'f', -1, 64))
		}
	default:
		return strings.TrimSpace(strings.TrimRight(string(t.Val), "\x00")), nil
	}

	if len(vals) == 1 {
		return vals[0], nil
	}
	return "[" + strings.Join(vals, ", ") + "]", nil
}

// formatRat prints a reduced fraction, or a whole number when the denominator is 1.
func formatRat(num, den int64) string {
	if den == 0 {
		return fmt.Sprintf("%d/%d", num, den)
	}
	return big.NewRat(num, den).RatString()
}

// pngExif returns the payload of the eXIf chunk, or nil if the file has none.
func pngExif(r io.Reader) ([]byte, error) {
	sig := make([]byte, len(pngSignature))
	if _, err := io.ReadFull(r, sig); err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	if !bytes.Equal(sig, pngSignature) {
		return nil, fmt.Errorf("not a png")
	}

	hdr := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, hdr); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		n := int64(binary.BigEndian.Uint32(hdr[:4]))
		switch string(hdr[4:]) {
		case "eXIf":
			data := make([]byte, n)
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, fmt.Errorf("read eXIf: %w", err)
			}
			return data, nil
		case "IEND":
			return nil, nil
		}
		// data plus CRC
		if _, err := io.CopyN(io.Discard, r, n+4); err != nil {
			return nil, fmt.Errorf("skip %s chunk: %w", hdr[4:], err)
		}
	}
}
