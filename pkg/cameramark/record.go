package cameramark

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Field names stored in a Record.
const (
	Make              = "Make"
	Model             = "Model"
	Orientation       = "Orientation"
	DateTime          = "DateTime"
	Exposure          = "Exposure"
	FNumber           = "FNumber"
	ISOSpeedRatings   = "ISOSpeedRatings"
	FocalLength       = "FocalLength"
	LensModel         = "LensModel"
	LensMake          = "LensMake"
	LensSpecification = "LensSpecification"
	ExposureTime      = "ExposureTime"
)

// requiredFields are read by AddBorder and Overlay.
var requiredFields = []string{
	Make, Model, Orientation, DateTime, FNumber, ExposureTime, ISOSpeedRatings, FocalLength, LensModel,
}

// orientationLabels renders the EXIF Orientation values.
var orientationLabels = map[int]string{
	1: "Horizontal (normal)",
	2: "Mirrored horizontal",
	3: "Rotated 180",
	4: "Mirrored vertical",
	5: "Mirrored horizontal then rotated 90 CCW",
	6: "Rotated 90 CW",
	7: "Mirrored horizontal then rotated 90 CW",
	8: "Rotated 90 CCW",
}

// Record is the camera metadata of a single file. It is not modified after NewRecord returns.
type Record struct {
	path   string
	fields map[string]string
}

// NewRecord builds a record for path from raw field values, normalizing FNumber.
func NewRecord(path string, fields map[string]string) *Record {
	r := &Record{path: path, fields: maps.Clone(fields)}
	if r.fields == nil {
		r.fields = map[string]string{}
	}
	if v, ok := r.fields[FNumber]; ok {
		r.fields[FNumber] = normalizeFNumber(v)
	}
	return r
}

// Get returns the value of a field, or a *MissingFieldError.
func (r *Record) Get(name string) (string, error) {
	v, ok := r.fields[name]
	if !ok {
		return "", &MissingFieldError{Field: name, Path: r.path}
	}
	return v, nil
}

// Fields returns a copy of every field in the record.
func (r *Record) Fields() map[string]string {
	return maps.Clone(r.fields)
}

// Path is the file the record was read from.
func (r *Record) Path() string {
	return r.path
}

// Validate checks that every field the renderer reads is present.
func (r *Record) Validate() error {
	for _, f := range requiredFields {
		if _, err := r.Get(f); err != nil {
			return err
		}
	}
	return nil
}

// Vertical reports whether the photo was taken rotated by 90 degrees.
func (r *Record) Vertical() (bool, error) {
	o, err := r.Get(Orientation)
	if err != nil {
		return false, err
	}
	return strings.Contains(o, "90"), nil
}

// normalizeFNumber turns "a/b" into the decimal quotient, leaving anything else alone.
func normalizeFNumber(v string) string {
	parts := strings.Split(v, "/")
	if len(parts) != 2 {
		return v
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return v
	}
	den, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || den == 0 {
		return v
	}
	return strconv.FormatFloat(num/den, 'f', -1, 64)
}

// exposureLine renders the focal length, shutter speed, aperture and ISO line.
func exposureLine(r *Record) (string, error) {
	vals := map[string]string{}
	for _, f := range []string{FocalLength, ExposureTime, FNumber, ISOSpeedRatings} {
		v, err := r.Get(f)
		if err != nil {
			return "", err
		}
		vals[f] = v
	}

	fn, err := strconv.ParseFloat(vals[FNumber], 64)
	if err != nil {
		return "", fmt.Errorf("parse FNumber %q: %w", vals[FNumber], err)
	}

	return fmt.Sprintf("%smm  %ss  f/%.1f  ISO%s", vals[FocalLength], vals[ExposureTime], fn, vals[ISOSpeedRatings]), nil
}
