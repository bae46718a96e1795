package cameramark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// exiftoolNames maps record fields to exiftool tag names.
var exiftoolNames = map[string]string{
	Make:              "Make",
	Model:             "Model",
	Orientation:       "Orientation",
	DateTime:          "ModifyDate",
	FNumber:           "FNumber",
	ISOSpeedRatings:   "ISO",
	FocalLength:       "FocalLength",
	LensModel:         "LensModel",
	LensMake:          "LensMake",
	LensSpecification: "LensInfo",
	ExposureTime:      "ExposureTime",
}

// ExiftoolReader extracts metadata by way of a long-running exiftool process.
type ExiftoolReader struct {
	et *exiftool.Exiftool
}

// NewExiftoolReader starts exiftool. Callers must Close it.
func NewExiftoolReader() (*ExiftoolReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExiftoolReader{et: et}, nil
}

// Close stops the exiftool process.
func (e *ExiftoolReader) Close() error {
	return e.et.Close()
}

// Extract implements Extractor.
func (e *ExiftoolReader) Extract(path string) (*Record, error) {
	fis := e.et.ExtractMetadata(path)
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	r := NewRecord(path, exiftoolFields(fi.Fields))
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func exiftoolFields(raw map[string]interface{}) map[string]string {
	fields := map[string]string{}
	for name, tag := range exiftoolNames {
		v, ok := raw[tag]
		if !ok {
			continue
		}
		s := exiftoolValue(v)
		if name == FocalLength {
			s = strings.TrimSuffix(s, " mm")
			s = strings.TrimSuffix(s, ".0")
		}
		fields[name] = s
	}
	return fields
}

func exiftoolValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []interface{}:
		ss := make([]string, 0, len(t))
		for _, x := range t {
			ss = append(ss, exiftoolValue(x))
		}
		return "[" + strings.Join(ss, ", ") + "]"
	default:
		return fmt.Sprint(v)
	}
}
