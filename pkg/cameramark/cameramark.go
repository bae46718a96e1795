// Package cameramark frames photos with a white border and prints their camera metadata into it.
package cameramark

import (
	"errors"
	"fmt"
)

// DefaultFontURL is the Oswald typeface from the Google Fonts repository.
var DefaultFontURL = "https://github.com/google/fonts/blob/main/ofl/oswald/Oswald%5Bwght%5D.ttf?raw=true"

// Config holds configuration for cameramark.
type Config struct {
	InPath   string
	OutDir   string
	FontPath string
	FontURL  string
	Quality  int

	UseExiftool bool
	KeepGoing   bool
}

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned when the output path exists but is not a directory.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidFormat is returned for files without a supported image extension.
	ErrInvalidFormat = errors.New("invalid file format")
	// ErrMissingField is matched by every MissingFieldError.
	ErrMissingField = errors.New("missing metadata field")
)

// MissingFieldError reports a required metadata field absent from a file.
type MissingFieldError struct {
	Field string
	Path  string
}

func (e *MissingFieldError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("missing metadata field %q", e.Field)
	}
	return fmt.Sprintf("%s: missing metadata field %q", e.Path, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
