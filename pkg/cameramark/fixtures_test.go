package cameramark

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

type tiffEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) tiffEntry {
	b := append([]byte(s), 0)
	return tiffEntry{tag: tag, typ: 2, count: uint32(len(b)), data: b}
}

func shortEntry(tag uint16, v uint16) tiffEntry {
	return tiffEntry{tag: tag, typ: 3, count: 1, data: binary.LittleEndian.AppendUint16(nil, v)}
}

func longEntry(tag uint16, v uint32) tiffEntry {
	return tiffEntry{tag: tag, typ: 4, count: 1, data: binary.LittleEndian.AppendUint32(nil, v)}
}

func ratEntry(tag uint16, vals ...[2]uint32) tiffEntry {
	var b []byte
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, v[0])
		b = binary.LittleEndian.AppendUint32(b, v[1])
	}
	return tiffEntry{tag: tag, typ: 5, count: uint32(len(vals)), data: b}
}

// encodeIFD lays out a directory at offset start, followed by its out-of-line values.
func encodeIFD(entries []tiffEntry, start uint32) []byte {
	le := binary.LittleEndian
	dirLen := 2 + 12*len(entries) + 4
	dataOff := start + uint32(dirLen)

	dir := le.AppendUint16(nil, uint16(len(entries)))
	var data []byte
	for _, e := range entries {
		dir = le.AppendUint16(dir, e.tag)
		dir = le.AppendUint16(dir, e.typ)
		dir = le.AppendUint32(dir, e.count)
		if len(e.data) <= 4 {
			v := make([]byte, 4)
			copy(v, e.data)
			dir = append(dir, v...)
			continue
		}
		dir = le.AppendUint32(dir, dataOff+uint32(len(data)))
		data = append(data, e.data...)
		if len(data)%2 == 1 {
			data = append(data, 0)
		}
	}
	dir = le.AppendUint32(dir, 0)
	return append(dir, data...)
}

// exifFixture describes the tags written into a test image. Zero values are omitted.
type exifFixture struct {
	Make, Model, DateTime string
	Orientation           uint16

	ExposureTime, FNumber, FocalLength [2]uint32
	ISO                                uint16
	LensSpec                           [][2]uint32
	LensMake, LensModel                string
}

func completeFixture() exifFixture {
	return exifFixture{
		Make:         "FUJIFILM",
		Model:        "X-T5",
		DateTime:     "2024:05:01 10:20:30",
		Orientation:  1,
		ExposureTime: [2]uint32{1, 250},
		FNumber:      [2]uint32{28, 10},
		FocalLength:  [2]uint32{230, 10},
		ISO:          400,
		LensSpec:     [][2]uint32{{23, 1}, {23, 1}, {14, 10}, {14, 10}},
		LensMake:     "FUJIFILM",
		LensModel:    "XF23mmF1.4 R LM WR",
	}
}

func (f exifFixture) tiff() []byte {
	var ifd0 []tiffEntry
	if f.Make != "" {
		ifd0 = append(ifd0, asciiEntry(0x010f, f.Make))
	}
	if f.Model != "" {
		ifd0 = append(ifd0, asciiEntry(0x0110, f.Model))
	}
	if f.Orientation != 0 {
		ifd0 = append(ifd0, shortEntry(0x0112, f.Orientation))
	}
	if f.DateTime != "" {
		ifd0 = append(ifd0, asciiEntry(0x0132, f.DateTime))
	}

	var sub []tiffEntry
	if f.ExposureTime[1] != 0 {
		sub = append(sub, ratEntry(0x829a, f.ExposureTime))
	}
	if f.FNumber[1] != 0 {
		sub = append(sub, ratEntry(0x829d, f.FNumber))
	}
	if f.ISO != 0 {
		sub = append(sub, shortEntry(0x8827, f.ISO))
	}
	if f.FocalLength[1] != 0 {
		sub = append(sub, ratEntry(0x920a, f.FocalLength))
	}
	if len(f.LensSpec) > 0 {
		sub = append(sub, ratEntry(0xa432, f.LensSpec...))
	}
	if f.LensMake != "" {
		sub = append(sub, asciiEntry(0xa433, f.LensMake))
	}
	if f.LensModel != "" {
		sub = append(sub, asciiEntry(0xa434, f.LensModel))
	}

	// the pointer value does not change the directory size
	ifd0 = append(ifd0, longEntry(exifPointerTag, 0))
	subStart := uint32(8 + len(encodeIFD(ifd0, 8)))
	ifd0[len(ifd0)-1] = longEntry(exifPointerTag, subStart)

	out := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	out = append(out, encodeIFD(ifd0, 8)...)
	return append(out, encodeIFD(sub, subStart)...)
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

// writeJPEG writes a w x h JPEG carrying f as an APP1 segment.
func writeJPEG(t *testing.T, dir, name string, w, h int, f exifFixture) string {
	t.Helper()

	var enc bytes.Buffer
	if err := jpeg.Encode(&enc, testImage(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	payload := append([]byte("Exif\x00\x00"), f.tiff()...)
	length := len(payload) + 2
	if length > 0xFFFF {
		t.Fatalf("exif payload too large: %d", length)
	}

	out := []byte{0xFF, 0xD8, 0xFF, 0xE1, byte(length >> 8), byte(length)}
	out = append(out, payload...)
	out = append(out, enc.Bytes()[2:]...)

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, out, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

// writePNG writes a w x h PNG with f in an eXIf chunk right after IHDR.
func writePNG(t *testing.T, dir, name string, w, h int, f exifFixture) string {
	t.Helper()

	var enc bytes.Buffer
	if err := png.Encode(&enc, testImage(w, h)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	bs := enc.Bytes()

	// signature (8) + IHDR length, type, data (13) and CRC
	const afterIHDR = 8 + 4 + 4 + 13 + 4
	data := f.tiff()
	typed := append([]byte("eXIf"), data...)

	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	chunk = append(chunk, typed...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(typed))

	out := append([]byte{}, bs[:afterIHDR]...)
	out = append(out, chunk...)
	out = append(out, bs[afterIHDR:]...)

	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, out, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func testFonts(t *testing.T) *Fonts {
	t.Helper()
	f, err := FontsFromBytes(goregular.TTF)
	if err != nil {
		t.Fatalf("FontsFromBytes: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func imageSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode config %s: %v", path, err)
	}
	return ic.Width, ic.Height
}
