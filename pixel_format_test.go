package vncengine

import (
	"bytes"
	"testing"
)

func TestPixelFormatBGRA(t *testing.T) {
	pf := PixelFormatBGRA()
	if pf.BPP != 32 || pf.Depth != 24 || pf.TrueColor != 1 {
		t.Fatalf("unexpected default format %v", pf)
	}
	if pf.RedShift != 16 || pf.GreenShift != 8 || pf.BlueShift != 0 {
		t.Errorf("unexpected shifts in %v", pf)
	}
	if err := pf.Validate(); err != nil {
		t.Errorf("default format failed validation: %v", err)
	}
}

func TestPixelFormatWire(t *testing.T) {
	pf := PixelFormatBGRA()
	buf := &bytes.Buffer{}
	if err := pf.Write(buf); err != nil {
		t.Fatal(err)
	}
	want := []byte{32, 24, 0, 1, 0, 255, 0, 255, 0, 255, 16, 8, 0, 0, 0, 0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("wire form = % x, want % x", buf.Bytes(), want)
	}
	var back PixelFormat
	if err := back.Read(bytes.NewReader(want)); err != nil {
		t.Fatal(err)
	}
	if back != pf {
		t.Fatalf("round trip mismatch: %v != %v", back, pf)
	}
}

func TestValidateRejectsColorMap(t *testing.T) {
	pf := PixelFormatBGRA()
	pf.TrueColor = 0
	if err := pf.Validate(); err == nil {
		t.Fatal("colour-map format passed validation")
	}
}

func TestValidateRejectsBadMax(t *testing.T) {
	pf := PixelFormatBGRA()
	pf.GreenMax = 254
	if err := pf.Validate(); err == nil {
		t.Fatal("green-max 254 passed validation")
	}
}

func TestCompactPredicate(t *testing.T) {
	bgra := PixelFormatBGRA()
	if !bgra.Compact() {
		t.Error("bgra should use the compact pixel form")
	}
	if bgra.compactOffset() != 0 || bgra.paddingIndex() != 3 {
		t.Errorf("bgra compact offset %d padding %d", bgra.compactOffset(), bgra.paddingIndex())
	}

	be := bgra
	be.BigEndian = 1
	if !be.Compact() {
		t.Error("big-endian bgra should still be compact")
	}
	if be.compactOffset() != 1 || be.paddingIndex() != 0 {
		t.Errorf("big-endian compact offset %d padding %d", be.compactOffset(), be.paddingIndex())
	}

	rgb565 := PixelFormat{
		BPP: 16, Depth: 16, TrueColor: 1,
		RedMax: 31, GreenMax: 63, BlueMax: 31,
		RedShift: 11, GreenShift: 5, BlueShift: 0,
	}
	if rgb565.Compact() {
		t.Error("16 bpp format must not use the compact pixel form")
	}

	deep := bgra
	deep.Depth = 32
	deep.RedShift = 24
	if deep.Compact() {
		t.Error("depth-32 format must not use the compact pixel form")
	}
}

func TestPixel32From16bpp(t *testing.T) {
	rgb565 := PixelFormat{
		BPP: 16, Depth: 16, TrueColor: 1,
		RedMax: 31, GreenMax: 63, BlueMax: 31,
		RedShift: 11, GreenShift: 5, BlueShift: 0,
	}
	var out [4]byte
	rgb565.pixel32([]byte{0x00, 0xF8}, out[:]) // little-endian 0xF800: pure red
	if out != [4]byte{0, 0, 255, 0} {
		t.Fatalf("red 565 pixel = % x", out)
	}
	rgb565.pixel32([]byte{0xFF, 0xFF}, out[:])
	if out != [4]byte{255, 255, 255, 0} {
		t.Fatalf("white 565 pixel = % x", out)
	}
}

func TestComposeRGB(t *testing.T) {
	pf := PixelFormatBGRA()
	var out [4]byte
	pf.composeRGB(0x10, 0x20, 0x30, out[:])
	if out != [4]byte{0x30, 0x20, 0x10, 0x00} {
		t.Fatalf("bgra compose = % x", out)
	}

	be := pf
	be.BigEndian = 1
	be.composeRGB(0x10, 0x20, 0x30, out[:])
	if out != [4]byte{0x00, 0x10, 0x20, 0x30} {
		t.Fatalf("big-endian compose = % x", out)
	}
}

func TestReadCPixel(t *testing.T) {
	pf := PixelFormatBGRA()
	var out [4]byte
	if err := readCPixel(bytes.NewReader([]byte{0xAA, 0xBB, 0xCC}), pf, out[:]); err != nil {
		t.Fatal(err)
	}
	// positional: the three low bytes of the little-endian pixel
	if out != [4]byte{0xAA, 0xBB, 0xCC, 0x00} {
		t.Fatalf("cpixel = % x", out)
	}
}

func TestReadTPixel(t *testing.T) {
	pf := PixelFormatBGRA()
	var out [4]byte
	if err := readTPixel(bytes.NewReader([]byte{0x10, 0x20, 0x30}), pf, out[:]); err != nil {
		t.Fatal(err)
	}
	// fixed red, green, blue order composed through the shifts
	if out != [4]byte{0x30, 0x20, 0x10, 0x00} {
		t.Fatalf("tpixel = % x", out)
	}
}
