package vncengine

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"
)

// zrlePayload compresses one tile stream and prefixes the u32 length.
func zrlePayload(t *testing.T, tileStream []byte) []byte {
	t.Helper()
	var zb bytes.Buffer
	zw := zlib.NewWriter(&zb)
	if _, err := zw.Write(tileStream); err != nil {
		t.Fatal(err)
	}
	if err := zw.Flush(); err != nil {
		t.Fatal(err)
	}
	out := &bytes.Buffer{}
	binary.Write(out, binary.BigEndian, uint32(zb.Len()))
	out.Write(zb.Bytes())
	return out.Bytes()
}

func TestZRLEPaletteCheckerboard(t *testing.T) {
	// 16x16 rect: a single tile under the 64x64 grid
	stream := []byte{2}
	stream = append(stream, cpixel(0, 0, 0)...)
	stream = append(stream, cpixel(255, 255, 255)...)
	for row := 0; row < 16; row++ {
		if row%2 == 0 {
			stream = append(stream, 0xAA, 0xAA)
		} else {
			stream = append(stream, 0x55, 0x55)
		}
	}

	c := newTestConn(PixelFormatBGRA())
	c.in.Write(zrlePayload(t, stream))
	rect := Rectangle{Width: 16, Height: 16}
	if err := (&ZRLEEncoding{}).Read(c, &rect); err != nil {
		t.Fatal(err)
	}
	if c.in.Len() != 0 {
		t.Fatalf("%d bytes left unconsumed", c.in.Len())
	}

	imgs := c.rawImages()
	if len(imgs) != 1 {
		t.Fatalf("expected 1 tile, got %d", len(imgs))
	}
	data := imgs[0].Data
	if len(data) != 16*16*4 {
		t.Fatalf("tile buffer %d bytes", len(data))
	}
	for i := 0; i < 256; i++ {
		row, col := i/16, i%16
		want := byte(0)
		if (row+col)%2 == 0 {
			want = 255
		}
		if data[i*4] != want || data[i*4+1] != want || data[i*4+2] != want {
			t.Fatalf("pixel (%d,%d) = % x, want %d", col, row, data[i*4:i*4+4], want)
		}
	}
}

func TestZRLETileGrid(t *testing.T) {
	// 100x70 under the 64x64 grid: tiles of 64, 36 across and 64, 6 down
	var stream []byte
	for i := 0; i < 4; i++ {
		stream = append(stream, 1)
		stream = append(stream, cpixel(byte(i), byte(i), byte(i))...)
	}

	c := newTestConn(PixelFormatBGRA())
	c.in.Write(zrlePayload(t, stream))
	rect := Rectangle{Width: 100, Height: 70}
	if err := (&ZRLEEncoding{}).Read(c, &rect); err != nil {
		t.Fatal(err)
	}
	imgs := c.rawImages()
	if len(imgs) != 4 {
		t.Fatalf("expected 4 tiles, got %d", len(imgs))
	}
	wantRects := []Rectangle{
		{X: 0, Y: 0, Width: 64, Height: 64},
		{X: 64, Y: 0, Width: 36, Height: 64},
		{X: 0, Y: 64, Width: 64, Height: 6},
		{X: 64, Y: 64, Width: 36, Height: 6},
	}
	for i, want := range wantRects {
		if imgs[i].Rect != want {
			t.Errorf("tile %d rect %v, want %v", i, imgs[i].Rect, want)
		}
		if len(imgs[i].Data) != want.Area()*4 {
			t.Errorf("tile %d buffer %d bytes", i, len(imgs[i].Data))
		}
	}
}

// The inflater must survive from rectangle to rectangle: both payloads
// below come from one deflate stream, split at a flush boundary.
func TestZRLEPersistentStream(t *testing.T) {
	tileA := append([]byte{1}, cpixel(11, 22, 33)...)
	tileB := append([]byte{1}, cpixel(44, 55, 66)...)

	var zb bytes.Buffer
	zw := zlib.NewWriter(&zb)
	zw.Write(tileA)
	zw.Flush()
	split := zb.Len()
	zw.Write(tileB)
	zw.Flush()

	chunk1 := append([]byte(nil), zb.Bytes()[:split]...)
	chunk2 := append([]byte(nil), zb.Bytes()[split:]...)

	c := newTestConn(PixelFormatBGRA())
	enc := &ZRLEEncoding{}
	rect := Rectangle{Width: 8, Height: 8}

	binary.Write(&c.in, binary.BigEndian, uint32(len(chunk1)))
	c.in.Write(chunk1)
	if err := enc.Read(c, &rect); err != nil {
		t.Fatalf("first rect: %v", err)
	}

	binary.Write(&c.in, binary.BigEndian, uint32(len(chunk2)))
	c.in.Write(chunk2)
	if err := enc.Read(c, &rect); err != nil {
		t.Fatalf("second rect: %v", err)
	}

	imgs := c.rawImages()
	if len(imgs) != 2 {
		t.Fatalf("expected 2 tiles, got %d", len(imgs))
	}
	if !bytes.Equal(imgs[0].Data, repeatPixel(pixel(11, 22, 33), 64)) {
		t.Fatal("first tile mismatch")
	}
	if !bytes.Equal(imgs[1].Data, repeatPixel(pixel(44, 55, 66), 64)) {
		t.Fatal("second tile mismatch")
	}
}

// A fresh decoder per rectangle would reset the zlib stream and corrupt
// the second read; pin that the shared instance is what makes it work.
func TestZRLEFreshDecoderFailsMidStream(t *testing.T) {
	tileA := append([]byte{1}, cpixel(1, 2, 3)...)
	tileB := append([]byte{1}, cpixel(4, 5, 6)...)

	var zb bytes.Buffer
	zw := zlib.NewWriter(&zb)
	zw.Write(tileA)
	zw.Flush()
	split := zb.Len()
	zw.Write(tileB)
	zw.Flush()

	c := newTestConn(PixelFormatBGRA())
	rect := Rectangle{Width: 8, Height: 8}

	binary.Write(&c.in, binary.BigEndian, uint32(split))
	c.in.Write(zb.Bytes()[:split])
	if err := (&ZRLEEncoding{}).Read(c, &rect); err != nil {
		t.Fatalf("first rect: %v", err)
	}

	binary.Write(&c.in, binary.BigEndian, uint32(zb.Len()-split))
	c.in.Write(zb.Bytes()[split:])
	if err := (&ZRLEEncoding{}).Read(c, &rect); err == nil {
		t.Fatal("a fresh inflater decoded mid-stream data; stream state is not persistent")
	}
}
