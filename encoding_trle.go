package vncengine

import (
	"io"
)

const (
	trleTileSize = 16
	zrleTileSize = 64
)

// TRLEEncoding decodes Tiled Run-Length Encoding: the rectangle is
// split into 16x16 tiles (smaller at the right and bottom edges), each
// carrying its own subencoding. Pixels travel as CPIXELs.
type TRLEEncoding struct{}

func (*TRLEEncoding) Type() EncodingType { return EncTRLE }

// Read implements the Encoding interface.
func (enc *TRLEEncoding) Read(c Conn, rect *Rectangle) error {
	return decodeTiles(EncTRLE, c, c.PixelFormat(), rect, trleTileSize, c)
}

// decodeTiles walks the tile grid left to right, top to bottom, and
// publishes one pixel buffer per tile. TRLE reads tiles straight off
// the transport; ZRLE reads them from the session inflater.
func decodeTiles(t EncodingType, src io.Reader, pf PixelFormat, rect *Rectangle, tile int, c Conn) error {
	for y := 0; y < int(rect.Height); y += tile {
		th := tile
		if y+th > int(rect.Height) {
			th = int(rect.Height) - y
		}
		for x := 0; x < int(rect.Width); x += tile {
			tw := tile
			if x+tw > int(rect.Width) {
				tw = int(rect.Width) - x
			}
			tileRect := Rectangle{
				X:     rect.X + uint16(x),
				Y:     rect.Y + uint16(y),
				Width: uint16(tw), Height: uint16(th),
			}
			if err := decodeTile(t, src, pf, &tileRect, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeTile(t EncodingType, src io.Reader, pf PixelFormat, rect *Rectangle, c Conn) error {
	sub, err := ReadUint8(src)
	if err != nil {
		return err
	}
	w, h := int(rect.Width), int(rect.Height)
	total := w * h
	out := make([]byte, total*4)

	switch {
	case sub == 0:
		// raw CPIXEL stream
		for i := 0; i < total; i++ {
			if err := readCPixel(src, pf, out[i*4:i*4+4]); err != nil {
				return err
			}
		}

	case sub == 1:
		// solid tile
		var px [4]byte
		if err := readCPixel(src, pf, px[:]); err != nil {
			return err
		}
		for i := 0; i < total; i++ {
			copy(out[i*4:i*4+4], px[:])
		}

	case sub <= 16:
		// packed palette, rows byte aligned
		n := int(sub)
		pal, err := readTilePalette(src, pf, n)
		if err != nil {
			return err
		}
		bits := paletteIndexBits(n)
		mask := byte(1<<uint(bits) - 1)
		rowBytes := (w*bits + 7) / 8
		for row := 0; row < h; row++ {
			rowData, err := ReadBytes(rowBytes, src)
			if err != nil {
				return err
			}
			shift := 8 - bits
			bi := 0
			for x := 0; x < w; x++ {
				idx := int((rowData[bi] >> uint(shift)) & mask)
				if idx >= n {
					return decodeErrorf(t, "palette index %d out of range %d", idx, n)
				}
				copy(out[(row*w+x)*4:(row*w+x)*4+4], pal[idx*4:idx*4+4])
				if shift == 0 {
					shift = 8 - bits
					bi++
				} else {
					shift -= bits
				}
			}
		}

	case sub <= 127 || sub == 129:
		return decodeErrorf(t, "reserved subencoding %d", sub)

	case sub == 128:
		// plain run-length
		i := 0
		for i < total {
			var px [4]byte
			if err := readCPixel(src, pf, px[:]); err != nil {
				return err
			}
			run, err := readRunLength(src)
			if err != nil {
				return err
			}
			if i+run > total {
				return decodeErrorf(t, "run of %d overruns the tile", run)
			}
			for k := 0; k < run; k++ {
				copy(out[(i+k)*4:(i+k)*4+4], px[:])
			}
			i += run
		}

	default:
		// palette run-length, sub-128 palette entries
		n := int(sub) - 128
		pal, err := readTilePalette(src, pf, n)
		if err != nil {
			return err
		}
		i := 0
		for i < total {
			b, err := ReadUint8(src)
			if err != nil {
				return err
			}
			run := 1
			if b&0x80 != 0 {
				if run, err = readRunLength(src); err != nil {
					return err
				}
			}
			idx := int(b & 0x7f)
			if idx >= n {
				return decodeErrorf(t, "palette index %d out of range %d", idx, n)
			}
			if i+run > total {
				return decodeErrorf(t, "run of %d overruns the tile", run)
			}
			for k := 0; k < run; k++ {
				copy(out[(i+k)*4:(i+k)*4+4], pal[idx*4:idx*4+4])
			}
			i += run
		}
	}

	return c.Publish(RawImageEvent{Rect: *rect, Data: out})
}

func readTilePalette(src io.Reader, pf PixelFormat, n int) ([]byte, error) {
	pal := make([]byte, n*4)
	for i := 0; i < n; i++ {
		if err := readCPixel(src, pf, pal[i*4:i*4+4]); err != nil {
			return nil, err
		}
	}
	return pal, nil
}

func paletteIndexBits(n int) int {
	switch {
	case n <= 2:
		return 1
	case n <= 4:
		return 2
	}
	return 4
}

// readRunLength sums length bytes until one below 255, plus one.
func readRunLength(src io.Reader) (int, error) {
	run := 1
	for {
		b, err := ReadUint8(src)
		if err != nil {
			return 0, err
		}
		run += int(b)
		if b != 255 {
			return run, nil
		}
	}
}
