package vncengine

import (
	"io"

	"github.com/amitbet/vncengine/logger"
)

const (
	tightCompressionFill = 8
	tightCompressionJPEG = 9
)

const (
	tightFilterCopy     = 0
	tightFilterPalette  = 1
	tightFilterGradient = 2
)

// Payloads shorter than this arrive uncompressed, with no compact
// length prefix.
const tightMinToCompress = 12

// TightEncoding decodes the Tight encoding. It owns four zlib streams,
// selected and optionally reset by the compression control byte; their
// state persists across rectangles.
type TightEncoding struct {
	streams [4]zlibStream
}

func (*TightEncoding) Type() EncodingType { return EncTight }

// Read implements the Encoding interface.
func (enc *TightEncoding) Read(c Conn, rect *Rectangle) error {
	pf := c.PixelFormat()
	compctl, err := ReadUint8(c)
	if err != nil {
		return err
	}
	logger.Tracef("tight rect %v compctl %#x", rect, compctl)

	// low nibble: per-stream reset flags
	for i := uint(0); i < 4; i++ {
		if compctl&(1<<i) != 0 {
			enc.streams[i].reset()
		}
	}

	compType := compctl >> 4
	switch {
	case compType == tightCompressionFill:
		return enc.readFill(c, pf, rect)
	case compType == tightCompressionJPEG:
		return enc.readJpeg(c, pf, rect)
	case compType > tightCompressionJPEG:
		return decodeErrorf(EncTight, "reserved compression control %#x", compctl)
	}
	return enc.readBasic(c, pf, rect, compctl)
}

func (enc *TightEncoding) readFill(c Conn, pf PixelFormat, rect *Rectangle) error {
	var px [4]byte
	if err := readTPixel(c, pf, px[:]); err != nil {
		return err
	}
	out := make([]byte, rect.Area()*4)
	for i := 0; i < rect.Area(); i++ {
		copy(out[i*4:i*4+4], px[:])
	}
	return c.Publish(RawImageEvent{Rect: *rect, Data: out})
}

func (enc *TightEncoding) readJpeg(c Conn, pf PixelFormat, rect *Rectangle) error {
	if pf.BPP == 8 {
		return decodeErrorf(EncTight, "JPEG is not valid in 8 bpp mode")
	}
	length, err := readTightLength(c)
	if err != nil {
		return err
	}
	data, err := ReadBytes(length, c)
	if err != nil {
		return err
	}
	// decoding the JPEG is the host's job
	return c.Publish(JpegImageEvent{Rect: *rect, Data: data})
}

func (enc *TightEncoding) readBasic(c Conn, pf PixelFormat, rect *Rectangle, compctl uint8) error {
	streamID := (compctl >> 4) & 0x03
	var filterID uint8
	if compctl&0x40 != 0 {
		var err error
		if filterID, err = ReadUint8(c); err != nil {
			return err
		}
	}

	tbpp := pf.tightBytesPerPixel()
	w, h := int(rect.Width), int(rect.Height)
	total := w * h

	switch filterID {
	case tightFilterCopy:
		data, err := enc.readData(c, streamID, total*tbpp)
		if err != nil {
			return err
		}
		out := make([]byte, total*4)
		if pf.Compact() {
			for i := 0; i < total; i++ {
				pf.composeRGB(data[i*3], data[i*3+1], data[i*3+2], out[i*4:i*4+4])
			}
		} else {
			for i := 0; i < total; i++ {
				pf.pixel32(data[i*tbpp:(i+1)*tbpp], out[i*4:i*4+4])
			}
		}
		return c.Publish(RawImageEvent{Rect: *rect, Data: out})

	case tightFilterPalette:
		n, err := ReadUint8(c)
		if err != nil {
			return err
		}
		numColors := int(n) + 1
		pal := make([]byte, numColors*4)
		for i := 0; i < numColors; i++ {
			if err := readTPixel(c, pf, pal[i*4:i*4+4]); err != nil {
				return err
			}
		}

		out := make([]byte, total*4)
		if numColors == 2 {
			rowBytes := (w + 7) / 8
			data, err := enc.readData(c, streamID, rowBytes*h)
			if err != nil {
				return err
			}
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					idx := (data[y*rowBytes+x/8] >> uint(7-x%8)) & 1
					copy(out[(y*w+x)*4:(y*w+x)*4+4], pal[int(idx)*4:int(idx)*4+4])
				}
			}
		} else {
			data, err := enc.readData(c, streamID, total)
			if err != nil {
				return err
			}
			for i := 0; i < total; i++ {
				idx := int(data[i])
				if idx >= numColors {
					return decodeErrorf(EncTight, "palette index %d out of range %d", idx, numColors)
				}
				copy(out[i*4:i*4+4], pal[idx*4:idx*4+4])
			}
		}
		return c.Publish(RawImageEvent{Rect: *rect, Data: out})

	case tightFilterGradient:
		if tbpp != 3 {
			return decodeErrorf(EncTight, "gradient filter requires the 3-byte pixel form")
		}
		data, err := enc.readData(c, streamID, total*3)
		if err != nil {
			return err
		}
		out := make([]byte, total*4)
		prevRow := make([]byte, w*3)
		thisRow := make([]byte, w*3)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				for ch := 0; ch < 3; ch++ {
					var left, upper, diag int
					if x > 0 {
						left = int(thisRow[(x-1)*3+ch])
					}
					if y > 0 {
						upper = int(prevRow[x*3+ch])
					}
					if x > 0 && y > 0 {
						diag = int(prevRow[(x-1)*3+ch])
					}
					est := left + upper - diag
					if est < 0 {
						est = 0
					} else if est > 255 {
						est = 255
					}
					thisRow[x*3+ch] = byte(est) + data[(y*w+x)*3+ch]
				}
				pf.composeRGB(thisRow[x*3], thisRow[x*3+1], thisRow[x*3+2], out[(y*w+x)*4:(y*w+x)*4+4])
			}
			prevRow, thisRow = thisRow, prevRow
		}
		return c.Publish(RawImageEvent{Rect: *rect, Data: out})
	}

	return decodeErrorf(EncTight, "bad filter id %d", filterID)
}

// readData fetches one filter payload: raw when the uncompressed size
// is under the compression threshold, otherwise a compact length of
// compressed bytes pushed through the selected stream.
func (enc *TightEncoding) readData(c Conn, stream uint8, size int) ([]byte, error) {
	if size < tightMinToCompress {
		return ReadBytes(size, c)
	}
	compressed, err := readTightLength(c)
	if err != nil {
		return nil, err
	}
	zipped, err := ReadBytes(compressed, c)
	if err != nil {
		return nil, err
	}
	enc.streams[stream].feed(zipped)
	out := make([]byte, size)
	if _, err := io.ReadFull(&enc.streams[stream], out); err != nil {
		return nil, decodeErrorf(EncTight, "inflating stream %d: %v", stream, err)
	}
	return out, nil
}
