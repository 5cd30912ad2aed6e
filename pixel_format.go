// Implementation of RFC 6143 §7.4 Pixel Format Data Structure.

package vncengine

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// PixelFormat describes the way a pixel is laid out on the wire. The
// struct matches the 16-byte wire form field for field.
type PixelFormat struct {
	BPP                             uint8   // bits-per-pixel
	Depth                           uint8   // depth
	BigEndian                       uint8   // big-endian-flag
	TrueColor                       uint8   // true-color-flag
	RedMax, GreenMax, BlueMax       uint16  // red-, green-, blue-max (2^k-1)
	RedShift, GreenShift, BlueShift uint8   // red-, green-, blue-shift
	_                               [3]byte // padding
}

const pixelFormatLen = 16

// PixelFormatBGRA is the default client format: 32 bpp, depth 24,
// little-endian, so pixels travel as [blue, green, red, unused].
func PixelFormatBGRA() PixelFormat {
	return PixelFormat{
		BPP:       32,
		Depth:     24,
		TrueColor: 1,
		RedMax:    255, GreenMax: 255, BlueMax: 255,
		RedShift: 16, GreenShift: 8, BlueShift: 0,
	}
}

// PixelFormatRGBA mirrors PixelFormatBGRA with red and blue swapped, so
// pixels travel as [red, green, blue, unused].
func PixelFormatRGBA() PixelFormat {
	pf := PixelFormatBGRA()
	pf.RedShift, pf.BlueShift = 0, 16
	return pf
}

// Read populates the PixelFormat from an io.Reader.
func (pf *PixelFormat) Read(r io.Reader) error {
	return binary.Read(r, binary.BigEndian, pf)
}

// Write serialises the PixelFormat onto an io.Writer.
func (pf *PixelFormat) Write(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, pf)
}

// Validate checks that the engine can decode pixels in this format: the
// format must be true colour with channel maxima of the form 2^k-1 that
// fit inside the pixel.
func (pf PixelFormat) Validate() error {
	switch pf.BPP {
	case 8, 16, 32:
	default:
		return &PixelFormatError{Detail: fmt.Sprintf("bits-per-pixel %d; must be 8, 16 or 32", pf.BPP)}
	}
	if pf.Depth > pf.BPP {
		return &PixelFormatError{Detail: fmt.Sprintf("depth %d exceeds bits-per-pixel %d", pf.Depth, pf.BPP)}
	}
	if pf.TrueColor == 0 {
		return &PixelFormatError{Detail: "colour-map formats are not supported; true colour required"}
	}
	for _, ch := range []struct {
		name  string
		max   uint16
		shift uint8
	}{
		{"red", pf.RedMax, pf.RedShift},
		{"green", pf.GreenMax, pf.GreenShift},
		{"blue", pf.BlueMax, pf.BlueShift},
	} {
		if ch.max == 0 || ch.max&(ch.max+1) != 0 {
			return &PixelFormatError{Detail: fmt.Sprintf("%s-max %d is not 2^k-1", ch.name, ch.max)}
		}
		if int(ch.shift)+bits.Len16(ch.max) > int(pf.BPP) {
			return &PixelFormatError{Detail: fmt.Sprintf("%s channel does not fit in %d bits", ch.name, pf.BPP)}
		}
	}
	rm := uint32(pf.RedMax) << pf.RedShift
	gm := uint32(pf.GreenMax) << pf.GreenShift
	bm := uint32(pf.BlueMax) << pf.BlueShift
	if rm&gm != 0 || rm&bm != 0 || gm&bm != 0 {
		return &PixelFormatError{Detail: "colour channel masks overlap"}
	}
	return nil
}

// String implements the fmt.Stringer interface.
func (pf PixelFormat) String() string {
	return fmt.Sprintf("{ bpp: %d depth: %d big-endian: %d true-color: %d red-max: %d green-max: %d blue-max: %d red-shift: %d green-shift: %d blue-shift: %d }",
		pf.BPP, pf.Depth, pf.BigEndian, pf.TrueColor, pf.RedMax, pf.GreenMax, pf.BlueMax, pf.RedShift, pf.GreenShift, pf.BlueShift)
}

func (pf PixelFormat) order() binary.ByteOrder {
	if pf.BigEndian != 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// BytesPerPixel returns the native pixel width in bytes.
func (pf PixelFormat) BytesPerPixel() int {
	return int(pf.BPP) / 8
}

// channelMask is the 32-bit mask covered by the colour channels.
func (pf PixelFormat) channelMask() uint32 {
	return uint32(pf.RedMax)<<pf.RedShift |
		uint32(pf.GreenMax)<<pf.GreenShift |
		uint32(pf.BlueMax)<<pf.BlueShift
}

// Compact reports whether the CPIXEL/TPIXEL 3-byte abbreviation applies:
// 32 bits per pixel, depth at most 24, and all colour channels packed
// into three consecutive bytes of the pixel.
func (pf PixelFormat) Compact() bool {
	if pf.BPP != 32 || pf.TrueColor == 0 || pf.Depth > 24 {
		return false
	}
	if pf.RedMax > 255 || pf.GreenMax > 255 || pf.BlueMax > 255 {
		return false
	}
	mask := pf.channelMask()
	return mask&0x000000ff == 0 || mask&0xff000000 == 0
}

// compactOffset is the index of the first colour byte inside the 4-byte
// serialised pixel, valid only when Compact() holds.
func (pf PixelFormat) compactOffset() int {
	if pf.channelMask()&0x000000ff == 0 {
		// colour lives in the three most significant bytes
		if pf.BigEndian != 0 {
			return 0
		}
		return 1
	}
	if pf.BigEndian != 0 {
		return 1
	}
	return 0
}

// paddingIndex is the serialised byte not covered by any colour channel,
// valid only when Compact() holds. The cursor decoder writes per-pixel
// alpha there.
func (pf PixelFormat) paddingIndex() int {
	if pf.compactOffset() == 1 {
		return 0
	}
	return 3
}

// alphaIndex returns the output byte that receives cursor alpha.
func (pf PixelFormat) alphaIndex() int {
	if pf.Compact() {
		return pf.paddingIndex()
	}
	return 3
}

func scale8(v uint32, max uint16) uint32 {
	if max == 0 {
		return 0
	}
	if max == 255 {
		return v
	}
	return v * 255 / uint32(max)
}

// pixel32 widens one native pixel into the 4-byte output form. A 32 bpp
// pixel already carries the client layout and passes through untouched;
// 8 and 16 bpp pixels are expanded to the 32/24 little-endian layout
// with the unused byte zero.
func (pf PixelFormat) pixel32(raw []byte, out []byte) {
	if pf.BPP == 32 {
		copy(out[:4], raw[:4])
		return
	}
	var px uint32
	switch pf.BPP {
	case 8:
		px = uint32(raw[0])
	case 16:
		px = uint32(pf.order().Uint16(raw))
	}
	r := scale8((px>>pf.RedShift)&uint32(pf.RedMax), pf.RedMax)
	g := scale8((px>>pf.GreenShift)&uint32(pf.GreenMax), pf.GreenMax)
	b := scale8((px>>pf.BlueShift)&uint32(pf.BlueMax), pf.BlueMax)
	binary.LittleEndian.PutUint32(out[:4], r<<16|g<<8|b)
}

// composeRGB builds the 4-byte output pixel for 8-bit colour samples.
// The unused byte stays zero.
func (pf PixelFormat) composeRGB(r, g, b uint8, out []byte) {
	if pf.BPP == 32 {
		v := uint32(r)<<pf.RedShift | uint32(g)<<pf.GreenShift | uint32(b)<<pf.BlueShift
		pf.order().PutUint32(out[:4], v)
		return
	}
	binary.LittleEndian.PutUint32(out[:4], uint32(r)<<16|uint32(g)<<8|uint32(b))
}

// readCPixel reads one CPIXEL as used by TRLE and ZRLE: the serialised
// pixel with the unused byte dropped when the format permits, otherwise
// a full native pixel. The result is the 4-byte output form.
func readCPixel(r io.Reader, pf PixelFormat, out []byte) error {
	out[0], out[1], out[2], out[3] = 0, 0, 0, 0
	if pf.Compact() {
		off := pf.compactOffset()
		_, err := io.ReadFull(r, out[off:off+3])
		return err
	}
	var raw [4]byte
	if _, err := io.ReadFull(r, raw[:pf.BytesPerPixel()]); err != nil {
		return err
	}
	pf.pixel32(raw[:], out)
	return nil
}

// readTPixel reads one TPIXEL as used by Tight: three bytes in fixed
// red, green, blue order when the format permits the abbreviation,
// otherwise a full native pixel.
func readTPixel(r io.Reader, pf PixelFormat, out []byte) error {
	if pf.Compact() {
		var rgb [3]byte
		if _, err := io.ReadFull(r, rgb[:]); err != nil {
			return err
		}
		pf.composeRGB(rgb[0], rgb[1], rgb[2], out)
		return nil
	}
	var raw [4]byte
	if _, err := io.ReadFull(r, raw[:pf.BytesPerPixel()]); err != nil {
		return err
	}
	out[0], out[1], out[2], out[3] = 0, 0, 0, 0
	pf.pixel32(raw[:], out)
	return nil
}

// tightBytesPerPixel is the width of a TPIXEL on the wire.
func (pf PixelFormat) tightBytesPerPixel() int {
	if pf.Compact() {
		return 3
	}
	return pf.BytesPerPixel()
}
