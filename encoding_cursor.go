package vncengine

// CursorPseudoEncoding decodes a cursor shape: width*height pixels
// followed by a one-bit-per-pixel mask, MSB first, rows byte aligned.
// The emitted buffer carries per-pixel alpha taken from the mask.
type CursorPseudoEncoding struct{}

func (*CursorPseudoEncoding) Type() EncodingType { return EncCursorPseudo }

// Read implements the Encoding interface.
func (enc *CursorPseudoEncoding) Read(c Conn, rect *Rectangle) error {
	if rect.Width == 0 || rect.Height == 0 {
		// an empty cursor clears the current one
		return c.Publish(CursorEvent{Rect: *rect})
	}

	pf := c.PixelFormat()
	bpp := pf.BytesPerPixel()
	w, h := int(rect.Width), int(rect.Height)
	rowBytes := (w + 7) / 8

	pixels, err := ReadBytes(w*h*bpp, c)
	if err != nil {
		return err
	}
	mask, err := ReadBytes(rowBytes*h, c)
	if err != nil {
		return err
	}

	alphaIdx := pf.alphaIndex()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			pf.pixel32(pixels[i*bpp:(i+1)*bpp], out[i*4:i*4+4])
			var alpha byte
			if mask[y*rowBytes+x/8]&(0x80>>uint(x%8)) != 0 {
				alpha = 255
			}
			out[i*4+alphaIdx] = alpha
		}
	}
	return c.Publish(CursorEvent{Rect: *rect, Data: out})
}
