package vncengine

// RawEncoding decodes width*height pixels in the session pixel format,
// row-major, no padding.
type RawEncoding struct{}

func (*RawEncoding) Type() EncodingType { return EncRaw }

// Read implements the Encoding interface.
func (enc *RawEncoding) Read(c Conn, rect *Rectangle) error {
	pf := c.PixelFormat()
	bpp := pf.BytesPerPixel()

	data, err := ReadBytes(rect.Area()*bpp, c)
	if err != nil {
		return err
	}

	if bpp == 4 {
		// colour bits pass through; bits outside every colour channel,
		// the unused byte included, go out zero
		var mask [4]byte
		pf.order().PutUint32(mask[:], pf.channelMask())
		for i := range data {
			data[i] &= mask[i%4]
		}
		return c.Publish(RawImageEvent{Rect: *rect, Data: data})
	}

	out := make([]byte, rect.Area()*4)
	for i := 0; i < rect.Area(); i++ {
		pf.pixel32(data[i*bpp:(i+1)*bpp], out[i*4:i*4+4])
	}
	return c.Publish(RawImageEvent{Rect: *rect, Data: out})
}
