package vncengine

import (
	"github.com/amitbet/vncengine/logger"
)

// CopyRectEncoding reads the source position and leaves the actual pixel
// move to the host, which owns the framebuffer contents.
type CopyRectEncoding struct{}

func (*CopyRectEncoding) Type() EncodingType { return EncCopyRect }

// Read implements the Encoding interface.
func (enc *CopyRectEncoding) Read(c Conn, rect *Rectangle) error {
	srcX, err := ReadUint16(c)
	if err != nil {
		return err
	}
	srcY, err := ReadUint16(c)
	if err != nil {
		return err
	}
	logger.Tracef("copyrect %v from (%d,%d)", rect, srcX, srcY)
	return c.Publish(CopyEvent{
		Dst: *rect,
		Src: Rectangle{X: srcX, Y: srcY, Width: rect.Width, Height: rect.Height},
	})
}
