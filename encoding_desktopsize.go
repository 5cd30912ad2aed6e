package vncengine

// DesktopSizePseudoEncoding carries no payload; the rectangle's width
// and height are the new framebuffer dimensions.
type DesktopSizePseudoEncoding struct{}

func (*DesktopSizePseudoEncoding) Type() EncodingType { return EncDesktopSizePseudo }

// Read implements the Encoding interface.
func (*DesktopSizePseudoEncoding) Read(c Conn, rect *Rectangle) error {
	c.SetWidth(rect.Width)
	c.SetHeight(rect.Height)
	return c.Publish(ResolutionEvent{Screen: Screen{Width: rect.Width, Height: rect.Height}})
}

// LastRectPseudoEncoding marks the end of a framebuffer update; the
// update parser stops at it, so Read never runs.
type LastRectPseudoEncoding struct{}

func (*LastRectPseudoEncoding) Type() EncodingType { return EncLastRectPseudo }

// Read implements the Encoding interface.
func (*LastRectPseudoEncoding) Read(c Conn, rect *Rectangle) error {
	return nil
}
