package vncengine

import (
	"io"
)

// Conn is the engine side view of a session. It is what decoders and
// message codecs are handed: the read half of the transport plus the
// negotiated session state. The engine never opens sockets itself; any
// duplex byte channel works.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
	Flush() error
	Config() interface{}
	Protocol() string
	SetProtoVersion(string)
	PixelFormat() PixelFormat
	SetPixelFormat(PixelFormat) error
	Encodings() []Encoding
	Width() uint16
	Height() uint16
	SetWidth(uint16)
	SetHeight(uint16)
	DesktopName() []byte
	SetDesktopName([]byte)
	Publish(VncEvent) error
}
