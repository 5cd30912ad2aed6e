package vncengine

import (
	"bytes"
)

// testConn scripts the server side of a session: decoders read from in,
// client messages land in out, published events are collected.
type testConn struct {
	in     bytes.Buffer
	out    bytes.Buffer
	cfg    *ClientConfig
	encs   []Encoding
	pf     PixelFormat
	proto  string
	width  uint16
	height uint16
	name   []byte
	events []VncEvent
}

func newTestConn(pf PixelFormat) *testConn {
	return &testConn{pf: pf}
}

func (c *testConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *testConn) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *testConn) Close() error                { return nil }
func (c *testConn) Flush() error                { return nil }
func (c *testConn) Config() interface{}         { return c.cfg }
func (c *testConn) Protocol() string            { return c.proto }
func (c *testConn) SetProtoVersion(v string)    { c.proto = v }
func (c *testConn) PixelFormat() PixelFormat    { return c.pf }
func (c *testConn) SetPixelFormat(pf PixelFormat) error {
	c.pf = pf
	return nil
}
func (c *testConn) Encodings() []Encoding   { return c.encs }
func (c *testConn) Width() uint16           { return c.width }
func (c *testConn) Height() uint16          { return c.height }
func (c *testConn) SetWidth(w uint16)       { c.width = w }
func (c *testConn) SetHeight(h uint16)      { c.height = h }
func (c *testConn) DesktopName() []byte     { return c.name }
func (c *testConn) SetDesktopName(n []byte) { c.name = n }
func (c *testConn) Publish(ev VncEvent) error {
	c.events = append(c.events, ev)
	return nil
}

func (c *testConn) rawImages() []RawImageEvent {
	var out []RawImageEvent
	for _, ev := range c.events {
		if r, ok := ev.(RawImageEvent); ok {
			out = append(out, r)
		}
	}
	return out
}
