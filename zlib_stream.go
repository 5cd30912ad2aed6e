package vncengine

import (
	"bytes"
	"compress/zlib"
	"io"
)

// zlibStream is a long-lived inflater whose output spans many protocol
// messages. Compressed chunks are appended to the backing buffer and
// inflated on demand, so the dictionary window survives from rectangle
// to rectangle. Resetting a stream mid-session corrupts the protocol,
// which is why only Tight's explicit reset flags call reset; a new
// session starts from the zero value, a fresh stream.
type zlibStream struct {
	raw bytes.Buffer
	r   io.ReadCloser
}

// feed appends one rectangle's compressed bytes.
func (z *zlibStream) feed(p []byte) {
	z.raw.Write(p)
}

// reset discards the inflater so the next chunk starts a fresh zlib
// stream, header included.
func (z *zlibStream) reset() {
	if z.r != nil {
		z.r.Close()
		z.r = nil
	}
	z.raw.Reset()
}

func (z *zlibStream) Read(p []byte) (int, error) {
	if z.r == nil {
		r, err := zlib.NewReader(&z.raw)
		if err != nil {
			return 0, err
		}
		z.r = r
	}
	return z.r.Read(p)
}
