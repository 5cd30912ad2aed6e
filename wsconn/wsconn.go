// Package wsconn adapts a WebSocket to the duplex byte channel the
// engine consumes, so sessions can run behind websockify-style bridges
// or browser transports.
package wsconn

import (
	"io"

	"github.com/gorilla/websocket"
)

// Conn presents a websocket connection as an io.ReadWriteCloser. Reads
// concatenate incoming binary messages into one byte stream; each Write
// becomes one binary message.
type Conn struct {
	ws     *websocket.Conn
	reader io.Reader
}

// New wraps an established websocket connection.
func New(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Dial connects to a websocket endpoint, e.g. ws://host:port/websockify.
func Dial(url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	return New(ws), nil
}

func (c *Conn) Read(p []byte) (int, error) {
	for {
		if c.reader == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				return 0, err
			}
			c.reader = r
		}
		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (c *Conn) Write(p []byte) (int, error) {
	w, err := c.ws.NextWriter(websocket.BinaryMessage)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(p)
	if err != nil {
		w.Close()
		return n, err
	}
	return n, w.Close()
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
