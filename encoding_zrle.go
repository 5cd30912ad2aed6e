package vncengine

import (
	"github.com/amitbet/vncengine/logger"
)

// ZRLEEncoding decodes Zlib Run-Length Encoding: the same subencodings
// as TRLE on 64x64 tiles, with the whole rectangle payload drawn from
// one zlib stream that lives as long as the session. Residual inflater
// state carries over to the next rectangle.
type ZRLEEncoding struct {
	stream zlibStream
}

func (*ZRLEEncoding) Type() EncodingType { return EncZRLE }

// Read implements the Encoding interface.
func (enc *ZRLEEncoding) Read(c Conn, rect *Rectangle) error {
	length, err := ReadUint32(c)
	if err != nil {
		return err
	}
	data, err := ReadBytes(int(length), c)
	if err != nil {
		return err
	}
	logger.Tracef("zrle rect %v, %d compressed bytes", rect, length)

	enc.stream.feed(data)
	return decodeTiles(EncZRLE, &enc.stream, c.PixelFormat(), rect, zrleTileSize, c)
}
