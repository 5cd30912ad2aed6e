package vncengine

// EncodingType represents a known VNC encoding type.
type EncodingType int32

const (
	EncRaw      EncodingType = 0
	EncCopyRect EncodingType = 1
	EncRRE      EncodingType = 2
	EncHextile  EncodingType = 5
	EncTight    EncodingType = 7
	EncTRLE     EncodingType = 15
	EncZRLE     EncodingType = 16

	EncDesktopSizePseudo EncodingType = -223
	EncLastRectPseudo    EncodingType = -224
	EncCursorPseudo      EncodingType = -239
)

// Encoding decodes the payload of one rectangle. A decoder must consume
// exactly the bytes the rectangle occupies on the wire; anything else
// leaves the stream out of sync and is fatal for the session. Decoders
// that carry zlib state (Tight, ZRLE) keep it across rectangles, which
// is why one decoder instance belongs to exactly one session.
type Encoding interface {
	Type() EncodingType
	Read(Conn, *Rectangle) error
}

// newEncoding builds the decoder for an encoding type the engine
// implements. Hextile and RRE are deliberately absent.
func newEncoding(t EncodingType) (Encoding, error) {
	switch t {
	case EncRaw:
		return &RawEncoding{}, nil
	case EncCopyRect:
		return &CopyRectEncoding{}, nil
	case EncTight:
		return &TightEncoding{}, nil
	case EncTRLE:
		return &TRLEEncoding{}, nil
	case EncZRLE:
		return &ZRLEEncoding{}, nil
	case EncDesktopSizePseudo:
		return &DesktopSizePseudoEncoding{}, nil
	case EncLastRectPseudo:
		return &LastRectPseudoEncoding{}, nil
	case EncCursorPseudo:
		return &CursorPseudoEncoding{}, nil
	}
	return nil, &EncodingError{Encoding: t}
}

// encodingFor finds the session decoder registered for t.
func encodingFor(c Conn, t EncodingType) Encoding {
	for _, e := range c.Encodings() {
		if e.Type() == t {
			return e
		}
	}
	return nil
}
