package vncengine

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/amitbet/vncengine/logger"
)

// ClientMessageType represents a Client-to-Server RFB message type.
type ClientMessageType uint8

// Client-to-Server message types.
const (
	SetPixelFormatMsgType ClientMessageType = iota
	_
	SetEncodingsMsgType
	FramebufferUpdateRequestMsgType
	KeyEventMsgType
	PointerEventMsgType
	ClientCutTextMsgType
)

// ClientMessage is a message the client writes to the server. Write
// serialises the whole message and flushes; callers serialise access to
// the write half.
type ClientMessage interface {
	Type() ClientMessageType
	Write(Conn) error
}

// SetPixelFormat holds the wire format message.
type SetPixelFormat struct {
	PF PixelFormat
}

func (*SetPixelFormat) Type() ClientMessageType {
	return SetPixelFormatMsgType
}

func (msg *SetPixelFormat) Write(c Conn) error {
	if err := binary.Write(c, binary.BigEndian, msg.Type()); err != nil {
		return err
	}
	var pad [3]byte
	if err := binary.Write(c, binary.BigEndian, pad); err != nil {
		return err
	}
	if err := msg.PF.Write(c); err != nil {
		return err
	}
	return c.Flush()
}

// SetEncodings holds the wire format message, sans encoding-type field.
type SetEncodings struct {
	Encodings []EncodingType
}

func (*SetEncodings) Type() ClientMessageType {
	return SetEncodingsMsgType
}

func (msg *SetEncodings) Write(c Conn) error {
	if err := binary.Write(c, binary.BigEndian, msg.Type()); err != nil {
		return err
	}
	var pad [1]byte
	if err := binary.Write(c, binary.BigEndian, pad); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, uint16(len(msg.Encodings))); err != nil {
		return err
	}
	for _, enc := range msg.Encodings {
		if err := binary.Write(c, binary.BigEndian, enc); err != nil {
			return err
		}
	}
	return c.Flush()
}

// FramebufferUpdateRequest holds the wire format message.
type FramebufferUpdateRequest struct {
	Inc           uint8  // incremental
	X, Y          uint16 // x-, y-position
	Width, Height uint16 // width, height
}

func (*FramebufferUpdateRequest) Type() ClientMessageType {
	return FramebufferUpdateRequestMsgType
}

func (msg *FramebufferUpdateRequest) Write(c Conn) error {
	if err := binary.Write(c, binary.BigEndian, msg.Type()); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, msg); err != nil {
		return err
	}
	return c.Flush()
}

// KeyEvent holds the wire format message.
type KeyEvent struct {
	Down uint8   // down-flag
	_    [2]byte // padding
	Key  uint32  // keysym
}

func (*KeyEvent) Type() ClientMessageType {
	return KeyEventMsgType
}

func (msg *KeyEvent) Write(c Conn) error {
	if err := binary.Write(c, binary.BigEndian, msg.Type()); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, msg); err != nil {
		return err
	}
	return c.Flush()
}

// PointerEvent holds the wire format message.
type PointerEvent struct {
	Mask uint8  // button-mask
	X, Y uint16 // x-, y-position
}

func (*PointerEvent) Type() ClientMessageType {
	return PointerEventMsgType
}

func (msg *PointerEvent) Write(c Conn) error {
	if err := binary.Write(c, binary.BigEndian, msg.Type()); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, msg); err != nil {
		return err
	}
	return c.Flush()
}

// ClientCutText holds the text of the message; Write adds the padding
// and the length field.
type ClientCutText struct {
	Text []byte
}

func (*ClientCutText) Type() ClientMessageType {
	return ClientCutTextMsgType
}

func (msg *ClientCutText) Write(c Conn) error {
	if err := binary.Write(c, binary.BigEndian, msg.Type()); err != nil {
		return err
	}
	var pad [3]byte
	if err := binary.Write(c, binary.BigEndian, pad); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, uint32(len(msg.Text))); err != nil {
		return err
	}
	if err := binary.Write(c, binary.BigEndian, msg.Text); err != nil {
		return err
	}
	return c.Flush()
}

// ServerMessageType represents a Server-to-Client RFB message type.
type ServerMessageType uint8

// Server-to-Client message types.
const (
	FramebufferUpdateMsgType ServerMessageType = iota
	SetColorMapEntriesMsgType
	BellMsgType
	ServerCutTextMsgType
)

// ServerMessage is a message read off the server stream. Read consumes
// the body (the type byte has already been read) and publishes whatever
// events the message produces.
type ServerMessage interface {
	Type() ServerMessageType
	Read(Conn) error
}

// DefaultServerMessages lists the server messages the main loop accepts.
var DefaultServerMessages = []ServerMessage{
	&FramebufferUpdate{},
	&SetColorMapEntries{},
	&Bell{},
	&ServerCutText{},
}

// FramebufferUpdate parses one update: a sequence of rectangles, each
// dispatched to its negotiated decoder in server order.
type FramebufferUpdate struct{}

func (*FramebufferUpdate) Type() ServerMessageType {
	return FramebufferUpdateMsgType
}

func (msg *FramebufferUpdate) String() string {
	return "framebuffer update"
}

func (*FramebufferUpdate) Read(c Conn) error {
	if err := readPadding(c, 1); err != nil {
		return err
	}
	numRects, err := ReadUint16(c)
	if err != nil {
		return err
	}
	logger.Tracef("framebuffer update: %d rects", numRects)

	for i := uint16(0); i < numRects; i++ {
		var rect Rectangle
		if err := binary.Read(c, binary.BigEndian, &rect); err != nil {
			return err
		}
		var et EncodingType
		if err := binary.Read(c, binary.BigEndian, &et); err != nil {
			return err
		}
		logger.Tracef("rect %d/%d: %v encoding %d", i+1, numRects, rect, et)

		if et == EncLastRectPseudo {
			break
		}
		if (rect.Width == 0 || rect.Height == 0) &&
			et != EncCursorPseudo && et != EncDesktopSizePseudo {
			return decodeErrorf(et, "zero-sized rectangle %v", rect)
		}
		enc := encodingFor(c, et)
		if enc == nil {
			return &EncodingError{Encoding: et}
		}
		if err := enc.Read(c, &rect); err != nil {
			return err
		}
	}
	return nil
}

// SetColorMapEntries is accepted and discarded: the engine forces true
// colour, so a colour map can never apply to the pixels it decodes.
type SetColorMapEntries struct{}

func (*SetColorMapEntries) Type() ServerMessageType {
	return SetColorMapEntriesMsgType
}

func (*SetColorMapEntries) Read(c Conn) error {
	if err := readPadding(c, 1); err != nil {
		return err
	}
	firstColor, err := ReadUint16(c)
	if err != nil {
		return err
	}
	numColors, err := ReadUint16(c)
	if err != nil {
		return err
	}
	if err := readPadding(c, int(numColors)*6); err != nil {
		return err
	}
	logger.Debugf("ignoring colour map: first=%d count=%d", firstColor, numColors)
	return nil
}

// Bell rings the host bell.
type Bell struct{}

func (*Bell) Type() ServerMessageType {
	return BellMsgType
}

func (*Bell) Read(c Conn) error {
	return c.Publish(BellEvent{})
}

// ServerCutText relays server clipboard text.
type ServerCutText struct{}

func (*ServerCutText) Type() ServerMessageType {
	return ServerCutTextMsgType
}

func (*ServerCutText) Read(c Conn) error {
	if err := readPadding(c, 3); err != nil {
		return err
	}
	length, err := ReadUint32(c)
	if err != nil {
		return err
	}
	text, err := ReadBytes(int(length), c)
	if err != nil {
		return err
	}
	return c.Publish(TextEvent{Text: decodeCutText(text)})
}

// decodeCutText accepts UTF-8 leniently and falls back to the Latin-1
// interpretation RFC 6143 mandates.
func decodeCutText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}
