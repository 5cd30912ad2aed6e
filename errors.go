package vncengine

import (
	"errors"
	"fmt"
)

// ErrClosed is returned once the session has terminated; it carries no
// further detail because termination is final.
var ErrClosed = errors.New("vnc: session closed")

// VersionError reports a malformed or unusable protocol version banner.
type VersionError struct {
	Seen string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("vnc: bad protocol version %q", e.Seen)
}

// SecurityError reports a failed security negotiation, either because the
// server rejected the connection outright or because no common security
// type exists.
type SecurityError struct {
	Type   SecurityType
	Reason string
}

func (e *SecurityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("vnc: security handshake failed: %s", e.Reason)
	}
	return fmt.Sprintf("vnc: unsupported security type %d", uint8(e.Type))
}

// AuthError reports a rejected authentication attempt.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "vnc: authentication rejected"
	}
	return fmt.Sprintf("vnc: authentication rejected: %s", e.Reason)
}

// OpcodeError reports an unknown server message type.
type OpcodeError struct {
	Opcode uint8
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("vnc: unexpected server message type %d", e.Opcode)
}

// EncodingError reports a rectangle with an encoding the session did not
// negotiate or does not implement.
type EncodingError struct {
	Encoding EncodingType
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("vnc: unsupported encoding %d", int32(e.Encoding))
}

// PixelFormatError reports a pixel format the engine cannot work with;
// the engine requires true colour with channel maxima of the form 2^k-1.
type PixelFormatError struct {
	Detail string
}

func (e *PixelFormatError) Error() string {
	return fmt.Sprintf("vnc: invalid pixel format: %s", e.Detail)
}

// DecodeError reports a sub-encoding or length violation while decoding
// one rectangle. Decode errors are not recoverable; the byte stream is
// out of sync once one occurs.
type DecodeError struct {
	Encoding EncodingType
	Detail   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("vnc: decode error in encoding %d: %s", int32(e.Encoding), e.Detail)
}

func decodeErrorf(t EncodingType, format string, v ...interface{}) error {
	return &DecodeError{Encoding: t, Detail: fmt.Sprintf(format, v...)}
}
