package vncengine

type SecurityType uint8

const (
	SecTypeUnknown = SecurityType(0)
	SecTypeNone    = SecurityType(1)
	SecTypeVNC     = SecurityType(2)
)

// SecurityHandler performs the security-type specific part of the
// handshake after the type has been agreed with the server. Reading the
// SecurityResult stays with the handshake since its presence depends on
// the protocol version, not on the security type alone.
type SecurityHandler interface {
	Type() SecurityType
	Auth(Conn) error
}

// ClientAuthNone is the "none" security type. See RFC 6143 §7.2.1.
type ClientAuthNone struct{}

func (*ClientAuthNone) Type() SecurityType {
	return SecTypeNone
}

func (*ClientAuthNone) Auth(c Conn) error {
	return nil
}
