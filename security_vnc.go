package vncengine

import (
	"crypto/des"
	"encoding/binary"
)

// reverseBits maps every byte to its bit-reversed form. VNC
// Authentication uses the password bytes with reversed bit order as the
// DES key, a historical quirk not documented in the RFC.
var reverseBits = func() [256]byte {
	var t [256]byte
	for i := 0; i < 256; i++ {
		b := byte(i)
		b = (b&0x55)<<1 | (b&0xAA)>>1
		b = (b&0x33)<<2 | (b&0xCC)>>2
		b = (b&0x0F)<<4 | (b&0xF0)>>4
		t[i] = b
	}
	return t
}()

// ClientAuthVNC is the standard password authentication. See RFC 6143
// §7.2.2. The password is taken from Password if set, otherwise
// PasswordFunc is consulted; the callback may block, for example on a
// prompt.
type ClientAuthVNC struct {
	Password     []byte
	PasswordFunc func() (string, error)
}

func (*ClientAuthVNC) Type() SecurityType {
	return SecTypeVNC
}

func (auth *ClientAuthVNC) Auth(c Conn) error {
	password := auth.Password
	if len(password) == 0 && auth.PasswordFunc != nil {
		p, err := auth.PasswordFunc()
		if err != nil {
			return err
		}
		password = []byte(p)
	}
	if len(password) == 0 {
		return &AuthError{Reason: "no password provided for VNC authentication"}
	}

	var challenge [16]byte
	if err := binary.Read(c, binary.BigEndian, &challenge); err != nil {
		return err
	}

	encrypted, err := AuthVNCEncode(password, challenge[:])
	if err != nil {
		return err
	}

	if err := binary.Write(c, binary.BigEndian, encrypted); err != nil {
		return err
	}
	return c.Flush()
}

// AuthVNCKey derives the 8-byte DES key from a password: the first 8
// bytes, zero padded, each with its bit order reversed.
func AuthVNCKey(password []byte) []byte {
	key := make([]byte, 8)
	copy(key, password)
	for i := range key {
		key[i] = reverseBits[key[i]]
	}
	return key
}

// AuthVNCEncode encrypts the 16-byte server challenge: each 8-byte half
// independently under DES-ECB with the derived key.
func AuthVNCEncode(password []byte, challenge []byte) ([]byte, error) {
	if len(challenge) != 16 {
		return nil, &AuthError{Reason: "challenge is not 16 bytes long"}
	}

	cipher, err := des.NewCipher(AuthVNCKey(password))
	if err != nil {
		return nil, err
	}
	response := make([]byte, 16)
	for i := 0; i < len(challenge); i += cipher.BlockSize() {
		cipher.Encrypt(response[i:i+cipher.BlockSize()], challenge[i:i+cipher.BlockSize()])
	}
	return response, nil
}
