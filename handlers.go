package vncengine

import (
	"encoding/binary"
	"regexp"
	"strconv"

	"github.com/amitbet/vncengine/logger"
)

// Protocol version strings the engine can speak.
const (
	Version33 = "RFB 003.003\n"
	Version37 = "RFB 003.007\n"
	Version38 = "RFB 003.008\n"
)

var versionPattern = regexp.MustCompile(`^RFB (\d{3})\.(\d{3})\n$`)

// ClientHandler runs one stage of the client handshake.
type ClientHandler interface {
	Handle(Conn) error
}

// DefaultClientHandlers is the standard handshake sequence: version
// exchange, security negotiation and authentication, ClientInit,
// ServerInit.
var DefaultClientHandlers = []ClientHandler{
	&ClientVersionHandler{},
	&ClientSecurityHandler{},
	&ClientClientInitHandler{},
	&ClientServerInitHandler{},
}

// ClientVersionHandler negotiates the protocol version: the server's
// banner capped at 3.8. Versions below 3.7 fall back to the 3.3
// handshake.
type ClientVersionHandler struct{}

func (*ClientVersionHandler) Handle(c Conn) error {
	banner, err := ReadBytes(12, c)
	if err != nil {
		return err
	}
	m := versionPattern.FindSubmatch(banner)
	if m == nil {
		return &VersionError{Seen: string(banner)}
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))

	version := Version33
	switch {
	case major > 3 || (major == 3 && minor >= 8):
		version = Version38
	case major == 3 && minor == 7:
		version = Version37
	}
	logger.Debugf("server version %q, using %q", banner, version)
	c.SetProtoVersion(version)

	if _, err := c.Write([]byte(version)); err != nil {
		return err
	}
	return c.Flush()
}

// ClientSecurityHandler negotiates a security type and authenticates.
// In 3.7/3.8 the server offers a list; in 3.3 it dictates one type.
type ClientSecurityHandler struct{}

func (*ClientSecurityHandler) Handle(c Conn) error {
	cfg := c.Config().(*ClientConfig)

	if c.Protocol() == Version33 {
		dictated, err := ReadUint32(c)
		if err != nil {
			return err
		}
		if dictated == 0 {
			reason, err := readReason(c)
			if err != nil {
				return err
			}
			return &SecurityError{Reason: reason}
		}
		auth := securityHandlerFor(cfg, SecurityType(dictated))
		if auth == nil {
			return &SecurityError{Type: SecurityType(dictated)}
		}
		if err := auth.Auth(c); err != nil {
			return err
		}
		// 3.3 sends a SecurityResult only after VNC authentication.
		if auth.Type() == SecTypeVNC {
			return readSecurityResult(c, false)
		}
		return nil
	}

	num, err := ReadUint8(c)
	if err != nil {
		return err
	}
	if num == 0 {
		reason, err := readReason(c)
		if err != nil {
			return err
		}
		return &SecurityError{Reason: reason}
	}
	offered, err := ReadBytes(int(num), c)
	if err != nil {
		return err
	}

	var auth SecurityHandler
	for _, h := range securityHandlers(cfg) {
		for _, t := range offered {
			if h.Type() == SecurityType(t) {
				auth = h
				break
			}
		}
		if auth != nil {
			break
		}
	}
	if auth == nil {
		return &SecurityError{Reason: "no common security types with the server"}
	}
	logger.Debugf("chose security type %d", auth.Type())

	if _, err := c.Write([]byte{byte(auth.Type())}); err != nil {
		return err
	}
	if err := c.Flush(); err != nil {
		return err
	}
	if err := auth.Auth(c); err != nil {
		return err
	}

	switch {
	case c.Protocol() == Version38:
		// 3.8 always sends a SecurityResult, with a reason on failure.
		return readSecurityResult(c, true)
	case auth.Type() != SecTypeNone:
		return readSecurityResult(c, false)
	}
	return nil
}

func securityHandlers(cfg *ClientConfig) []SecurityHandler {
	if len(cfg.SecurityHandlers) > 0 {
		return cfg.SecurityHandlers
	}
	return []SecurityHandler{&ClientAuthNone{}, &ClientAuthVNC{}}
}

func securityHandlerFor(cfg *ClientConfig, t SecurityType) SecurityHandler {
	for _, h := range securityHandlers(cfg) {
		if h.Type() == t {
			return h
		}
	}
	return nil
}

func readReason(c Conn) (string, error) {
	length, err := ReadUint32(c)
	if err != nil {
		return "", err
	}
	reason, err := ReadBytes(int(length), c)
	if err != nil {
		return "", err
	}
	return string(reason), nil
}

func readSecurityResult(c Conn, hasReason bool) error {
	result, err := ReadUint32(c)
	if err != nil {
		return err
	}
	if result == 0 {
		return nil
	}
	if hasReason {
		reason, err := readReason(c)
		if err != nil {
			return err
		}
		return &AuthError{Reason: reason}
	}
	return &AuthError{}
}

// ClientClientInitHandler sends the shared flag.
type ClientClientInitHandler struct{}

func (*ClientClientInitHandler) Handle(c Conn) error {
	cfg := c.Config().(*ClientConfig)
	var shared uint8
	if !cfg.Exclusive {
		shared = 1
	}
	if _, err := c.Write([]byte{shared}); err != nil {
		return err
	}
	return c.Flush()
}

// ClientServerInitHandler reads the framebuffer dimensions, the server
// pixel format and the desktop name, and announces the resolution.
type ClientServerInitHandler struct{}

func (*ClientServerInitHandler) Handle(c Conn) error {
	width, err := ReadUint16(c)
	if err != nil {
		return err
	}
	height, err := ReadUint16(c)
	if err != nil {
		return err
	}
	c.SetWidth(width)
	c.SetHeight(height)

	var serverPF PixelFormat
	if err := binary.Read(c, binary.BigEndian, &serverPF); err != nil {
		return err
	}
	logger.Debugf("server pixel format %v", serverPF)

	nameLength, err := ReadUint32(c)
	if err != nil {
		return err
	}
	name, err := ReadBytes(int(nameLength), c)
	if err != nil {
		return err
	}
	c.SetDesktopName(name)
	logger.Infof("connected to %q, %dx%d", name, width, height)

	return c.Publish(ResolutionEvent{Screen: Screen{Width: width, Height: height}})
}
