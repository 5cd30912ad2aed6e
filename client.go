package vncengine

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/amitbet/vncengine/logger"
)

// SessionState tracks the session through its life. Only StateConnected
// accepts host input and emits framebuffer events.
type SessionState int32

const (
	StateHandshake SessionState = iota
	StateAuthenticating
	StateInitialising
	StateConnected
	StateClosed
)

// DefaultQueueSize is the event queue capacity when the config leaves
// it zero. The queue is bounded so an undrained host stalls the reader
// and lets the transport's own flow control push back on the server.
const DefaultQueueSize = 256

// A ClientConfig structure is used to configure a ClientConn. After one
// has been passed to initialize a connection, it must not be modified.
type ClientConfig struct {
	Handlers         []ClientHandler
	SecurityHandlers []SecurityHandler
	Encodings        []Encoding
	PixelFormat      PixelFormat
	Exclusive        bool
	ServerMessages   []ServerMessage
	QueueSize        int
}

// ClientConn is one client session over an abstract duplex byte channel.
// The read half belongs to the session task; the write half is shared
// between the session task and host input and is guarded by a mutex.
type ClientConn struct {
	t  io.ReadWriteCloser
	br *bufio.Reader
	bw *bufio.Writer

	cfg *ClientConfig

	wm sync.Mutex // guards the write half
	mu sync.Mutex // guards the session fields below

	protocol    string
	pixelFormat PixelFormat
	fbWidth     uint16
	fbHeight    uint16
	desktopName []byte
	err         error

	state     int32
	events    chan VncEvent
	quit      chan struct{}
	closeOnce sync.Once
	loopOnce  sync.Once
}

var _ Conn = (*ClientConn)(nil)

// NewClientConn wraps a transport in an unconnected session.
func NewClientConn(t io.ReadWriteCloser, cfg *ClientConfig) (*ClientConn, error) {
	if len(cfg.Encodings) == 0 {
		return nil, fmt.Errorf("vnc: no encodings configured")
	}
	if err := cfg.PixelFormat.Validate(); err != nil {
		return nil, err
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	return &ClientConn{
		t:           t,
		br:          bufio.NewReader(t),
		bw:          bufio.NewWriter(t),
		cfg:         cfg,
		pixelFormat: cfg.PixelFormat,
		events:      make(chan VncEvent, queue),
		quit:        make(chan struct{}),
	}, nil
}

// Connect is the convenience path: handshake and enter the main loop.
func Connect(t io.ReadWriteCloser, cfg *ClientConfig) (*ClientConn, error) {
	conn, err := NewClientConn(t, cfg)
	if err != nil {
		return nil, err
	}
	if err := conn.TryStart(); err != nil {
		return nil, err
	}
	if err := conn.Finish(); err != nil {
		return nil, err
	}
	return conn, nil
}

// TryStart runs the handshake: version exchange, security negotiation
// and authentication, ClientInit, ServerInit, then pins the client
// pixel format and advertises the encodings. Any failure is terminal.
func (c *ClientConn) TryStart() error {
	handlers := c.cfg.Handlers
	if len(handlers) == 0 {
		handlers = DefaultClientHandlers
	}
	for i, h := range handlers {
		if err := h.Handle(c); err != nil {
			c.fail(err)
			return err
		}
		switch i {
		case 0:
			c.setState(StateAuthenticating)
		case 1:
			c.setState(StateInitialising)
		}
	}

	// The server's advertised pixel format is forgotten here: every
	// pixel from now on is interpreted in the client format.
	if err := c.SetPixelFormat(c.cfg.PixelFormat); err != nil {
		c.fail(err)
		return err
	}
	if err := c.Publish(PixelFormatEvent{PF: c.cfg.PixelFormat}); err != nil {
		c.fail(err)
		return err
	}
	if err := c.sendMessage(&SetPixelFormat{PF: c.cfg.PixelFormat}); err != nil {
		c.fail(err)
		return err
	}

	encTypes := make([]EncodingType, len(c.cfg.Encodings))
	for i, e := range c.cfg.Encodings {
		encTypes[i] = e.Type()
	}
	if err := c.sendMessage(&SetEncodings{Encodings: encTypes}); err != nil {
		c.fail(err)
		return err
	}

	// Ask for a first full frame so the host does not need to submit a
	// Refresh before anything appears.
	req := &FramebufferUpdateRequest{Width: c.Width(), Height: c.Height()}
	if err := c.sendMessage(req); err != nil {
		c.fail(err)
		return err
	}

	c.setState(StateConnected)
	return nil
}

// Finish enters the main loop. It returns immediately; the session task
// runs until the transport fails or the session is closed.
func (c *ClientConn) Finish() error {
	if c.State() != StateConnected {
		if err := c.Err(); err != nil {
			return err
		}
		return fmt.Errorf("vnc: session is not connected")
	}
	c.loopOnce.Do(func() {
		go c.mainLoop()
	})
	return nil
}

func (c *ClientConn) mainLoop() {
	defer close(c.events)

	serverMessages := make(map[ServerMessageType]ServerMessage)
	msgs := c.cfg.ServerMessages
	if len(msgs) == 0 {
		msgs = DefaultServerMessages
	}
	for _, m := range msgs {
		serverMessages[m.Type()] = m
	}

	for {
		var messageType ServerMessageType
		if err := binary.Read(c, binary.BigEndian, &messageType); err != nil {
			c.fail(err)
			return
		}
		msg, ok := serverMessages[messageType]
		if !ok {
			c.fail(&OpcodeError{Opcode: uint8(messageType)})
			return
		}
		if err := msg.Read(c); err != nil {
			c.fail(err)
			return
		}
	}
}

// PollEvent blocks until the next event. Once the session has
// terminated and the queue is drained it returns the terminal error.
func (c *ClientConn) PollEvent() (VncEvent, error) {
	select {
	case ev, ok := <-c.events:
		if !ok {
			return nil, c.Err()
		}
		return ev, nil
	case <-c.quit:
		select {
		case ev, ok := <-c.events:
			if ok {
				return ev, nil
			}
		default:
		}
		return nil, c.Err()
	}
}

// Events exposes the event queue directly for hosts that select on it.
func (c *ClientConn) Events() <-chan VncEvent {
	return c.events
}

// Input encodes one host event and writes it to the server.
func (c *ClientConn) Input(ev X11Event) error {
	if c.State() != StateConnected {
		return c.Err()
	}
	var msg ClientMessage
	switch e := ev.(type) {
	case RefreshInput:
		msg = &FramebufferUpdateRequest{Inc: 1, Width: c.Width(), Height: c.Height()}
	case KeyInput:
		var down uint8
		if e.Down {
			down = 1
		}
		msg = &KeyEvent{Down: down, Key: e.Keysym}
	case PointerInput:
		msg = &PointerEvent{Mask: e.Mask, X: e.X, Y: e.Y}
	case CutTextInput:
		msg = &ClientCutText{Text: []byte(e.Text)}
	default:
		return fmt.Errorf("vnc: unknown input event %T", ev)
	}
	return c.sendMessage(msg)
}

// Close shuts down the transport and terminates the session. It is safe
// to call more than once and from any goroutine.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.setState(StateClosed)
		close(c.quit)
		err = c.t.Close()
	})
	return err
}

// Err returns the terminal session error, or ErrClosed after a clean
// close.
func (c *ClientConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.State() == StateClosed {
		return ErrClosed
	}
	return nil
}

// fail records the terminal error, surfaces it in-band when the queue
// has room, and tears the session down.
func (c *ClientConn) fail(err error) {
	if c.State() == StateClosed {
		logger.Debugf("session already closed: %v", err)
		c.Close()
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
	logger.Errorf("session terminated: %v", err)
	select {
	case c.events <- ErrorEvent{Err: err}:
	default:
	}
	c.Close()
}

func (c *ClientConn) sendMessage(msg ClientMessage) error {
	c.wm.Lock()
	defer c.wm.Unlock()
	return msg.Write(c)
}

// State returns the current session state.
func (c *ClientConn) State() SessionState {
	return SessionState(atomic.LoadInt32(&c.state))
}

func (c *ClientConn) setState(s SessionState) {
	atomic.StoreInt32(&c.state, int32(s))
}

// Conn interface plumbing.

func (c *ClientConn) Read(buf []byte) (int, error) {
	return c.br.Read(buf)
}

func (c *ClientConn) Write(buf []byte) (int, error) {
	return c.bw.Write(buf)
}

func (c *ClientConn) Flush() error {
	return c.bw.Flush()
}

func (c *ClientConn) Config() interface{} {
	return c.cfg
}

func (c *ClientConn) Protocol() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.protocol
}

func (c *ClientConn) SetProtoVersion(pv string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.protocol = pv
}

func (c *ClientConn) PixelFormat() PixelFormat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pixelFormat
}

func (c *ClientConn) SetPixelFormat(pf PixelFormat) error {
	if err := pf.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.pixelFormat = pf
	c.mu.Unlock()
	return nil
}

func (c *ClientConn) Encodings() []Encoding {
	return c.cfg.Encodings
}

func (c *ClientConn) Width() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fbWidth
}

func (c *ClientConn) Height() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fbHeight
}

func (c *ClientConn) SetWidth(w uint16) {
	c.mu.Lock()
	c.fbWidth = w
	c.mu.Unlock()
}

func (c *ClientConn) SetHeight(h uint16) {
	c.mu.Lock()
	c.fbHeight = h
	c.mu.Unlock()
}

func (c *ClientConn) DesktopName() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.desktopName
}

func (c *ClientConn) SetDesktopName(name []byte) {
	c.mu.Lock()
	c.desktopName = name
	c.mu.Unlock()
}

// Publish hands one event to the host queue. It blocks when the queue
// is full and aborts if the session closes while waiting.
func (c *ClientConn) Publish(ev VncEvent) error {
	select {
	case c.events <- ev:
		return nil
	case <-c.quit:
		return ErrClosed
	}
}

// Connector assembles a session step by step.
type Connector struct {
	transport   io.ReadWriteCloser
	authFunc    func() (string, error)
	encodings   []EncodingType
	exclusive   bool
	pixelFormat PixelFormat
	queueSize   int
}

// NewConnector starts a builder over the given duplex byte channel.
// Defaults: shared session, BGRA 32/24 pixel format.
func NewConnector(t io.ReadWriteCloser) *Connector {
	return &Connector{
		transport:   t,
		pixelFormat: PixelFormatBGRA(),
	}
}

// SetAuthFunc installs the password source consulted when the server
// requires VNC authentication. The callback may block.
func (cn *Connector) SetAuthFunc(f func() (string, error)) *Connector {
	cn.authFunc = f
	return cn
}

// AddEncoding appends one encoding to the preference list. The list is
// advertised to the server verbatim, in the order given.
func (cn *Connector) AddEncoding(t EncodingType) *Connector {
	cn.encodings = append(cn.encodings, t)
	return cn
}

// AllowShared controls whether other clients may stay connected.
func (cn *Connector) AllowShared(shared bool) *Connector {
	cn.exclusive = !shared
	return cn
}

// SetPixelFormat requests a pixel format other than the BGRA default.
func (cn *Connector) SetPixelFormat(pf PixelFormat) *Connector {
	cn.pixelFormat = pf
	return cn
}

// SetQueueSize overrides the event queue capacity.
func (cn *Connector) SetQueueSize(n int) *Connector {
	cn.queueSize = n
	return cn
}

// Build materialises the unconnected session. It fails when no encoding
// was added or one of them is not implemented.
func (cn *Connector) Build() (*ClientConn, error) {
	encs := make([]Encoding, 0, len(cn.encodings))
	for _, t := range cn.encodings {
		e, err := newEncoding(t)
		if err != nil {
			return nil, err
		}
		encs = append(encs, e)
	}
	cfg := &ClientConfig{
		SecurityHandlers: []SecurityHandler{
			&ClientAuthNone{},
			&ClientAuthVNC{PasswordFunc: cn.authFunc},
		},
		Encodings:   encs,
		PixelFormat: cn.pixelFormat,
		Exclusive:   cn.exclusive,
		QueueSize:   cn.queueSize,
	}
	return NewClientConn(cn.transport, cfg)
}
