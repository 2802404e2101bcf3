package uh1

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"go.bug.st/serial"
)

// Config describes how to reach the UH1 wiring centre.
type Config struct {
	// Mode selects the transport: "device" for a local serial port,
	// "socket" for a TCP serial server, "auto" to pick device when a
	// device path is set and socket otherwise.
	Mode string

	// Device is the serial device path (e.g. /dev/ttyUSB0).
	Device string

	// Host and Port locate a TCP serial server in socket mode.
	Host string
	Port int

	// Baud is the serial line rate. Heatmiser V3 uses 4800.
	Baud int

	// ReadTimeout bounds each read on the bus.
	ReadTimeout time.Duration
}

// resolveMode returns "device" or "socket" for this config.
func (c Config) resolveMode() string {
	switch c.Mode {
	case "device", "socket":
		return c.Mode
	default: // auto
		if c.Device != "" {
			return "device"
		}
		return "socket"
	}
}

// Conn is a handle on the half-duplex UH1 bus.
//
// The handle is stable across reconnections: Reopen replaces the
// underlying port in place, so Thermostat drivers and the transport
// arbiter can hold a *Conn for the life of the process.
//
// Thread Safety:
//   - Exchange, Reopen, Close and IsOpen are safe for concurrent use.
//   - Exchange serialises bus access internally; callers that need
//     multi-exchange atomicity (retry spans, poll walks) must add
//     their own locking above this layer.
type Conn struct {
	cfg Config

	mu   sync.Mutex
	port io.ReadWriteCloser
	open bool
}

// Dial opens a connection to the UH1 using cfg.
//
// Returns:
//   - *Conn: Open connection handle
//   - error: If the port cannot be opened
func Dial(cfg Config) (*Conn, error) {
	c := &Conn{cfg: cfg}
	if err := c.Reopen(); err != nil {
		return nil, err
	}
	return c, nil
}

// openPort opens the configured transport and returns it.
func openPort(cfg Config) (io.ReadWriteCloser, error) {
	switch cfg.resolveMode() {
	case "device":
		mode := &serial.Mode{
			BaudRate: cfg.Baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
		port, err := serial.Open(cfg.Device, mode)
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %w", ErrTransport, cfg.Device, err)
		}
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			port.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, fmt.Errorf("%w: setting read timeout: %w", ErrTransport, err)
		}
		return port, nil

	default: // socket
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		conn, err := net.DialTimeout("tcp", addr, cfg.ReadTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: dialling %s: %w", ErrTransport, addr, err)
		}
		return &deadlineConn{Conn: conn, timeout: cfg.ReadTimeout}, nil
	}
}

// deadlineConn applies the configured read timeout before every read,
// giving TCP serial servers the same timeout semantics as a local port.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (d *deadlineConn) Read(p []byte) (int, error) {
	if d.timeout > 0 {
		if err := d.Conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return 0, err
		}
	}
	return d.Conn.Read(p)
}

// Reopen (re)establishes the underlying port.
//
// Any existing port is closed first (best effort). Reopen is the only
// way a failed connection comes back; the transport arbiter calls it
// after exhausting its retry budget.
func (c *Conn) Reopen() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port != nil {
		c.port.Close() //nolint:errcheck // Old port may already be dead
		c.port = nil
		c.open = false
	}

	port, err := openPort(c.cfg)
	if err != nil {
		return err
	}

	c.port = port
	c.open = true
	return nil
}

// Close shuts the connection. Safe to call on an already-closed Conn.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port == nil {
		c.open = false
		return nil
	}

	err := c.port.Close()
	c.port = nil
	c.open = false
	if err != nil {
		return fmt.Errorf("%w: closing port: %w", ErrTransport, err)
	}
	return nil
}

// IsOpen reports whether the connection currently has a live port.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Exchange performs one request/reply cycle on the bus.
//
// It writes the request frame, then reads the reply: first the 3-byte
// header carrying the frame length, then the remainder. The raw reply
// frame (including CRC) is returned for the caller to validate.
//
// I/O failures are wrapped in ErrTransport; implausible frame lengths
// in ErrProtocol.
func (c *Conn) Exchange(request []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open || c.port == nil {
		return nil, ErrNotOpen
	}

	if _, err := c.port.Write(request); err != nil {
		return nil, fmt.Errorf("%w: writing request: %w", ErrTransport, err)
	}

	header := make([]byte, 3)
	if _, err := io.ReadFull(c.port, header); err != nil {
		return nil, fmt.Errorf("%w: reading reply header: %w", ErrTransport, err)
	}

	total, err := frameLength(header)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, total)
	copy(frame, header)
	if _, err := io.ReadFull(c.port, frame[len(header):]); err != nil {
		return nil, fmt.Errorf("%w: reading reply body: %w", ErrTransport, err)
	}

	return frame, nil
}
