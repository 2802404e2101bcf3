package uh1

import (
	"errors"
	"io"
	"sync"
	"testing"
)

// scriptedPort is a fake serial port that records writes and serves
// queued reply frames, one per request.
type scriptedPort struct {
	mu      sync.Mutex
	writes  [][]byte
	replies [][]byte
	rbuf    []byte
	closed  bool
}

func (p *scriptedPort) queue(reply []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply)
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, append([]byte(nil), b...))
	if len(p.replies) > 0 {
		p.rbuf = append(p.rbuf, p.replies[0]...)
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	if len(p.rbuf) == 0 {
		// Nothing scripted: behaves like a read timeout.
		return 0, io.ErrUnexpectedEOF
	}
	n := copy(b, p.rbuf)
	p.rbuf = p.rbuf[n:]
	return n, nil
}

func (p *scriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// testConn wraps a scripted port in an open Conn.
func testConn(port *scriptedPort) *Conn {
	return &Conn{port: port, open: true}
}

// sampleDCB builds a DCB with known readings.
func sampleDCB() []byte {
	dcb := make([]byte, 48)
	dcb[dcbFrostTemp] = 12
	dcb[dcbTargetTemp] = 21
	dcb[dcbRunMode] = 0
	dcb[dcbFloorTempHi] = 0x00
	dcb[dcbFloorTempLo] = 0xB6 // 18.2°C
	dcb[dcbAirTempHi] = 0x00
	dcb[dcbAirTempLo] = 0xC3 // 19.5°C
	dcb[dcbHeatState] = 1
	dcb[dcbHotWaterState] = 1
	return dcb
}

func TestNewThermostatAddrRange(t *testing.T) {
	conn := testConn(&scriptedPort{})

	if _, err := NewThermostat(conn, 0, ModelPRT); !errors.Is(err, ErrProtocol) {
		t.Errorf("NewThermostat(0) error = %v, want ErrProtocol", err)
	}
	if _, err := NewThermostat(conn, 33, ModelPRT); !errors.Is(err, ErrProtocol) {
		t.Errorf("NewThermostat(33) error = %v, want ErrProtocol", err)
	}
	if _, err := NewThermostat(conn, 1, ModelPRT); err != nil {
		t.Errorf("NewThermostat(1) error = %v", err)
	}
}

func TestReadDCBAndGetters(t *testing.T) {
	port := &scriptedPort{}
	port.queue(readReplyFrame(2, sampleDCB()))

	stat, err := NewThermostat(testConn(port), 2, ModelPRTHW)
	if err != nil {
		t.Fatalf("NewThermostat() error = %v", err)
	}

	if err := stat.ReadDCB(); err != nil {
		t.Fatalf("ReadDCB() error = %v", err)
	}

	if got := stat.AirTemp(); got != 19.5 {
		t.Errorf("AirTemp() = %v, want 19.5", got)
	}
	if got := stat.FloorTemp(); got != 18.2 {
		t.Errorf("FloorTemp() = %v, want 18.2", got)
	}
	if got := stat.TargetTemp(); got != 21 {
		t.Errorf("TargetTemp() = %d, want 21", got)
	}
	if got := stat.FrostTemp(); got != 12 {
		t.Errorf("FrostTemp() = %d, want 12", got)
	}
	if stat.FrostActive() {
		t.Error("FrostActive() = true, want false")
	}
	if !stat.HeatingActive() {
		t.Error("HeatingActive() = false, want true")
	}
	hw, err := stat.HotWaterOn()
	if err != nil {
		t.Fatalf("HotWaterOn() error = %v", err)
	}
	if !hw {
		t.Error("HotWaterOn() = false, want true")
	}

	// The request on the wire must be a whole-DCB read for address 2.
	if len(port.writes) != 1 {
		t.Fatalf("wrote %d frames, want 1", len(port.writes))
	}
	if port.writes[0][0] != 2 || port.writes[0][3] != funcRead {
		t.Errorf("unexpected request frame % X", port.writes[0])
	}
}

func TestReadDCBTransportError(t *testing.T) {
	port := &scriptedPort{} // no reply queued: read fails

	stat, _ := NewThermostat(testConn(port), 1, ModelPRT)

	err := stat.ReadDCB()
	if !errors.Is(err, ErrTransport) {
		t.Errorf("ReadDCB() error = %v, want ErrTransport", err)
	}
}

func TestSetTargetTemp(t *testing.T) {
	port := &scriptedPort{}
	port.queue(readReplyFrame(1, sampleDCB()))
	port.queue(writeReplyFrame(1))

	stat, _ := NewThermostat(testConn(port), 1, ModelPRT)
	if err := stat.ReadDCB(); err != nil {
		t.Fatalf("ReadDCB() error = %v", err)
	}

	if err := stat.SetTargetTemp(24); err != nil {
		t.Fatalf("SetTargetTemp() error = %v", err)
	}

	// Cache patched so immediate reads reflect the write
	if got := stat.TargetTemp(); got != 24 {
		t.Errorf("TargetTemp() after write = %d, want 24", got)
	}

	// Write frame targets the setpoint register with the new value
	frame := port.writes[1]
	if frame[3] != funcWrite || frame[4] != regTargetTemp || frame[8] != 24 {
		t.Errorf("unexpected write frame % X", frame)
	}
}

func TestSetTargetTempOutOfRange(t *testing.T) {
	stat, _ := NewThermostat(testConn(&scriptedPort{}), 1, ModelPRT)

	if err := stat.SetTargetTemp(4); !errors.Is(err, ErrProtocol) {
		t.Errorf("SetTargetTemp(4) error = %v, want ErrProtocol", err)
	}
	if err := stat.SetTargetTemp(36); !errors.Is(err, ErrProtocol) {
		t.Errorf("SetTargetTemp(36) error = %v, want ErrProtocol", err)
	}
}

func TestSetFrostMode(t *testing.T) {
	port := &scriptedPort{}
	port.queue(readReplyFrame(1, sampleDCB()))
	port.queue(writeReplyFrame(1))

	stat, _ := NewThermostat(testConn(port), 1, ModelPRT)
	if err := stat.ReadDCB(); err != nil {
		t.Fatalf("ReadDCB() error = %v", err)
	}

	if err := stat.SetFrostMode(true); err != nil {
		t.Fatalf("SetFrostMode() error = %v", err)
	}
	if !stat.FrostActive() {
		t.Error("FrostActive() = false after enabling frost mode")
	}

	frame := port.writes[1]
	if frame[4] != regRunMode || frame[8] != 1 {
		t.Errorf("unexpected write frame % X", frame)
	}
}

func TestSetHotWater(t *testing.T) {
	port := &scriptedPort{}
	port.queue(writeReplyFrame(2))

	stat, _ := NewThermostat(testConn(port), 2, ModelPRTHW)

	if err := stat.SetHotWater(false); err != nil {
		t.Fatalf("SetHotWater() error = %v", err)
	}

	frame := port.writes[0]
	if frame[4] != regHotWater || frame[8] != hotWaterCmdOff {
		t.Errorf("unexpected write frame % X", frame)
	}
}

func TestHotWaterUnsupportedOnPRT(t *testing.T) {
	stat, _ := NewThermostat(testConn(&scriptedPort{}), 1, ModelPRT)

	if err := stat.SetHotWater(true); !errors.Is(err, ErrNotSupported) {
		t.Errorf("SetHotWater() on PRT error = %v, want ErrNotSupported", err)
	}
	if _, err := stat.HotWaterOn(); !errors.Is(err, ErrNotSupported) {
		t.Errorf("HotWaterOn() on PRT error = %v, want ErrNotSupported", err)
	}
}
