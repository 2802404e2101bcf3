package uh1

import (
	"fmt"
	"sync"
)

// Model identifies the thermostat hardware variant.
type Model string

// Supported thermostat models.
const (
	// ModelPRT is the room thermostat.
	ModelPRT Model = "prt"

	// ModelPRTHW is the room thermostat with hot water control.
	ModelPRTHW Model = "prthw"
)

// DCB register offsets (Heatmiser V3).
//
// Temperatures are whole degrees except the sensor readings, which are
// 16-bit big-endian tenths of a degree.
const (
	dcbFrostTemp     = 17 // frost protection setpoint, whole °C
	dcbTargetTemp    = 18 // target setpoint, whole °C
	dcbRunMode       = 23 // 0 = normal, 1 = frost protection
	dcbFloorTempHi   = 31 // floor sensor, tenths of °C (big endian)
	dcbFloorTempLo   = 32
	dcbAirTempHi     = 33 // air sensor, tenths of °C (big endian)
	dcbAirTempLo     = 34
	dcbHeatState     = 35 // 1 = heating output active
	dcbHotWaterState = 36 // 1 = hot water output active (PRT-HW only)

	// minDCBLen is the smallest DCB we accept; guards offset access.
	minDCBLen = 40
)

// Writable DCB registers.
const (
	regTargetTemp = 18
	regRunMode    = 23
	regHotWater   = 42
)

// Hot water write codes. Zero returns the zone to programmed control.
const (
	hotWaterCmdOn  = 1
	hotWaterCmdOff = 2
)

// Target setpoint bounds enforced by the thermostat firmware.
const (
	MinTargetTemp = 5
	MaxTargetTemp = 35
)

// Thermostat is a driver for a single Heatmiser V3 thermostat reachable
// through a shared UH1 connection.
//
// Reads refresh a cached copy of the thermostat's DCB; getters serve
// from that cache without touching the bus. Successful writes patch the
// cache so immediate reads reflect the new value before the next poll.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Bus access is
//     serialised by Conn; the DCB cache has its own lock.
type Thermostat struct {
	conn  *Conn
	addr  byte
	model Model

	mu  sync.RWMutex
	dcb []byte
}

// NewThermostat creates a driver for the thermostat at addr (1-32).
func NewThermostat(conn *Conn, addr int, model Model) (*Thermostat, error) {
	if addr < minStatAddr || addr > maxStatAddr {
		return nil, fmt.Errorf("%w: thermostat address %d out of range %d-%d",
			ErrProtocol, addr, minStatAddr, maxStatAddr)
	}
	return &Thermostat{
		conn:  conn,
		addr:  byte(addr),
		model: model,
	}, nil
}

// Addr returns the thermostat's bus address.
func (t *Thermostat) Addr() int {
	return int(t.addr)
}

// Model returns the thermostat's hardware variant.
func (t *Thermostat) Model() Model {
	return t.model
}

// ReadDCB reads the thermostat's entire DCB from the bus and refreshes
// the cached copy.
//
// Returns:
//   - error: ErrTransport on I/O failure, ErrProtocol on a bad reply
func (t *Thermostat) ReadDCB() error {
	reply, err := t.conn.Exchange(buildReadFrame(t.addr))
	if err != nil {
		return err
	}

	dcb, err := parseReadReply(reply, t.addr)
	if err != nil {
		return err
	}
	if len(dcb) < minDCBLen {
		return fmt.Errorf("%w: DCB too short (%d bytes)", ErrProtocol, len(dcb))
	}

	t.mu.Lock()
	t.dcb = dcb
	t.mu.Unlock()
	return nil
}

// writeRegister writes payload to a single DCB register and verifies
// the acknowledgement.
func (t *Thermostat) writeRegister(register uint16, payload []byte) error {
	reply, err := t.conn.Exchange(buildWriteFrame(t.addr, register, payload))
	if err != nil {
		return err
	}
	return parseWriteReply(reply, t.addr)
}

// patchDCB updates a cached DCB byte after a successful write.
func (t *Thermostat) patchDCB(offset int, value byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if offset < len(t.dcb) {
		t.dcb[offset] = value
	}
}

// dcbByte returns the cached DCB byte at offset, or 0 if no DCB has
// been read yet.
func (t *Thermostat) dcbByte(offset int) byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if offset >= len(t.dcb) {
		return 0
	}
	return t.dcb[offset]
}

// dcbTemp returns a 16-bit big-endian tenths-of-degree reading.
func (t *Thermostat) dcbTemp(hi, lo int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if lo >= len(t.dcb) {
		return 0
	}
	raw := uint16(t.dcb[hi])<<8 | uint16(t.dcb[lo])
	return float64(raw) / 10
}

// AirTemp returns the air sensor reading in °C.
func (t *Thermostat) AirTemp() float64 {
	return t.dcbTemp(dcbAirTempHi, dcbAirTempLo)
}

// FloorTemp returns the floor sensor reading in °C.
func (t *Thermostat) FloorTemp() float64 {
	return t.dcbTemp(dcbFloorTempHi, dcbFloorTempLo)
}

// TargetTemp returns the target setpoint in whole °C.
func (t *Thermostat) TargetTemp() int {
	return int(t.dcbByte(dcbTargetTemp))
}

// FrostTemp returns the frost protection setpoint in whole °C.
func (t *Thermostat) FrostTemp() int {
	return int(t.dcbByte(dcbFrostTemp))
}

// FrostActive reports whether the thermostat is in frost protection
// mode (run mode "off").
func (t *Thermostat) FrostActive() bool {
	return t.dcbByte(dcbRunMode) == 1
}

// HeatingActive reports whether the heating output is currently on.
func (t *Thermostat) HeatingActive() bool {
	return t.dcbByte(dcbHeatState) == 1
}

// HotWaterOn reports whether the hot water output is currently on.
// Only meaningful on PRT-HW models.
func (t *Thermostat) HotWaterOn() (bool, error) {
	if t.model != ModelPRTHW {
		return false, fmt.Errorf("%w: hot water state on %s", ErrNotSupported, t.model)
	}
	return t.dcbByte(dcbHotWaterState) == 1, nil
}

// SetTargetTemp writes a new target setpoint in whole °C.
//
// Parameters:
//   - target: Setpoint, clamped to thermostat limits (5-35)
func (t *Thermostat) SetTargetTemp(target int) error {
	if target < MinTargetTemp || target > MaxTargetTemp {
		return fmt.Errorf("%w: target %d out of range %d-%d",
			ErrProtocol, target, MinTargetTemp, MaxTargetTemp)
	}
	if err := t.writeRegister(regTargetTemp, []byte{byte(target)}); err != nil {
		return err
	}
	t.patchDCB(dcbTargetTemp, byte(target))
	return nil
}

// SetFrostMode enables or disables frost protection mode.
func (t *Thermostat) SetFrostMode(enabled bool) error {
	value := byte(0)
	if enabled {
		value = 1
	}
	if err := t.writeRegister(regRunMode, []byte{value}); err != nil {
		return err
	}
	t.patchDCB(dcbRunMode, value)
	return nil
}

// SetHotWater forces the hot water output on or off.
// Only valid on PRT-HW models.
func (t *Thermostat) SetHotWater(on bool) error {
	if t.model != ModelPRTHW {
		return fmt.Errorf("%w: hot water control on %s", ErrNotSupported, t.model)
	}
	cmd := byte(hotWaterCmdOff)
	state := byte(0)
	if on {
		cmd = hotWaterCmdOn
		state = 1
	}
	if err := t.writeRegister(regHotWater, []byte{cmd}); err != nil {
		return err
	}
	t.patchDCB(dcbHotWaterState, state)
	return nil
}
