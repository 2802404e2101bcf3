package uh1

import "fmt"

// Protocol constants for Heatmiser V3 framing.
const (
	// masterAddr is the bus address of the controlling master (us).
	masterAddr = 0x81

	// funcRead requests DCB contents; funcWrite sets DCB registers.
	funcRead  = 0x00
	funcWrite = 0x01

	// readAll requests the entire DCB in a single read.
	readAll = 0xFFFF

	// requestBaseLen is the length byte value for a read request
	// (header only, no payload).
	requestBaseLen = 10

	// replyHeaderLen is the number of bytes before the DCB data in a
	// read reply: dest, lenLo, lenHi, source, func, startLo, startHi,
	// countLo, countHi.
	replyHeaderLen = 9

	// writeReplyLen is the total length of a write acknowledgement
	// frame: dest, lenLo, lenHi, source, func, crcLo, crcHi.
	writeReplyLen = 7

	// maxFrameLen bounds reply frames; anything larger is garbage.
	maxFrameLen = 256

	// minStatAddr and maxStatAddr bound valid thermostat addresses.
	minStatAddr = 1
	maxStatAddr = 32
)

// buildReadFrame constructs a whole-DCB read request for the thermostat
// at addr. The returned frame includes the trailing CRC.
func buildReadFrame(addr byte) []byte {
	frame := []byte{
		addr,
		requestBaseLen,
		masterAddr,
		funcRead,
		0x00, 0x00, // start register (ignored for whole-DCB reads)
		byte(readAll & 0xFF),
		byte(readAll >> 8),
	}
	return appendCRC(frame)
}

// buildWriteFrame constructs a single-register write request.
// register is the DCB address to write; payload is the new content.
func buildWriteFrame(addr byte, register uint16, payload []byte) []byte {
	frame := []byte{
		addr,
		byte(requestBaseLen + len(payload)),
		masterAddr,
		funcWrite,
		byte(register & 0xFF),
		byte(register >> 8),
		byte(len(payload) & 0xFF),
		byte(len(payload) >> 8),
	}
	frame = append(frame, payload...)
	return appendCRC(frame)
}

// parseReadReply validates a read reply frame from addr and returns the
// DCB bytes it carries.
func parseReadReply(frame []byte, addr byte) ([]byte, error) {
	if len(frame) < replyHeaderLen+2 {
		return nil, fmt.Errorf("%w: read reply too short (%d bytes)", ErrProtocol, len(frame))
	}
	if !verifyCRC(frame) {
		return nil, fmt.Errorf("%w: read reply CRC mismatch", ErrProtocol)
	}
	if frame[0] != masterAddr {
		return nil, fmt.Errorf("%w: read reply addressed to 0x%02X, want 0x%02X", ErrProtocol, frame[0], masterAddr)
	}
	if frame[3] != addr {
		return nil, fmt.Errorf("%w: read reply from thermostat %d, want %d", ErrProtocol, frame[3], addr)
	}
	if frame[4] != funcRead {
		return nil, fmt.Errorf("%w: read reply has function 0x%02X", ErrProtocol, frame[4])
	}
	return frame[replyHeaderLen : len(frame)-2], nil
}

// parseWriteReply validates a write acknowledgement frame from addr.
func parseWriteReply(frame []byte, addr byte) error {
	if len(frame) != writeReplyLen {
		return fmt.Errorf("%w: write reply length %d, want %d", ErrProtocol, len(frame), writeReplyLen)
	}
	if !verifyCRC(frame) {
		return fmt.Errorf("%w: write reply CRC mismatch", ErrProtocol)
	}
	if frame[0] != masterAddr {
		return fmt.Errorf("%w: write reply addressed to 0x%02X, want 0x%02X", ErrProtocol, frame[0], masterAddr)
	}
	if frame[3] != addr {
		return fmt.Errorf("%w: write reply from thermostat %d, want %d", ErrProtocol, frame[3], addr)
	}
	if frame[4] != funcWrite {
		return fmt.Errorf("%w: write reply has function 0x%02X", ErrProtocol, frame[4])
	}
	return nil
}

// frameLength extracts the total frame length from a reply header.
// Reply frames carry their length at bytes 1-2 (little endian),
// inclusive of header and CRC.
func frameLength(header []byte) (int, error) {
	if len(header) < 3 {
		return 0, fmt.Errorf("%w: header too short", ErrProtocol)
	}
	length := int(header[1]) | int(header[2])<<8
	if length < writeReplyLen || length > maxFrameLen {
		return 0, fmt.Errorf("%w: implausible frame length %d", ErrProtocol, length)
	}
	return length, nil
}
