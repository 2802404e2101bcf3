package uh1

// CRC-16 as used by the Heatmiser V3 protocol: polynomial 0x1021,
// initial value 0xFFFF, processed four bits at a time via a 16-entry
// lookup table.

const crcInitial = 0xFFFF

// crcTable holds CRC values for every 4-bit nibble (polynomial 0x1021).
var crcTable = [16]uint16{
	0x0000, 0x1021, 0x2042, 0x3063,
	0x4084, 0x50A5, 0x60C6, 0x70E7,
	0x8108, 0x9129, 0xA14A, 0xB16B,
	0xC18C, 0xD1AD, 0xE1CE, 0xF1EF,
}

// crc16 computes the Heatmiser CRC over data.
func crc16(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc = crcNibble(crc, b>>4)   // high nibble first
		crc = crcNibble(crc, b&0x0F) // then low nibble
	}
	return crc
}

// crcNibble folds a single 4-bit value into the running CRC.
func crcNibble(crc uint16, nibble byte) uint16 {
	idx := byte(crc >> 12)
	crc <<= 4
	return crc ^ crcTable[idx] ^ crcTable[nibble&0x0F]
}

// appendCRC appends the CRC of frame to frame (low byte first).
func appendCRC(frame []byte) []byte {
	crc := crc16(frame)
	return append(frame, byte(crc&0xFF), byte(crc>>8))
}

// verifyCRC checks the trailing two CRC bytes of frame.
func verifyCRC(frame []byte) bool {
	if len(frame) < 3 {
		return false
	}
	body := frame[:len(frame)-2]
	want := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	return crc16(body) == want
}
