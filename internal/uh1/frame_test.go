package uh1

import (
	"errors"
	"testing"
)

// readReplyFrame builds a valid whole-DCB read reply from addr.
func readReplyFrame(addr byte, dcb []byte) []byte {
	total := replyHeaderLen + len(dcb) + 2
	frame := []byte{
		masterAddr,
		byte(total & 0xFF),
		byte(total >> 8),
		addr,
		funcRead,
		0x00, 0x00,
		byte(len(dcb) & 0xFF),
		byte(len(dcb) >> 8),
	}
	frame = append(frame, dcb...)
	return appendCRC(frame)
}

// writeReplyFrame builds a valid write acknowledgement from addr.
func writeReplyFrame(addr byte) []byte {
	frame := []byte{masterAddr, writeReplyLen, 0x00, addr, funcWrite}
	return appendCRC(frame)
}

func TestBuildReadFrame(t *testing.T) {
	frame := buildReadFrame(5)

	if !verifyCRC(frame) {
		t.Fatal("read frame has invalid CRC")
	}
	if frame[0] != 5 {
		t.Errorf("destination = %d, want 5", frame[0])
	}
	if frame[1] != requestBaseLen {
		t.Errorf("length byte = %d, want %d", frame[1], requestBaseLen)
	}
	if frame[2] != masterAddr {
		t.Errorf("source = 0x%02X, want 0x%02X", frame[2], masterAddr)
	}
	if frame[3] != funcRead {
		t.Errorf("function = %d, want %d", frame[3], funcRead)
	}
	// Whole-DCB reads request 0xFFFF bytes
	if frame[6] != 0xFF || frame[7] != 0xFF {
		t.Errorf("read count = % X, want FF FF", frame[6:8])
	}
}

func TestBuildWriteFrame(t *testing.T) {
	frame := buildWriteFrame(2, regTargetTemp, []byte{21})

	if !verifyCRC(frame) {
		t.Fatal("write frame has invalid CRC")
	}
	if frame[0] != 2 {
		t.Errorf("destination = %d, want 2", frame[0])
	}
	if frame[1] != requestBaseLen+1 {
		t.Errorf("length byte = %d, want %d", frame[1], requestBaseLen+1)
	}
	if frame[3] != funcWrite {
		t.Errorf("function = %d, want %d", frame[3], funcWrite)
	}
	if frame[4] != regTargetTemp || frame[5] != 0 {
		t.Errorf("register = % X, want %02X 00", frame[4:6], regTargetTemp)
	}
	if frame[8] != 21 {
		t.Errorf("payload = %d, want 21", frame[8])
	}
}

func TestParseReadReply(t *testing.T) {
	dcb := make([]byte, minDCBLen)
	dcb[dcbTargetTemp] = 21

	got, err := parseReadReply(readReplyFrame(3, dcb), 3)
	if err != nil {
		t.Fatalf("parseReadReply() error = %v", err)
	}
	if len(got) != len(dcb) {
		t.Fatalf("DCB length = %d, want %d", len(got), len(dcb))
	}
	if got[dcbTargetTemp] != 21 {
		t.Errorf("DCB target byte = %d, want 21", got[dcbTargetTemp])
	}
}

func TestParseReadReplyErrors(t *testing.T) {
	dcb := make([]byte, minDCBLen)

	tests := []struct {
		name  string
		frame []byte
		addr  byte
	}{
		{
			name:  "too short",
			frame: []byte{masterAddr, 5, 0},
			addr:  3,
		},
		{
			name: "bad crc",
			frame: func() []byte {
				f := readReplyFrame(3, dcb)
				f[len(f)-1] ^= 0xFF
				return f
			}(),
			addr: 3,
		},
		{
			name:  "wrong source thermostat",
			frame: readReplyFrame(4, dcb),
			addr:  3,
		},
		{
			name: "not addressed to master",
			frame: func() []byte {
				f := []byte{0x02, 0, 0, 3, funcRead, 0, 0, byte(len(dcb)), 0}
				f = append(f, dcb...)
				total := len(f) + 2
				f[1] = byte(total & 0xFF)
				f[2] = byte(total >> 8)
				return appendCRC(f)
			}(),
			addr: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseReadReply(tt.frame, tt.addr)
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("parseReadReply() error = %v, want ErrProtocol", err)
			}
		})
	}
}

func TestParseWriteReply(t *testing.T) {
	if err := parseWriteReply(writeReplyFrame(2), 2); err != nil {
		t.Errorf("parseWriteReply() error = %v", err)
	}

	if err := parseWriteReply(writeReplyFrame(2), 3); !errors.Is(err, ErrProtocol) {
		t.Errorf("parseWriteReply() wrong addr error = %v, want ErrProtocol", err)
	}

	bad := writeReplyFrame(2)
	bad[5] ^= 0xFF
	if err := parseWriteReply(bad, 2); !errors.Is(err, ErrProtocol) {
		t.Errorf("parseWriteReply() bad CRC error = %v, want ErrProtocol", err)
	}
}

func TestFrameLength(t *testing.T) {
	if _, err := frameLength([]byte{masterAddr, 0xFF, 0xFF}); !errors.Is(err, ErrProtocol) {
		t.Errorf("frameLength() huge error = %v, want ErrProtocol", err)
	}
	if _, err := frameLength([]byte{masterAddr, 2, 0}); !errors.Is(err, ErrProtocol) {
		t.Errorf("frameLength() tiny error = %v, want ErrProtocol", err)
	}

	got, err := frameLength([]byte{masterAddr, 51, 0})
	if err != nil {
		t.Fatalf("frameLength() error = %v", err)
	}
	if got != 51 {
		t.Errorf("frameLength() = %d, want 51", got)
	}
}
