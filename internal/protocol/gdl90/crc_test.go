package gdl90

import (
	"errors"
	"testing"
)

// ICD 2.2.3 心跳示例：7E 00 81 41 DB D0 08 02 B3 8B 7E
var icdHeartbeat = []byte{0x00, 0x81, 0x41, 0xDB, 0xD0, 0x08, 0x02}

func TestCRC16(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint16
	}{
		{name: "空数据", data: nil, expected: 0x0000},
		{name: "ICD心跳示例", data: icdHeartbeat, expected: 0x8BB3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CRC16(tt.data); got != tt.expected {
				t.Errorf("CRC16() = 0x%04X, expected 0x%04X", got, tt.expected)
			}
		})
	}
}

func TestVerifyCRC(t *testing.T) {
	good := append(append([]byte{}, icdHeartbeat...), 0xB3, 0x8B)
	bad := append(append([]byte{}, icdHeartbeat...), 0x8B, 0xB3)

	tests := []struct {
		name    string
		payload []byte
		wantErr error
	}{
		{name: "校验正确", payload: good, wantErr: nil},
		{name: "字节序错误", payload: bad, wantErr: ErrCRCMismatch},
		{name: "不足3字节", payload: []byte{0x00, 0x00}, wantErr: ErrFrameTooShort},
		{name: "空载荷", payload: nil, wantErr: ErrFrameTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := VerifyCRC(tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("VerifyCRC() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && len(body) != len(icdHeartbeat) {
				t.Fatalf("body len = %d", len(body))
			}
		})
	}
}
