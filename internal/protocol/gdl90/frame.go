package gdl90

import "errors"

const (
	flagByte   byte = 0x7E // 帧定界符
	escapeByte byte = 0x7D // 转义符
	escapeXor  byte = 0x20

	crcLen     = 2
	minPayload = 1 + crcLen // 类型字节 + 校验
)

var (
	ErrMalformedEscape = errors.New("gdl90: trailing escape byte")
	ErrFrameTooShort   = errors.New("gdl90: frame too short")
	ErrCRCMismatch     = errors.New("gdl90: crc mismatch")
)

// Escape 字节填充：0x7E/0x7D 前插 0x7D，并将原字节异或 0x20
func Escape(p []byte) []byte {
	out := make([]byte, 0, len(p)+4)
	for _, b := range p {
		if b == flagByte || b == escapeByte {
			out = append(out, escapeByte, b^escapeXor)
			continue
		}
		out = append(out, b)
	}
	return out
}

// Unescape 还原字节填充
// 帧末尾出现孤立的 0x7D 视为畸形帧
func Unescape(raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b != escapeByte {
			out = append(out, b)
			continue
		}
		i++
		if i >= len(raw) {
			return nil, ErrMalformedEscape
		}
		out = append(out, raw[i]^escapeXor)
	}
	return out, nil
}

// Frame 将消息体（类型字节+字段）编码为完整帧：
// 0x7E | escape(body + crcLE[2]) | 0x7E
func Frame(body []byte) []byte {
	crc := CRC16(body)
	payload := make([]byte, 0, len(body)+crcLen)
	payload = append(payload, body...)
	payload = append(payload, byte(crc), byte(crc>>8))

	out := make([]byte, 0, len(payload)+8)
	out = append(out, flagByte)
	out = append(out, Escape(payload)...)
	out = append(out, flagByte)
	return out
}
