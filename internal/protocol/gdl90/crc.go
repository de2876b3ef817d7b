package gdl90

import "encoding/binary"

// crcTable CRC-CCITT（多项式 0x1021，初值 0）查表，按 GDL-90 接口控制文档构造
var crcTable = func() (t [256]uint16) {
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// CRC16 计算消息体的 16 位校验（不含定界符与校验字段本身）
func CRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crcTable[crc>>8] ^ crc<<8 ^ uint16(b)
	}
	return crc
}

// VerifyCRC 校验去转义后的载荷：末尾2字节为小端 CRC
// 返回去掉校验后的消息体
func VerifyCRC(payload []byte) ([]byte, error) {
	if len(payload) < minPayload {
		return nil, ErrFrameTooShort
	}
	body := payload[:len(payload)-crcLen]
	got := binary.LittleEndian.Uint16(payload[len(payload)-crcLen:])
	if got != CRC16(body) {
		return body, ErrCRCMismatch
	}
	return body, nil
}
