package gdl90

import (
	"encoding/binary"
	"errors"
)

var ErrShortBody = errors.New("gdl90: short message body")

const (
	latLonResolution = 180.0 / 8388608.0 // 180/2^23
	trackResolution  = 360.0 / 256.0

	heartbeatLen   = 7
	initLen        = 3
	uplinkLen      = 436
	hatLen         = 3
	reportLen      = 28
	geoAltLen      = 5
	basicReportLen = 22
	longReportLen  = 38
)

// DecodeHeartbeat 0x00
// 时间戳低16位小端位于 body[3:5]，第17位为 status2 bit7
func DecodeHeartbeat(body []byte) (Message, error) {
	if len(body) < heartbeatLen {
		return nil, ErrShortBody
	}
	ts := uint32(binary.LittleEndian.Uint16(body[3:5]))
	if body[2]&0x80 != 0 {
		ts |= 1 << 16
	}
	return Heartbeat{
		StatusByte1:    body[1],
		StatusByte2:    body[2],
		TimeStamp:      ts,
		UplinkCount:    body[5] >> 3,
		BasicLongCount: uint16(body[5]&0x03)<<8 | uint16(body[6]),
	}, nil
}

// DecodeInitialization 0x02
func DecodeInitialization(body []byte) (Message, error) {
	if len(body) < initLen {
		return nil, ErrShortBody
	}
	return Initialization{ConfigByte1: body[1], ConfigByte2: body[2]}, nil
}

// DecodeUplinkData 0x07
func DecodeUplinkData(body []byte) (Message, error) {
	if len(body) < uplinkLen {
		return nil, ErrShortBody
	}
	payload := make([]byte, uplinkLen-4)
	copy(payload, body[4:uplinkLen])
	return UplinkData{TimeOfReception: uint24LE(body[1:4]), Payload: payload}, nil
}

// DecodeHeightAboveTerrain 0x09
func DecodeHeightAboveTerrain(body []byte) (Message, error) {
	if len(body) < hatLen {
		return nil, ErrShortBody
	}
	raw := binary.BigEndian.Uint16(body[1:3])
	return HeightAboveTerrain{HeightFt: int16(raw), Valid: raw != 0x8000}, nil
}

// DecodeTrafficReport 0x14
func DecodeTrafficReport(body []byte) (Message, error) {
	r, err := decodeReport(body)
	if err != nil {
		return nil, err
	}
	return TrafficReport{Report: r}, nil
}

// DecodeOwnshipReport 0x0A
func DecodeOwnshipReport(body []byte) (Message, error) {
	r, err := decodeReport(body)
	if err != nil {
		return nil, err
	}
	return OwnshipReport{Report: r}, nil
}

// decodeReport 报告布局（偏移相对于类型字节）：
// st|ee [1] | aaaaaa [2:5] | lat [5:8] | lon [8:11] | ddd m [11:13] | i a [13] |
// hhh vvv [14:17] | tt [17] | emitter [18] | callsign [19:27] | px [27]
func decodeReport(body []byte) (Report, error) {
	if len(body) < reportLen {
		return Report{}, ErrShortBody
	}
	r := Report{
		AlertStatus:     body[1] >> 4,
		AddressType:     body[1] & 0x0F,
		Address:         uint24BE(body[2:5]),
		Latitude:        float64(signed24(uint24BE(body[5:8]))) * latLonResolution,
		Longitude:       float64(signed24(uint24BE(body[8:11]))) * latLonResolution,
		Misc:            body[12] & 0x0F,
		NavIntegrityCat: body[13] >> 4,
		NavAccuracyCat:  body[13] & 0x0F,
		TrackHeading:    float64(body[17]) * trackResolution,
		EmitterCat:      body[18],
		CallSign:        trimCallSign(body[19:27]),
		PriorityCode:    body[27] >> 4,
	}

	alt := int(body[11])<<4 | int(body[12]>>4)
	if alt != 0xFFF {
		r.Altitude = alt*25 - 1000
		r.AltitudeValid = true
	}

	hv := int(body[14])<<4 | int(body[15]>>4)
	if hv != 0xFFF {
		r.HVelocity = hv
		r.HVelocityValid = true
	}

	vv := int(body[15]&0x0F)<<8 | int(body[16])
	if vv != 0x800 {
		if vv&0x800 != 0 {
			vv -= 0x1000
		}
		r.VVelocity = vv * 64
		r.VVelocityValid = true
	}
	return r, nil
}

// DecodeOwnshipGeoAltitude 0x0B
func DecodeOwnshipGeoAltitude(body []byte) (Message, error) {
	if len(body) < geoAltLen {
		return nil, ErrShortBody
	}
	alt := int16(binary.BigEndian.Uint16(body[1:3]))
	vm := binary.BigEndian.Uint16(body[3:5])
	return OwnshipGeoAltitude{
		AltitudeFt:      int(alt) * 5,
		VerticalWarning: vm&0x8000 != 0,
		VFOMMeters:      vm & 0x7FFF,
	}, nil
}

// DecodeUATReport 0x1E/0x1F
func DecodeUATReport(body []byte) (Message, error) {
	want := basicReportLen
	if len(body) > 0 && body[0] == TypeLongReport {
		want = longReportLen
	}
	if len(body) < want {
		return nil, ErrShortBody
	}
	payload := make([]byte, want-4)
	copy(payload, body[4:want])
	return UATReport{ID: body[0], TimeOfReception: uint24LE(body[1:4]), Payload: payload}, nil
}

// DecodeUnknown 原样透传未注册类型
func DecodeUnknown(body []byte) (Message, error) {
	if len(body) < 1 {
		return nil, ErrShortBody
	}
	data := make([]byte, len(body)-1)
	copy(data, body[1:])
	return Unknown{ID: body[0], Data: data}, nil
}

func uint24BE(b []byte) uint32 { return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]) }
func uint24LE(b []byte) uint32 { return uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0]) }

func signed24(v uint32) int32 {
	if v&0x800000 != 0 {
		return int32(v) - 0x1000000
	}
	return int32(v)
}
