package gdl90

import (
	"fmt"
	"strings"
)

// 消息类型 ID（GDL-90 ICD Rev A 表 2 以及 UAT 透传扩展）
const (
	TypeHeartbeat          uint8 = 0x00
	TypeInitialization     uint8 = 0x02
	TypeUplinkData         uint8 = 0x07
	TypeHeightAboveTerrain uint8 = 0x09
	TypeOwnshipReport      uint8 = 0x0A
	TypeOwnshipGeoAltitude uint8 = 0x0B
	TypeTrafficReport      uint8 = 0x14
	TypeBasicReport        uint8 = 0x1E
	TypeLongReport         uint8 = 0x1F
)

// Kind 消息种类标签（日志、指标、统计使用）
type Kind string

const (
	KindHeartbeat          Kind = "heartbeat"
	KindInitialization     Kind = "initialization"
	KindUplinkData         Kind = "uplink_data"
	KindHeightAboveTerrain Kind = "height_above_terrain"
	KindOwnshipReport      Kind = "ownship_report"
	KindOwnshipGeoAltitude Kind = "ownship_geo_altitude"
	KindTrafficReport      Kind = "traffic_report"
	KindBasicReport        Kind = "basic_report"
	KindLongReport         Kind = "long_report"
	KindUnknown            Kind = "unknown"
)

// Message 解码后的消息（按类型 ID 区分的变体）
type Message interface {
	TypeID() uint8
	Kind() Kind
}

// Heartbeat 0x00 心跳
type Heartbeat struct {
	StatusByte1 uint8
	StatusByte2 uint8
	// TimeStamp UTC 零点以来的秒数（17 位）
	TimeStamp      uint32
	UplinkCount    uint8  // 上一秒收到的 uplink 数（5 位）
	BasicLongCount uint16 // 上一秒收到的 basic/long 报告数（10 位）
}

func (Heartbeat) TypeID() uint8 { return TypeHeartbeat }
func (Heartbeat) Kind() Kind    { return KindHeartbeat }

func (h Heartbeat) GPSPositionValid() bool    { return h.StatusByte1&0x80 != 0 }
func (h Heartbeat) MaintenanceRequired() bool { return h.StatusByte1&0x40 != 0 }
func (h Heartbeat) Ident() bool               { return h.StatusByte1&0x20 != 0 }
func (h Heartbeat) GPSBatteryLow() bool       { return h.StatusByte1&0x08 != 0 }
func (h Heartbeat) UATInitialized() bool      { return h.StatusByte1&0x01 != 0 }
func (h Heartbeat) CSARequested() bool        { return h.StatusByte2&0x40 != 0 }
func (h Heartbeat) CSANotAvailable() bool     { return h.StatusByte2&0x20 != 0 }
func (h Heartbeat) UTCOK() bool               { return h.StatusByte2&0x01 != 0 }

// Initialization 0x02 初始化
type Initialization struct {
	ConfigByte1 uint8
	ConfigByte2 uint8
}

func (Initialization) TypeID() uint8 { return TypeInitialization }
func (Initialization) Kind() Kind    { return KindInitialization }

// UplinkData 0x07 UAT 上行数据（FIS-B）
type UplinkData struct {
	// TimeOfReception 80ns 单位，0xFFFFFF 表示无效
	TimeOfReception uint32
	Payload         []byte
}

func (UplinkData) TypeID() uint8 { return TypeUplinkData }
func (UplinkData) Kind() Kind    { return KindUplinkData }

// HeightAboveTerrain 0x09 离地高度
type HeightAboveTerrain struct {
	HeightFt int16
	Valid    bool
}

func (HeightAboveTerrain) TypeID() uint8 { return TypeHeightAboveTerrain }
func (HeightAboveTerrain) Kind() Kind    { return KindHeightAboveTerrain }

// Report Ownship/Traffic 共用的报告布局
type Report struct {
	AlertStatus     uint8
	AddressType     uint8
	Address         uint32 // 24 位 ICAO 地址
	Latitude        float64
	Longitude       float64
	Altitude        int // 气压高度（ft）
	AltitudeValid   bool
	Misc            uint8
	NavIntegrityCat uint8
	NavAccuracyCat  uint8
	HVelocity       int // kt
	HVelocityValid  bool
	VVelocity       int // ft/min
	VVelocityValid  bool
	TrackHeading    float64 // 度
	EmitterCat      uint8
	CallSign        string
	PriorityCode    uint8
}

// ICAOHex 以6位十六进制表示地址
func (r Report) ICAOHex() string { return fmt.Sprintf("%06x", r.Address&0xFFFFFF) }

// HasPosition 纬度、经度、NIC 全为 0 表示无有效位置
func (r Report) HasPosition() bool {
	return !(r.Latitude == 0 && r.Longitude == 0 && r.NavIntegrityCat == 0)
}

// Airborne misc 位3
func (r Report) Airborne() bool { return r.Misc&0x08 != 0 }

// TrackValid misc 低2位为 0 表示航迹无效
func (r Report) TrackValid() bool { return r.Misc&0x03 != 0 }

// TrafficReport 0x14 交通报告
type TrafficReport struct{ Report }

func (TrafficReport) TypeID() uint8 { return TypeTrafficReport }
func (TrafficReport) Kind() Kind    { return KindTrafficReport }

// OwnshipReport 0x0A 本机报告
type OwnshipReport struct{ Report }

func (OwnshipReport) TypeID() uint8 { return TypeOwnshipReport }
func (OwnshipReport) Kind() Kind    { return KindOwnshipReport }

// OwnshipGeoAltitude 0x0B 本机几何高度
type OwnshipGeoAltitude struct {
	AltitudeFt      int
	VerticalWarning bool
	// VFOMMeters 0x7FFF 表示不可用
	VFOMMeters uint16
}

func (OwnshipGeoAltitude) TypeID() uint8 { return TypeOwnshipGeoAltitude }
func (OwnshipGeoAltitude) Kind() Kind    { return KindOwnshipGeoAltitude }

// VFOMAvailable 垂直品质因数是否可用
func (g OwnshipGeoAltitude) VFOMAvailable() bool { return g.VFOMMeters != 0x7FFF }

// UATReport 0x1E/0x1F UAT 报告透传
type UATReport struct {
	ID              uint8
	TimeOfReception uint32
	Payload         []byte
}

func (u UATReport) TypeID() uint8 { return u.ID }

func (u UATReport) Kind() Kind {
	if u.ID == TypeLongReport {
		return KindLongReport
	}
	return KindBasicReport
}

// Unknown 未注册类型的原始透传（仅在设置了 Fallback 时产生）
type Unknown struct {
	ID   uint8
	Data []byte
}

func (u Unknown) TypeID() uint8 { return u.ID }
func (Unknown) Kind() Kind      { return KindUnknown }

func trimCallSign(b []byte) string {
	return strings.TrimRight(string(b), " \x00")
}
