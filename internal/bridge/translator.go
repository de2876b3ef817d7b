package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/gdl90-server/internal/protocol/gdl90"
)

// PayloadTypeTraffic 交通报告的 data_payload_type
const PayloadTypeTraffic = "TrafficReport"

// TrafficRecord 交通报告的总线载荷
type TrafficRecord struct {
	VerticalVelocity int `json:"vertical_velocity"`
	// Time 最近一个心跳的时间戳（当秒内所有交通报告的适用时刻），未收到心跳时为 null
	Time               *uint32 `json:"time"`
	Altitude           int     `json:"altitude"`
	ICAOHex            string  `json:"icao_hex"`
	HorizontalVelocity int     `json:"horizontal_velocity"`
	Track              float64 `json:"track"`
	Lat                float64 `json:"lat"`
	Lon                float64 `json:"lon"`
	Flight             string  `json:"flight"`
}

// NewTrafficRecord 由交通报告和心跳时间戳构造载荷
func NewTrafficRecord(r gdl90.TrafficReport, ts *uint32) TrafficRecord {
	return TrafficRecord{
		VerticalVelocity:   r.VVelocity,
		Time:               ts,
		Altitude:           r.Altitude,
		ICAOHex:            r.ICAOHex(),
		HorizontalVelocity: r.HVelocity,
		Track:              r.TrackHeading,
		Lat:                r.Latitude,
		Lon:                r.Longitude,
		Flight:             r.CallSign,
	}
}

// Translator 已解码消息到总线消息的转换器，可被多个解码器共享。
// 最近的心跳时间戳是进程级的：任一输入源的心跳都会用于此后所有输入源的交通报告。
type Translator struct {
	pub     Publisher
	env     *Enveloper
	topic   string
	timeout time.Duration
	logger  *zap.Logger

	// OnPublish 每次发布后回调（指标）
	OnPublish func(err error)

	mu sync.Mutex
	ts *uint32
}

// NewTranslator 创建转换器，timeout 为单次发布超时
func NewTranslator(pub Publisher, env *Enveloper, topic string, timeout time.Duration, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{pub: pub, env: env, topic: topic, timeout: timeout, logger: logger}
}

// Handle 实现 gdl90.Handler
func (t *Translator) Handle(msg gdl90.Message) {
	switch m := msg.(type) {
	case gdl90.Heartbeat:
		t.mu.Lock()
		ts := m.TimeStamp
		t.ts = &ts
		t.mu.Unlock()
	case gdl90.TrafficReport:
		t.publishTraffic(m)
		return
	}
	t.logger.Info("non-traffic message", zap.String("kind", string(msg.Kind())))
}

// LastTimestamp 最近一个心跳的时间戳
func (t *Translator) LastTimestamp() (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ts == nil {
		return 0, false
	}
	return *t.ts, true
}

func (t *Translator) publishTraffic(r gdl90.TrafficReport) {
	var ts *uint32
	if v, ok := t.LastTimestamp(); ok {
		ts = &v
	}
	if !r.HasPosition() {
		t.logger.Debug("traffic report without position", zap.String("icao", r.ICAOHex()))
	}

	inner, err := json.Marshal(NewTrafficRecord(r, ts))
	if err != nil {
		t.logger.Error("marshal traffic record", zap.Error(err))
		return
	}
	payload, err := t.env.Wrap(MessageTypeEvent, PayloadTypeTraffic, string(inner))
	if err != nil {
		t.logger.Error("wrap traffic record", zap.Error(err))
		return
	}

	ctx := context.Background()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	err = t.pub.Publish(ctx, t.topic, payload)
	if t.OnPublish != nil {
		t.OnPublish(err)
	}
	if err != nil {
		t.logger.Warn("publish traffic failed", zap.String("topic", t.topic), zap.Error(err))
		return
	}
	t.logger.Debug("published traffic", zap.String("topic", t.topic), zap.ByteString("data", inner))
}
