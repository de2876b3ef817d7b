package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taoyao-code/gdl90-server/internal/protocol/gdl90"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	UDPDatagrams  prometheus.Counter
	BytesReceived prometheus.Counter
	FramesTotal   *prometheus.CounterVec // labels: type, result
	ResyncTotal   prometheus.Counter
	MessagesTotal *prometheus.CounterVec // labels: kind
	PublishTotal  *prometheus.CounterVec // labels: result=ok|error
	QueueDepth    prometheus.Gauge
	TCPAccepted   prometheus.Counter
	TCPRejected   prometheus.Counter
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		UDPDatagrams: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gdl90_udp_datagrams_total",
			Help: "Total UDP datagrams received.",
		}),
		BytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gdl90_bytes_received_total",
			Help: "Total raw bytes fed to decoders.",
		}),
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gdl90_frames_total",
			Help: "GDL-90 frame decode attempts by type id and result.",
		}, []string{"type", "result"}),
		ResyncTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gdl90_resync_total",
			Help: "Decoder resynchronization episodes.",
		}),
		MessagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gdl90_messages_total",
			Help: "Decoded messages by kind.",
		}, []string{"kind"}),
		PublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gdl90_publish_total",
			Help: "Bus publish attempts.",
		}, []string{"result"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gdl90_queue_depth",
			Help: "Messages waiting in the decode queue.",
		}),
		TCPAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gdl90_tcp_accept_total",
			Help: "Total accepted TCP connections.",
		}),
		TCPRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gdl90_tcp_rejected_total",
			Help: "TCP connections rejected by rate or connection limits.",
		}),
	}
	reg.MustRegister(m.UDPDatagrams, m.BytesReceived, m.FramesTotal, m.ResyncTotal,
		m.MessagesTotal, m.PublishTotal, m.QueueDepth, m.TCPAccepted, m.TCPRejected)
	return m
}

// TypeLabel 类型 ID 的标签值，无类型时为 none
func TypeLabel(typeID int) string {
	if typeID == gdl90.NoTypeID {
		return "none"
	}
	return fmt.Sprintf("0x%02X", typeID)
}

// OnFrame 实现 gdl90.Observer
func (m *AppMetrics) OnFrame(typeID int, result gdl90.Result) {
	m.FramesTotal.WithLabelValues(TypeLabel(typeID), string(result)).Inc()
}

// OnResync 实现 gdl90.Observer
func (m *AppMetrics) OnResync() { m.ResyncTotal.Inc() }

// ObserveMessage 按种类计数已解码消息
func (m *AppMetrics) ObserveMessage(msg gdl90.Message) {
	m.MessagesTotal.WithLabelValues(string(msg.Kind())).Inc()
}

// ObserveBytes 记录原始字节数
func (m *AppMetrics) ObserveBytes(n int) { m.BytesReceived.Add(float64(n)) }

// ObservePublish 记录一次发布结果
func (m *AppMetrics) ObservePublish(err error) {
	if err != nil {
		m.PublishTotal.WithLabelValues("error").Inc()
		return
	}
	m.PublishTotal.WithLabelValues("ok").Inc()
}

var _ gdl90.Observer = (*AppMetrics)(nil)
