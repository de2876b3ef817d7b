package bridge

import (
	"encoding/json"
	"strconv"

	"github.com/benbjohnson/clock"

	cfgpkg "github.com/taoyao-code/gdl90-server/internal/config"
)

// 信封消息类型
const (
	MessageTypeEvent        = "Event"
	MessageTypeRegistration = "Registration"
	MessageTypeHeartbeat    = "Heartbeat"
)

// Envelope 总线消息信封，data_payload 为内层 JSON 字符串
type Envelope struct {
	PushTimestamp   string `json:"push_timestamp"`
	DeviceType      string `json:"device_type"`
	ID              string `json:"id"`
	DeploymentID    string `json:"deployment_id"`
	CurrentLocation string `json:"current_location"`
	Status          string `json:"status"`
	MessageType     string `json:"message_type"`
	ModelVersion    string `json:"model_version"`
	FirmwareVersion string `json:"firmware_version"`
	DataPayloadType string `json:"data_payload_type"`
	DataPayload     string `json:"data_payload"`
}

// Enveloper 按应用配置生成信封
type Enveloper struct {
	app      cfgpkg.AppConfig
	serverID string
	version  string
	clk      clock.Clock
}

// NewEnveloper 创建信封生成器，clk 为 nil 时使用系统时钟
func NewEnveloper(app cfgpkg.AppConfig, serverID, version string, clk clock.Clock) *Enveloper {
	if clk == nil {
		clk = clock.New()
	}
	return &Enveloper{app: app, serverID: serverID, version: version, clk: clk}
}

// Wrap 封装载荷并序列化
func (e *Enveloper) Wrap(messageType, payloadType, payload string) ([]byte, error) {
	status := "Debug"
	if e.app.Env == "prod" {
		status = "Active"
	}
	return json.Marshal(Envelope{
		PushTimestamp:   strconv.FormatInt(e.clk.Now().Unix(), 10),
		DeviceType:      e.app.DeviceType,
		ID:              e.serverID,
		DeploymentID:    e.app.DeploymentID,
		CurrentLocation: e.app.Location,
		Status:          status,
		MessageType:     messageType,
		ModelVersion:    "null",
		FirmwareVersion: e.version,
		DataPayloadType: payloadType,
		DataPayload:     payload,
	})
}
