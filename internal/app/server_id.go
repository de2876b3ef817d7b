package app

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// GenerateServerID 生成服务器实例ID（用作总线信封 id）
// 优先使用环境变量SERVER_ID，否则为 gdl90-server-{hostname}-{uuid 前8位}
func GenerateServerID() string {
	if serverID := os.Getenv("SERVER_ID"); serverID != "" {
		return serverID
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("gdl90-server-%s-%s", hostname, uuid.New().String()[:8])
}
