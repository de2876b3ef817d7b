package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/spf13/viper"
)

// AppConfig 应用基础信息（同时用于总线消息信封）
type AppConfig struct {
	Name         string `mapstructure:"name"`
	Env          string `mapstructure:"env"`
	DeviceType   string `mapstructure:"deviceType"`
	DeploymentID string `mapstructure:"deploymentID"`
	Location     string `mapstructure:"location"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// UDPConfig GDL-90 UDP 监听配置
type UDPConfig struct {
	Addr       string `mapstructure:"addr"`
	BufferSize int    `mapstructure:"bufferSize"`
}

// TCPConfig GDL-90 over TCP 监听配置（串口转 TCP 场景，可选）
type TCPConfig struct {
	Enable         bool          `mapstructure:"enable"`
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	MaxConnections int           `mapstructure:"maxConnections"`
	AcceptRate     int           `mapstructure:"acceptRate"`
	AcceptBurst    int           `mapstructure:"acceptBurst"`
}

// DecoderConfig 解码器配置
type DecoderConfig struct {
	// QueueSize 解码与发布之间的有界队列长度，0 表示回调同步执行
	QueueSize   int `mapstructure:"queueSize"`
	MaxFrameLen int `mapstructure:"maxFrameLen"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Path   string `mapstructure:"path"`
}

// RedisConfig Redis 连接配置（发布总线）
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"poolSize"`
	MinIdleConns int           `mapstructure:"minIdleConns"`
	DialTimeout  time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

// BridgeConfig 总线桥接配置
type BridgeConfig struct {
	DataTopic         string        `mapstructure:"dataTopic"`
	HeartbeatTopic    string        `mapstructure:"heartbeatTopic"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeatInterval"`
	PublishTimeout    time.Duration `mapstructure:"publishTimeout"`
	// BreakerThreshold 连续发布失败多少次后熔断
	BreakerThreshold int           `mapstructure:"breakerThreshold"`
	BreakerCooldown  time.Duration `mapstructure:"breakerCooldown"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	UDP     UDPConfig     `mapstructure:"udp"`
	TCP     TCPConfig     `mapstructure:"tcp"`
	Decoder DecoderConfig `mapstructure:"decoder"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Bridge  BridgeConfig  `mapstructure:"bridge"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则尝试从环境变量 GDL90_CONFIG 读取；否则回退到 configs/gdl90.yaml。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv("GDL90_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("gdl90")
		v.SetConfigType("yaml")
	}

	// 默认值
	setDefaults(v)

	// 环境变量覆盖：前缀 GDL90_，并将点号替换为下划线
	v.SetEnvPrefix("GDL90")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验监听/连接地址与主题
func (c *Config) Validate() error {
	if err := validateAddr("http.addr", c.HTTP.Addr); err != nil {
		return err
	}
	if err := validateAddr("udp.addr", c.UDP.Addr); err != nil {
		return err
	}
	if c.UDP.BufferSize <= 0 {
		return fmt.Errorf("udp.bufferSize must be positive")
	}
	if c.TCP.Enable {
		if err := validateAddr("tcp.addr", c.TCP.Addr); err != nil {
			return err
		}
	}
	if c.Redis.Enabled {
		if err := validateAddr("redis.addr", c.Redis.Addr); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Bridge.DataTopic) == "" {
		return fmt.Errorf("bridge.dataTopic is required")
	}
	return nil
}

func validateAddr(key, addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if !govalidator.IsPort(port) && port != "0" {
		return fmt.Errorf("%s: invalid port %q", key, port)
	}
	if host != "" && !govalidator.IsHost(host) {
		return fmt.Errorf("%s: invalid host %q", key, host)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gdl90-server")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.deviceType", "SkyScan")
	v.SetDefault("app.deploymentID", "SkyScan-Local")
	v.SetDefault("app.location", "-90, -180")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("udp.addr", ":4000")
	v.SetDefault("udp.bufferSize", 1024)

	v.SetDefault("tcp.enable", false)
	v.SetDefault("tcp.addr", ":4001")
	v.SetDefault("tcp.readTimeout", "60s")
	v.SetDefault("tcp.maxConnections", 16)
	v.SetDefault("tcp.acceptRate", 10)
	v.SetDefault("tcp.acceptBurst", 20)

	v.SetDefault("decoder.queueSize", 0)
	v.SetDefault("decoder.maxFrameLen", 1024)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.minIdleConns", 2)
	v.SetDefault("redis.dialTimeout", "5s")
	v.SetDefault("redis.readTimeout", "3s")
	v.SetDefault("redis.writeTimeout", "3s")

	v.SetDefault("bridge.dataTopic", "/skyscan/gdl90/data")
	v.SetDefault("bridge.heartbeatTopic", "/skyscan/gdl90/heartbeat")
	v.SetDefault("bridge.heartbeatInterval", "10s")
	v.SetDefault("bridge.publishTimeout", "2s")
	v.SetDefault("bridge.breakerThreshold", 5)
	v.SetDefault("bridge.breakerCooldown", "30s")
}
