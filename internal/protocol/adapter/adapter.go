package adapter

// Adapter 字节源到协议解码的绑定接口：udpserver/tcpserver 每个输入源持有一个实例
// - Sniff 首包初判，仅用于诊断日志
// - ProcessBytes 处理原始字节流（内部负责半包/粘包）
type Adapter interface {
	Sniff(prefix []byte) bool
	ProcessBytes(p []byte) error
}
