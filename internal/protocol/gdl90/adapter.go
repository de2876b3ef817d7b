package gdl90

import "sync"

// Adapter GDL-90 协议适配器：实现 protocol/adapter.Adapter。
// 对所属 Decoder 的 Ingest 与统计读取加锁串行化，可在读协程与 HTTP 协程间共享。
type Adapter struct {
	mu      sync.Mutex
	decoder *Decoder
}

func NewAdapter(d *Decoder) *Adapter { return &Adapter{decoder: d} }

// ProcessBytes 处理原始字节流（内部负责半包/粘包），不返回解码错误
func (a *Adapter) ProcessBytes(p []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decoder.Ingest(p)
	return nil
}

// Stats 统计快照
func (a *Adapter) Stats() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.decoder.Stats()
}

// Sniff 初判：前缀内出现 0x7E 定界符
func (a *Adapter) Sniff(prefix []byte) bool {
	for _, b := range prefix {
		if b == flagByte {
			return true
		}
	}
	return false
}
