package gdl90

import (
	"bytes"
	"errors"

	"go.uber.org/zap"
)

// NoTypeID 无法确定类型 ID 时传给 Observer 的值
const NoTypeID = -1

// DefaultMaxFrameLen 未闭合帧的缓冲上限：最长的 uplink 帧全部转义后约 880 字节
const DefaultMaxFrameLen = 1024

// Handler 消息回调，在 Ingest 调用方的 goroutine 内同步执行
type Handler func(Message)

// Observer 帧级事件钩子（用于指标镜像）
type Observer interface {
	OnFrame(typeID int, result Result)
	OnResync()
}

// Option 解码器选项
type Option func(*Decoder)

func WithHandler(h Handler) Option    { return func(d *Decoder) { d.handler = h } }
func WithRegistry(r *Registry) Option { return func(d *Decoder) { d.registry = r } }
func WithObserver(o Observer) Option  { return func(d *Decoder) { d.observer = o } }
func WithMaxFrameLen(n int) Option    { return func(d *Decoder) { d.maxFrameLen = n } }
func WithLogger(l *zap.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// Decoder GDL-90 流式解码器：缓冲拼接、失步重同步、定界切帧、去转义、CRC 校验、按类型分发。
// 每个输入源一个实例；Ingest 不可并发调用，调用方负责串行化。
type Decoder struct {
	buf    []byte
	synced bool
	// resyncing 一次重同步过程（可跨多次 Ingest）尚未结束
	resyncing   bool
	maxFrameLen int

	registry *Registry
	handler  Handler
	observer Observer
	logger   *zap.Logger
	stats    *stats
}

// NewDecoder 创建解码器，初始为失步状态
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		maxFrameLen: DefaultMaxFrameLen,
		logger:      zap.NewNop(),
		stats:       newStats(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.registry == nil {
		d.registry = DefaultRegistry()
	}
	return d
}

// SetHandler 替换消息回调
func (d *Decoder) SetHandler(h Handler) { d.handler = h }

// Stats 返回统计快照
func (d *Decoder) Stats() Snapshot { return d.stats.snapshot() }

// Synchronized 当前是否已同步
func (d *Decoder) Synchronized() bool { return d.synced }

// Buffered 尚未消费的字节数
func (d *Decoder) Buffered() int { return len(d.buf) }

// Ingest 追加数据并尽可能解出全部完整帧。数据不足时直接返回，任何输入都不会导致失败。
func (d *Decoder) Ingest(p []byte) {
	d.buf = append(d.buf, p...)
	for {
		raw, ok := d.next()
		if !ok {
			return
		}
		d.decodeFrame(raw)
	}
}

// next 切出下一个候选帧（不含定界符）；数据不足返回 false
func (d *Decoder) next() ([]byte, bool) {
	for {
		if !d.synced && !d.resync() {
			return nil, false
		}
		if len(d.buf) < 2 {
			return nil, false
		}
		if d.buf[0] != flagByte {
			d.logger.Debug("synchronization lost", zap.Uint8("head", d.buf[0]))
			d.synced = false
			continue
		}
		if d.buf[1] == flagByte {
			// 上一帧遗留的结束符紧跟下一帧起始符
			d.buf = d.buf[1:]
			continue
		}
		i := bytes.IndexByte(d.buf[1:], flagByte)
		if i < 0 {
			if d.maxFrameLen > 0 && len(d.buf) > d.maxFrameLen {
				d.logger.Debug("unterminated frame exceeds limit, resynchronizing", zap.Int("buffered", len(d.buf)))
				d.buf = d.buf[1:]
				d.synced = false
				continue
			}
			return nil, false
		}
		end := i + 1
		raw := d.buf[1:end]
		d.buf = d.buf[end+1:]
		return raw, true
	}
}

// resync 丢弃字节直至缓冲以定界符开头；缓冲不足2字节时返回 false 并保持失步
func (d *Decoder) resync() bool {
	if !d.resyncing {
		d.resyncing = true
		d.stats.resyncs++
		if d.observer != nil {
			d.observer.OnResync()
		}
	}
	for {
		if len(d.buf) < 2 {
			return false
		}
		if d.buf[0] == flagByte {
			if d.buf[1] == flagByte {
				d.buf = d.buf[1:]
			}
			d.synced = true
			d.resyncing = false
			return true
		}
		i := bytes.IndexByte(d.buf, flagByte)
		if i < 0 {
			i = len(d.buf)
		}
		d.buf = d.buf[i:]
	}
}

func (d *Decoder) decodeFrame(raw []byte) {
	d.stats.attempts++

	payload, err := Unescape(raw)
	if err != nil || len(payload) == 0 {
		d.stats.malformed++
		d.observe(NoTypeID, ResultMalformed)
		d.logger.Debug("malformed frame dropped", zap.Int("len", len(raw)))
		return
	}

	id := payload[0]
	body, err := VerifyCRC(payload)
	switch {
	case errors.Is(err, ErrFrameTooShort):
		d.stats.failure(id)
		d.observe(int(id), ResultShort)
		d.logger.Debug("short frame dropped", zap.Uint8("type", id), zap.Int("len", len(payload)))
		return
	case err != nil:
		d.stats.failure(id)
		d.observe(int(id), ResultCRC)
		d.logger.Debug("bad crc", zap.Uint8("type", id), zap.Int("len", len(payload)))
		return
	}
	d.stats.success(id)

	msg, err := d.registry.Decode(body)
	switch {
	case errors.Is(err, ErrUnknownType):
		d.observe(int(id), ResultUnknownType)
		d.logger.Info("unrecognized message type", zap.Uint8("type", id))
		return
	case err != nil:
		d.observe(int(id), ResultDecodeError)
		d.logger.Debug("decode failed", zap.Uint8("type", id), zap.Int("len", len(body)), zap.Error(err))
		return
	}

	d.stats.messages++
	d.observe(int(id), ResultOK)
	if d.handler != nil {
		d.handler(msg)
	}
}

func (d *Decoder) observe(id int, r Result) {
	if d.observer != nil {
		d.observer.OnFrame(id, r)
	}
}
