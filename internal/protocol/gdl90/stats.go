package gdl90

// Result 单帧处理结果
type Result string

const (
	ResultOK          Result = "ok"
	ResultCRC         Result = "crc"
	ResultShort       Result = "short"
	ResultMalformed   Result = "malformed"
	ResultUnknownType Result = "unknown_type"
	ResultDecodeError Result = "decode_error"
)

// TypeCounts 单类型计数
type TypeCounts struct {
	Success uint64 `json:"success"`
	Failure uint64 `json:"failure"`
}

// Snapshot 统计快照（只读副本）
type Snapshot struct {
	Types map[uint8]TypeCounts `json:"types"`
	// Malformed 无法确定类型 ID 的失败帧（转义畸形、空载荷）
	Malformed uint64 `json:"malformed"`
	Resyncs   uint64 `json:"resyncs"`
	Attempts  uint64 `json:"attempts"`
	Messages  uint64 `json:"messages"`
}

// stats 解码器内部计数，仅由所属 Decoder 修改
type stats struct {
	types     map[uint8]*TypeCounts
	malformed uint64
	resyncs   uint64
	attempts  uint64
	messages  uint64
}

func newStats() *stats { return &stats{types: make(map[uint8]*TypeCounts)} }

func (s *stats) entry(id uint8) *TypeCounts {
	c, ok := s.types[id]
	if !ok {
		c = &TypeCounts{}
		s.types[id] = c
	}
	return c
}

func (s *stats) success(id uint8) { s.entry(id).Success++ }
func (s *stats) failure(id uint8) { s.entry(id).Failure++ }

func (s *stats) snapshot() Snapshot {
	out := Snapshot{
		Types:     make(map[uint8]TypeCounts, len(s.types)),
		Malformed: s.malformed,
		Resyncs:   s.resyncs,
		Attempts:  s.attempts,
		Messages:  s.messages,
	}
	for id, c := range s.types {
		out.Types[id] = *c
	}
	return out
}

// Failures 汇总所有失败（含 Malformed）
func (s Snapshot) Failures() uint64 {
	n := s.Malformed
	for _, c := range s.Types {
		n += c.Failure
	}
	return n
}
