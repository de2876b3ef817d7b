package gdl90

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// collector 记录回调收到的消息
type collector struct{ msgs []Message }

func (c *collector) handle(m Message) { c.msgs = append(c.msgs, m) }

func newTestDecoder(t *testing.T) (*Decoder, *collector) {
	c := &collector{}
	return NewDecoder(WithHandler(c.handle), WithLogger(zaptest.NewLogger(t))), c
}

func heartbeatBody(ts uint32) []byte {
	return []byte{TypeHeartbeat, 0x81, 0x01 | byte(ts>>16&1)<<7, byte(ts), byte(ts >> 8), 0x00, 0x00}
}

// frameWithCRC 使用指定校验值组帧（用于构造校验错误）
func frameWithCRC(body []byte, crc uint16) []byte {
	payload := append(append([]byte{}, body...), byte(crc), byte(crc>>8))
	out := append([]byte{flagByte}, Escape(payload)...)
	return append(out, flagByte)
}

func testStream(t *testing.T) []byte {
	var s []byte
	s = append(s, Frame(heartbeatBody(100))...)
	s = append(s, Frame(icdTrafficBody(t))...)
	s = append(s, Frame([]byte{TypeOwnshipGeoAltitude, 0x01, 0xF4, 0x00, 0x0A})...)
	// 时间戳包含 0x7E/0x7D，需要转义
	s = append(s, Frame(heartbeatBody(0x7D7E))...)
	s = append(s, Frame(heartbeatBody(0x1_0000))...)
	return s
}

func TestDecoder_SingleFrame(t *testing.T) {
	d, c := newTestDecoder(t)
	d.Ingest(Frame(icdHeartbeat))

	require.Len(t, c.msgs, 1)
	assert.Equal(t, uint32(0xD0DB), c.msgs[0].(Heartbeat).TimeStamp)
	assert.True(t, d.Synchronized())
	assert.Zero(t, d.Buffered())

	st := d.Stats()
	assert.Equal(t, TypeCounts{Success: 1}, st.Types[TypeHeartbeat])
	assert.Equal(t, uint64(1), st.Attempts)
	assert.Equal(t, uint64(1), st.Messages)
	assert.Equal(t, uint64(1), st.Resyncs) // 构造时即为失步状态
}

func TestDecoder_EmptyAndTinyInput(t *testing.T) {
	d, c := newTestDecoder(t)
	d.Ingest(nil)
	d.Ingest([]byte{})
	d.Ingest([]byte{flagByte})
	assert.Empty(t, c.msgs)
	assert.False(t, d.Synchronized())
	assert.Equal(t, 1, d.Buffered())
}

func TestDecoder_ChunkingIndependence(t *testing.T) {
	stream := testStream(t)

	whole, wc := newTestDecoder(t)
	whole.Ingest(stream)
	require.Len(t, wc.msgs, 5)

	bytewise, bc := newTestDecoder(t)
	for i := range stream {
		bytewise.Ingest(stream[i : i+1])
	}
	assert.Equal(t, wc.msgs, bc.msgs)

	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		d, c := newTestDecoder(t)
		rest := stream
		for len(rest) > 0 {
			n := 1 + rng.Intn(17)
			if n > len(rest) {
				n = len(rest)
			}
			d.Ingest(rest[:n])
			rest = rest[n:]
		}
		assert.Equal(t, wc.msgs, c.msgs, "round %d", round)
		assert.Equal(t, whole.Stats(), d.Stats(), "round %d", round)
	}
}

func TestDecoder_CRCGating(t *testing.T) {
	d, c := newTestDecoder(t)
	d.Ingest(Frame(icdHeartbeat))
	before := d.Stats()

	body := icdTrafficBody(t)
	d.Ingest(frameWithCRC(body, CRC16(body)^0x0101))

	after := d.Stats()
	assert.Len(t, c.msgs, 1)
	assert.Equal(t, before.Types[TypeTrafficReport].Failure+1, after.Types[TypeTrafficReport].Failure)
	assert.Zero(t, after.Types[TypeTrafficReport].Success)
	assert.Equal(t, before.Types[TypeHeartbeat], after.Types[TypeHeartbeat])
	assert.Equal(t, before.Malformed, after.Malformed)
	assert.Equal(t, before.Resyncs, after.Resyncs)
	assert.Equal(t, before.Messages, after.Messages)
}

func TestDecoder_Ordering(t *testing.T) {
	d, c := newTestDecoder(t)
	var s []byte
	for _, ts := range []uint32{1, 2, 3} {
		s = append(s, Frame(heartbeatBody(ts))...)
	}
	d.Ingest(s)

	require.Len(t, c.msgs, 3)
	for i, m := range c.msgs {
		assert.Equal(t, uint32(i+1), m.(Heartbeat).TimeStamp)
	}
}

func TestDecoder_ResyncOnNoise(t *testing.T) {
	d, c := newTestDecoder(t)
	d.Ingest(Frame(heartbeatBody(1)))
	require.Len(t, c.msgs, 1)
	require.Equal(t, uint64(1), d.Stats().Resyncs)

	rng := rand.New(rand.NewSource(3))
	for chunk := 0; chunk < 5; chunk++ {
		noise := make([]byte, 40)
		for i := range noise {
			b := byte(rng.Intn(256))
			if b == flagByte {
				b = 0x00
			}
			noise[i] = b
		}
		d.Ingest(noise)
	}
	assert.Len(t, c.msgs, 1, "no notifications during noise")
	assert.Equal(t, uint64(2), d.Stats().Resyncs, "one resync for the noise episode")
	assert.False(t, d.Synchronized())

	d.Ingest(Frame(heartbeatBody(2)))
	d.Ingest(Frame(heartbeatBody(3)))
	require.Len(t, c.msgs, 3)
	assert.Equal(t, uint32(3), c.msgs[2].(Heartbeat).TimeStamp)
	assert.Equal(t, uint64(2), d.Stats().Resyncs)
}

func TestDecoder_AdjacentFramesShareNoEmptyFrame(t *testing.T) {
	d, c := newTestDecoder(t)
	a := Frame(heartbeatBody(10))
	b := Frame(heartbeatBody(11))
	d.Ingest(append(append([]byte{}, a...), b...))

	require.Len(t, c.msgs, 2)
	st := d.Stats()
	assert.Equal(t, uint64(2), st.Attempts)
	assert.Zero(t, st.Malformed)
	assert.Zero(t, st.Failures())
}

func TestDecoder_SplitFrameReassembly(t *testing.T) {
	f := Frame(icdTrafficBody(t))

	single, sc := newTestDecoder(t)
	single.Ingest(f)

	d, c := newTestDecoder(t)
	d.Ingest(f[:len(f)/2])
	assert.Empty(t, c.msgs)
	d.Ingest(f[len(f)/2:])

	require.Len(t, c.msgs, 1)
	assert.Equal(t, sc.msgs, c.msgs)
}

func TestDecoder_UnrecognizedType(t *testing.T) {
	d, c := newTestDecoder(t)
	d.Ingest(Frame([]byte{0x65, 0x01, 0x02}))

	assert.Empty(t, c.msgs)
	st := d.Stats()
	assert.Equal(t, TypeCounts{Success: 1}, st.Types[0x65])
	assert.Zero(t, st.Messages)
}

func TestDecoder_MalformedEscape(t *testing.T) {
	d, c := newTestDecoder(t)
	d.Ingest([]byte{flagByte, 0x00, 0x01, escapeByte, flagByte})

	assert.Empty(t, c.msgs)
	st := d.Stats()
	assert.Equal(t, uint64(1), st.Malformed)
	assert.Equal(t, uint64(1), st.Attempts)
	assert.Empty(t, st.Types)
}

func TestDecoder_TooShortFrame(t *testing.T) {
	d, c := newTestDecoder(t)
	d.Ingest([]byte{flagByte, 0x14, 0x00, flagByte})

	assert.Empty(t, c.msgs)
	assert.Equal(t, TypeCounts{Failure: 1}, d.Stats().Types[TypeTrafficReport])
}

func TestDecoder_ShortBodyForKnownType(t *testing.T) {
	d, c := newTestDecoder(t)
	d.Ingest(Frame([]byte{TypeTrafficReport, 0x00, 0x01}))

	assert.Empty(t, c.msgs)
	// CRC 正确，计为成功，但不产生消息
	assert.Equal(t, TypeCounts{Success: 1}, d.Stats().Types[TypeTrafficReport])
}

func TestDecoder_UnterminatedFrameLimit(t *testing.T) {
	d, c := newTestDecoder(t)
	junk := make([]byte, DefaultMaxFrameLen+10)
	junk[0] = flagByte
	for i := 1; i < len(junk); i++ {
		junk[i] = 0x55
	}
	d.Ingest(Frame(heartbeatBody(1)))
	d.Ingest(junk)
	assert.Zero(t, d.Buffered())
	assert.Equal(t, uint64(2), d.Stats().Resyncs)

	d.Ingest(Frame(heartbeatBody(2)))
	require.Len(t, c.msgs, 2)
}

func TestDecoder_SetHandlerReplaces(t *testing.T) {
	d, first := newTestDecoder(t)
	second := &collector{}
	d.Ingest(Frame(heartbeatBody(1)))
	d.SetHandler(second.handle)
	d.Ingest(Frame(heartbeatBody(2)))

	assert.Len(t, first.msgs, 1)
	assert.Len(t, second.msgs, 1)
}

func TestDecoder_IndependentInstances(t *testing.T) {
	a, ac := newTestDecoder(t)
	b, bc := newTestDecoder(t)
	f := Frame(heartbeatBody(5))
	a.Ingest(f[:4])
	b.Ingest(f)
	a.Ingest(f[4:])

	assert.Len(t, ac.msgs, 1)
	assert.Len(t, bc.msgs, 1)
	assert.Equal(t, a.Stats(), b.Stats())
}

// 随机噪声：不 panic，且每个候选帧恰好计一次
func TestDecoder_RandomNoiseAccounting(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	d, c := newTestDecoder(t)
	stream := make([]byte, 0, 20000)
	for len(stream) < 20000 {
		if rng.Intn(5) == 0 {
			stream = append(stream, Frame(heartbeatBody(uint32(rng.Intn(86400))))...)
			continue
		}
		n := rng.Intn(50)
		for i := 0; i < n; i++ {
			stream = append(stream, byte(rng.Intn(256)))
		}
	}
	rest := stream
	for len(rest) > 0 {
		n := 1 + rng.Intn(200)
		if n > len(rest) {
			n = len(rest)
		}
		d.Ingest(rest[:n])
		rest = rest[n:]
	}

	st := d.Stats()
	var counted uint64
	for _, tc := range st.Types {
		counted += tc.Success + tc.Failure
	}
	assert.Equal(t, st.Attempts, counted+st.Malformed)
	assert.Equal(t, uint64(len(c.msgs)), st.Messages)
	assert.NotEmpty(t, c.msgs)
}

type countingObserver struct {
	frames  map[Result]int
	resyncs int
}

func (o *countingObserver) OnFrame(_ int, r Result) { o.frames[r]++ }
func (o *countingObserver) OnResync()               { o.resyncs++ }

func TestDecoder_Observer(t *testing.T) {
	obs := &countingObserver{frames: map[Result]int{}}
	d := NewDecoder(WithObserver(obs))
	body := icdTrafficBody(t)

	var s []byte
	s = append(s, Frame(icdHeartbeat)...)
	s = append(s, frameWithCRC(body, 0)...)
	s = append(s, Frame([]byte{0x65, 0x00, 0x00})...)
	s = append(s, flagByte, 0x01, escapeByte, flagByte)
	d.Ingest(s)

	assert.Equal(t, 1, obs.frames[ResultOK])
	assert.Equal(t, 1, obs.frames[ResultCRC])
	assert.Equal(t, 1, obs.frames[ResultUnknownType])
	assert.Equal(t, 1, obs.frames[ResultMalformed])
	assert.Equal(t, 1, obs.resyncs)
}

func FuzzDecoderIngest(f *testing.F) {
	f.Add(Frame(icdHeartbeat))
	f.Add([]byte{flagByte, escapeByte, flagByte})
	f.Add([]byte{0x00, flagByte, flagByte, 0x14})
	f.Fuzz(func(t *testing.T, data []byte) {
		d := NewDecoder(WithHandler(func(Message) {}))
		d.Ingest(data)
		d.Ingest(data)
		st := d.Stats()
		var counted uint64
		for _, tc := range st.Types {
			counted += tc.Success + tc.Failure
		}
		if st.Attempts != counted+st.Malformed {
			t.Fatalf("attempts=%d counted=%d malformed=%d", st.Attempts, counted, st.Malformed)
		}
	})
}
