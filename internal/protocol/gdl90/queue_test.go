package gdl90

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PreservesOrderWithSlowConsumer(t *testing.T) {
	var mu sync.Mutex
	var got []uint32
	q := NewQueue(2, func(m Message) {
		time.Sleep(time.Millisecond)
		mu.Lock()
		got = append(got, m.(Heartbeat).TimeStamp)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	d := NewDecoder(WithHandler(q.Handler()))
	for ts := uint32(0); ts < 20; ts++ {
		d.Ingest(Frame(heartbeatBody(ts)))
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 20
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	for i, ts := range got {
		assert.Equal(t, uint32(i), ts)
	}
	assert.Zero(t, q.Dropped())
}

func TestQueue_CloseDrainsAndDrops(t *testing.T) {
	var got []Message
	q := NewQueue(4, func(m Message) { got = append(got, m) })
	h := q.Handler()
	h(Heartbeat{TimeStamp: 1})
	h(Heartbeat{TimeStamp: 2})
	assert.Equal(t, 2, q.Len())

	q.Close()
	h(Heartbeat{TimeStamp: 3})
	q.Run(context.Background())

	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), q.Dropped())
	q.Close()
}

func TestQueue_CancelStopsProducersBlocking(t *testing.T) {
	q := NewQueue(1, func(Message) {})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	entered := make(chan struct{})
	go func() {
		h := q.Handler()
		h(Heartbeat{TimeStamp: 1})
		h(Heartbeat{TimeStamp: 2})
		h(Heartbeat{TimeStamp: 3})
		close(entered)
	}()
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("入队在消费者退出后阻塞")
	}
	assert.Equal(t, uint64(3), q.Dropped())
}
