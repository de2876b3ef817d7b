package tcpserver

import (
	"testing"
	"time"
)

func TestConnectionLimiter(t *testing.T) {
	t.Run("基本限流功能", func(t *testing.T) {
		limiter := NewConnectionLimiter(2)

		if !limiter.TryAcquire() || !limiter.TryAcquire() {
			t.Fatal("前2次获取应该成功")
		}
		if limiter.TryAcquire() {
			t.Fatal("第3次获取应该失败")
		}
		if limiter.RejectedCount() != 1 {
			t.Errorf("期望拒绝1次，实际: %d", limiter.RejectedCount())
		}

		limiter.Release()
		if !limiter.TryAcquire() {
			t.Fatal("释放后获取失败")
		}
		if limiter.Current() != 2 {
			t.Errorf("期望2个活跃连接，实际: %d", limiter.Current())
		}
	})

	t.Run("不限连接数", func(t *testing.T) {
		limiter := NewConnectionLimiter(0)
		for i := 0; i < 100; i++ {
			if !limiter.TryAcquire() {
				t.Fatalf("第%d次获取不应失败", i+1)
			}
		}
		if limiter.MaxConnections() != 0 {
			t.Errorf("期望0，实际: %d", limiter.MaxConnections())
		}
	})
}

func TestRateLimiter(t *testing.T) {
	t.Run("速率限流", func(t *testing.T) {
		limiter := NewRateLimiter(10, 20) // 每秒10个，突发20个

		for i := 0; i < 20; i++ {
			if !limiter.Allow() {
				t.Fatalf("突发第%d个请求被拒绝", i+1)
			}
		}
		if limiter.Allow() {
			t.Fatal("第21个请求应该被拒绝")
		}
		if limiter.RejectedCount() != 1 {
			t.Errorf("期望拒绝1次，实际: %d", limiter.RejectedCount())
		}

		// 100ms 补充1个token
		time.Sleep(150 * time.Millisecond)
		if !limiter.Allow() {
			t.Fatal("等待后的请求应该成功")
		}
	})

	t.Run("不限速", func(t *testing.T) {
		limiter := NewRateLimiter(0, 0)
		for i := 0; i < 1000; i++ {
			if !limiter.Allow() {
				t.Fatal("不限速时不应拒绝")
			}
		}
	})
}
