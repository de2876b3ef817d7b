package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUDP struct {
	listening bool
	last      time.Time
}

func (f fakeUDP) Listening() bool         { return f.listening }
func (f fakeUDP) LastDatagram() time.Time { return f.last }

type fakeTCP struct {
	active   int
	limit    int
	rejected uint64
}

func (f fakeTCP) ActiveConnections() int { return f.active }
func (f fakeTCP) MaxConnections() int    { return f.limit }
func (f fakeTCP) RejectedTotal() uint64  { return f.rejected }

func TestUDPChecker(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		src  fakeUDP
		want Status
	}{
		{"未监听", fakeUDP{listening: false}, StatusUnhealthy},
		{"从未收到数据", fakeUDP{listening: true}, StatusDegraded},
		{"数据过期", fakeUDP{listening: true, last: now.Add(-time.Minute)}, StatusDegraded},
		{"数据新鲜", fakeUDP{listening: true, last: now.Add(-time.Second)}, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewUDPChecker(tt.src, 30*time.Second)
			c.now = func() time.Time { return now }
			assert.Equal(t, tt.want, c.Check(context.Background()).Status)
		})
	}

	t.Run("不做静默判断", func(t *testing.T) {
		c := NewUDPChecker(fakeUDP{listening: true}, 0)
		assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)
	})
}

func TestTCPChecker(t *testing.T) {
	r := NewTCPChecker(fakeTCP{active: 3}).Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Equal(t, "no limiting enabled", r.Message)

	r = NewTCPChecker(fakeTCP{active: 2, limit: 4}).Check(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)

	r = NewTCPChecker(fakeTCP{active: 4, limit: 4, rejected: 7}).Check(context.Background())
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, uint64(7), r.Details["rejected_total"])
}

func TestHTTPRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("就绪", func(t *testing.T) {
		r := gin.New()
		RegisterHTTPRoutes(r, NewAggregator(&mockChecker{"udp", StatusHealthy}))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Status Status                 `json:"status"`
			Checks map[string]CheckResult `json:"checks"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, StatusHealthy, body.Status)
		assert.Contains(t, body.Checks, "udp")
	})

	t.Run("不健康", func(t *testing.T) {
		r := gin.New()
		RegisterHTTPRoutes(r, NewAggregator(&mockChecker{"udp", StatusUnhealthy}))

		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		rr = httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestReadiness(t *testing.T) {
	r := New()
	assert.False(t, r.Ready())
	r.SetUDPReady(true)
	assert.False(t, r.Ready())
	r.SetBusReady(true)
	assert.True(t, r.Ready())
}
