package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"
)

type fixedGuard struct{ state gobreaker.State }

func (g fixedGuard) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
func (g fixedGuard) State() gobreaker.State                                          { return g.state }

func TestReadyReflectsBreakerState(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		state gobreaker.State
		code  int
	}{
		{gobreaker.StateClosed, http.StatusOK},
		{gobreaker.StateHalfOpen, http.StatusOK},
		{gobreaker.StateOpen, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		h := NewHealthHandler(nil, fixedGuard{state: tc.state})
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/readyz", nil)
		h.Ready(c)
		if rec.Code != tc.code {
			t.Fatalf("%s: status=%d want=%d", tc.state, rec.Code, tc.code)
		}
	}
}
