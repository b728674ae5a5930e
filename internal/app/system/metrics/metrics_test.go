package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPlatformCollector(t *testing.T) {
	c := NewPlatformCollector(func(ctx context.Context) Counts {
		return Counts{Students: 4, Alumni: 2, Incomplete: 1, Connections: 3, Pending: 1, Conversations: 2, Messages: 9}
	}, time.Second)

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	expected := `
# HELP mentorconnect_platform_messages Stored messages.
# TYPE mentorconnect_platform_messages gauge
mentorconnect_platform_messages 9
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "mentorconnect_platform_messages"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	if n := testutil.CollectAndCount(c); n != 7 {
		t.Errorf("CollectAndCount = %d, want 7", n)
	}
}

func TestConnectionActionsCounter(t *testing.T) {
	before := testutil.ToFloat64(ConnectionActions.WithLabelValues("request", "changed"))
	ConnectionActions.WithLabelValues("request", "changed").Inc()
	after := testutil.ToFloat64(ConnectionActions.WithLabelValues("request", "changed"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestHandler_Token(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{"open when unset", "", "", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"right token", "s3cret", "Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			Handler(tt.token).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
