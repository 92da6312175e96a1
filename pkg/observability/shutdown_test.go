package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShutdownManager(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "with custom timeout", timeout: 2 * time.Second, expectedTimeout: 2 * time.Second},
		{name: "with zero timeout uses default", timeout: 0, expectedTimeout: DefaultShutdownTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := NewShutdownManager(nil, nil, tt.timeout)
			assert.Equal(t, tt.expectedTimeout, sm.timeout)
			assert.NotNil(t, sm.log)
		})
	}
}

func TestShutdownFunctionsRunInOrder(t *testing.T) {
	sm := NewShutdownManager(DiscardLogger(), nil, time.Second)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	require.NoError(t, sm.Shutdown())
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestShutdownCollectsErrors(t *testing.T) {
	sm := NewShutdownManager(DiscardLogger(), nil, time.Second)
	first := errors.New("first")
	second := errors.New("second")
	ran := false

	sm.RegisterShutdownFunc(func(context.Context) error { return first })
	sm.RegisterShutdownFunc(func(context.Context) error { ran = true; return nil })
	sm.RegisterShutdownFunc(func(context.Context) error { return second })

	err := sm.Shutdown()

	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.True(t, ran)
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServeStopsOnContextCancel(t *testing.T) {
	addr := freeAddr(t)
	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}
	sm := NewShutdownManager(DiscardLogger(), server, time.Second)

	cleaned := make(chan struct{})
	sm.RegisterShutdownFunc(func(context.Context) error {
		close(cleaned)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sm.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNoContent
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
	}
	<-cleaned
}

func TestServeReportsListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	sm := NewShutdownManager(DiscardLogger(), &http.Server{Addr: l.Addr().String()}, time.Second)

	err = sm.Serve(context.Background())

	assert.Error(t, err)
}
