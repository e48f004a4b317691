package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmzelLab/fiesta3/internal/request"
)

func TestPoolDeliversCallbackExactlyOnceOnSuccess(t *testing.T) {
	a := assert.New(t)

	p := New(2, nil)
	defer p.Close()

	var mu sync.Mutex
	calls := 0
	done := make(chan Result, 1)

	req := request.NewGeneralRequest(func(ctx context.Context, args ...any) (any, error) {
		return "ok", nil
	})

	p.Perform(context.Background(), req, func(r Result) {
		mu.Lock()
		calls++
		mu.Unlock()
		done <- r
	})

	select {
	case r := <-done:
		a.NoError(r.Err)
		a.Equal("ok", r.Value)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	a.Equal(1, calls)
}

func TestPoolDeliversCallbackOnFailureToo(t *testing.T) {
	a := assert.New(t)

	p := New(1, nil)
	defer p.Close()

	done := make(chan Result, 1)
	req := request.NewGeneralRequest(func(ctx context.Context, args ...any) (any, error) {
		return nil, assert.AnError
	})

	p.Perform(context.Background(), req, func(r Result) { done <- r })

	select {
	case r := <-done:
		a.Error(r.Err)
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	require := require.New(t)

	p := New(1, nil)
	p.Close()
	require.NotPanics(func() { p.Close() })
}

func TestNewDefaultsWorkerCount(t *testing.T) {
	a := assert.New(t)

	p := New(0, nil)
	defer p.Close()
	a.Equal(DefaultWorkers*4, cap(p.jobs))
}
