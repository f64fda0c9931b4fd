package wakelock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	acquired atomic.Int32
	released atomic.Int32
	fail     error
	relErr   error
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Acquire(ctx context.Context) (Handle, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.acquired.Add(1)
	return fakeHandle{f}, nil
}

type fakeHandle struct{ f *fakeBackend }

func (h fakeHandle) Release(time.Duration) error {
	h.f.released.Add(1)
	return h.f.relErr
}

func TestControllerStartStop(t *testing.T) {
	b := &fakeBackend{}
	c := New(b)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Running())

	// Second start is a no-op.
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, int32(1), b.acquired.Load())

	require.NoError(t, c.Stop())
	assert.False(t, c.Running())
	require.NoError(t, c.Stop())
	assert.Equal(t, int32(1), b.released.Load())
}

func TestControllerStopWithoutStart(t *testing.T) {
	c := New(&fakeBackend{})
	assert.NoError(t, c.Stop())
	assert.NoError(t, c.Stop())
}

func TestControllerAcquireFailure(t *testing.T) {
	c := New(&fakeBackend{fail: ErrNotAvailable})

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotAvailable)
	assert.False(t, c.Running())
	assert.NoError(t, c.Stop())
}

func TestControllerClearsHandleOnReleaseFailure(t *testing.T) {
	boom := errors.New("boom")
	b := &fakeBackend{relErr: boom}
	c := New(b)

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Stop(), boom)
	assert.False(t, c.Running())
	assert.NoError(t, c.Stop())
	assert.Equal(t, int32(1), b.released.Load())
}

func TestControllerConcurrentStop(t *testing.T) {
	b := &fakeBackend{}
	c := New(b)
	require.NoError(t, c.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Stop()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), b.released.Load())
}

func TestUnavailableBackend(t *testing.T) {
	_, err := unavailableBackend{}.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrNotAvailable)
}

func TestProbe(t *testing.T) {
	assert.ErrorIs(t, Probe(context.Background(), unavailableBackend{}), ErrNotAvailable)

	// Backends without a probe are assumed usable.
	assert.NoError(t, Probe(context.Background(), &fakeBackend{}))
}
