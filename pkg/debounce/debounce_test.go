package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	d := New(30*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 10; i++ {
		d.Trigger()
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	d.Stop()
}

func TestDebouncer_FlushRunsPendingImmediately(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	d := New(time.Hour, func() { calls.Add(1) })

	d.Trigger()
	d.Flush()
	assert.Equal(t, int32(1), calls.Load())

	// nothing pending: no second call
	d.Flush()
	assert.Equal(t, int32(1), calls.Load())
	d.Stop()
}

func TestDebouncer_StopFlushesAndDisables(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	d := New(time.Hour, func() { calls.Add(1) })

	d.Trigger()
	d.Stop()
	assert.Equal(t, int32(1), calls.Load())

	d.Trigger()
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncer_ZeroDelayIsSynchronous(t *testing.T) {
	var calls atomic.Int32
	d := New(0, func() { calls.Add(1) })

	d.Trigger()
	d.Trigger()
	assert.Equal(t, int32(2), calls.Load())
}
