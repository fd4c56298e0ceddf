package join

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGroup_Empty(t *testing.T) {
	require.NoError(t, New().Wait())
}

func TestGroup_WaitsForAll(t *testing.T) {
	g := New()

	var finished atomic.Int32
	for i := range 10 {
		g.Add(1)
		go func() {
			time.Sleep(time.Duration(i) * time.Millisecond)
			finished.Add(1)
			g.Done(nil)
		}()
	}

	require.NoError(t, g.Wait())
	require.EqualValues(t, 10, finished.Load())
}

func TestGroup_FirstErrorAfterAllDone(t *testing.T) {
	g := New()

	errFirst := errors.New("first")
	var slowDone atomic.Bool

	g.Add(3)
	go g.Done(errFirst)
	go func() {
		time.Sleep(50 * time.Millisecond)
		g.Done(errors.New("second"))
	}()
	go func() {
		time.Sleep(100 * time.Millisecond)
		slowDone.Store(true)
		g.Done(nil)
	}()

	err := g.Wait()
	require.True(t, slowDone.Load())
	require.ErrorIs(t, err, errFirst)
}

func TestGroup_Reuse(t *testing.T) {
	g := New()

	g.Add(1)
	g.Done(nil)
	require.NoError(t, g.Wait())

	g.Add(1)
	released := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("Wait returned before Done")
	case <-time.After(20 * time.Millisecond):
	}

	g.Done(nil)
	<-released
}

func TestGroup_NegativeCounter(t *testing.T) {
	require.Panics(t, func() {
		New().Done(nil)
	})
}
