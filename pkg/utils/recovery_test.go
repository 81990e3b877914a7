package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSafeGo_RunsFunction(t *testing.T) {
	done := make(chan struct{})

	SafeGo(func() { close(done) }, nil)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine never ran")
	}
}

func TestSafeGo_PanicReachesHandler(t *testing.T) {
	recovered := make(chan interface{}, 1)
	stacks := make(chan []byte, 1)

	SafeGo(func() {
		panic("changefeed consumer blew up")
	}, func(r interface{}, stack []byte) {
		recovered <- r
		stacks <- stack
	})

	select {
	case r := <-recovered:
		assert.Equal(t, "changefeed consumer blew up", r)
		assert.NotEmpty(t, <-stacks)
	case <-time.After(2 * time.Second):
		t.Fatal("panic handler never invoked")
	}
}

func TestSafeGo_PanicWithoutHandlerDoesNotCrash(t *testing.T) {
	done := make(chan struct{})

	SafeGo(func() {
		defer close(done)
		panic("unhandled")
	}, nil)

	// Reaching the receive means the panic was contained.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine never finished")
	}
}
