package util

import (
	"sync"
	"sync/atomic"
	"testing"
)

// TestSafeGo_RecoversPanics 字符串 / 非字符串 panic 都不应扩散到进程。
func TestSafeGo_RecoversPanics(t *testing.T) {
	for _, v := range []any{"render panic", 42, struct{}{}} {
		var wg sync.WaitGroup
		wg.Add(1)
		SafeGo(func() {
			defer wg.Done()
			panic(v)
		})
		wg.Wait()
	}
}

func TestSafeGo_RunsEveryFunc(t *testing.T) {
	const n = 64
	var counter atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		SafeGo(func() {
			defer wg.Done()
			counter.Add(1)
		})
	}
	wg.Wait()
	if got := counter.Load(); got != n {
		t.Errorf("SafeGo executed %d/%d", got, n)
	}
}
