package importer

import (
	"sync"
	"testing"
)

func TestRunLock_OnlyOneHolderPerRun(t *testing.T) {
	if !tryAcquireRun(42) {
		t.Fatal("first acquire should succeed")
	}
	if tryAcquireRun(42) {
		t.Fatal("second acquire on the same run should fail")
	}
	if !tryAcquireRun(43) {
		t.Fatal("different run should be independent")
	}
	releaseRun(42)
	releaseRun(43)
	if !tryAcquireRun(42) {
		t.Fatal("acquire after release should succeed")
	}
	releaseRun(42)
}

func TestRunLock_ConcurrentAcquireAdmitsExactlyOne(t *testing.T) {
	const goroutines = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tryAcquireRun(99) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	releaseRun(99)
}
