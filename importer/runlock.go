package importer

import "sync"

// In-process generation guard. The distributed lock in utils.ObtainRunLock
// fences other instances; this map fences goroutines inside this one, so a
// double-clicked generate never races itself before Redis is even consulted.
var (
	generatingMu sync.Mutex
	generating   = make(map[int]bool)
)

func tryAcquireRun(runId int) bool {
	generatingMu.Lock()
	defer generatingMu.Unlock()
	if generating[runId] {
		return false
	}
	generating[runId] = true
	return true
}

func releaseRun(runId int) {
	generatingMu.Lock()
	defer generatingMu.Unlock()
	delete(generating, runId)
}
