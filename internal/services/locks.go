package services

import (
	"hash/fnv"
	"sync"
)

// sessionLocks serializes load-mutate-save cycles per session. Sessions
// hash onto a fixed set of stripes, so unrelated sessions rarely contend.
type sessionLocks struct {
	stripes [64]sync.Mutex
}

func (l *sessionLocks) lock(sid string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sid))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m.Unlock
}
