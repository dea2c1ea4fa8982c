package clients

import (
	"sync"
	"time"
)

// nonceSource hands out strictly increasing microsecond nonces.
type nonceSource struct {
	mu   sync.Mutex
	last int64
}

func (n *nonceSource) next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := time.Now().UnixMicro()
	if now <= n.last {
		now = n.last + 1
	}
	n.last = now
	return now
}
