package agent

import (
	"sync"
	"sync/atomic"

	"github.com/PratikDhanave/bm-echo-agent/internal/models"
)

// Stats counts deliveries by outcome since process start.
type Stats struct {
	deliveries    atomic.Int64
	ignored       atomic.Int64
	duplicates    atomic.Int64
	userStatus    atomic.Int64
	replies       atomic.Int64
	sendFailures  atomic.Int64
	dedupFailures atomic.Int64

	mu      sync.Mutex
	actions map[models.Action]int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Deliveries    int64                   `json:"deliveries"`
	Ignored       int64                   `json:"ignored"`
	Duplicates    int64                   `json:"duplicates"`
	UserStatus    int64                   `json:"user_status"`
	Replies       int64                   `json:"replies"`
	SendFailures  int64                   `json:"send_failures"`
	DedupFailures int64                   `json:"dedup_failures"`
	Actions       map[models.Action]int64 `json:"actions"`
}

func newStats() *Stats {
	return &Stats{actions: map[models.Action]int64{}}
}

func (s *Stats) countAction(action models.Action) {
	s.mu.Lock()
	s.actions[action]++
	s.mu.Unlock()
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	actions := make(map[models.Action]int64, len(s.actions))
	for k, v := range s.actions {
		actions[k] = v
	}
	s.mu.Unlock()

	return Snapshot{
		Deliveries:    s.deliveries.Load(),
		Ignored:       s.ignored.Load(),
		Duplicates:    s.duplicates.Load(),
		UserStatus:    s.userStatus.Load(),
		Replies:       s.replies.Load(),
		SendFailures:  s.sendFailures.Load(),
		DedupFailures: s.dedupFailures.Load(),
		Actions:       actions,
	}
}
