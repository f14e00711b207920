package scheduler

import (
	"sort"
	"sync"

	"github.com/lorekeep/lorekeep/internal/entity"
)

// queue is the in-memory dissolution candidate queue. Upserts are keyed by
// (tenant, uid) so re-running a scan refreshes entries instead of
// duplicating them; snapshots are ordered by deadline ascending.
type queue struct {
	mu      sync.Mutex
	entries map[queueKey]entity.DissolutionCandidate
}

type queueKey struct {
	tenantID string
	uid      string
}

func newQueue() *queue {
	return &queue{entries: make(map[queueKey]entity.DissolutionCandidate)}
}

func (q *queue) Upsert(c entity.DissolutionCandidate) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries[queueKey{tenantID: c.TenantID, uid: c.UID}] = c
}

// PruneExcept drops every entry whose key is not in keep. Scans call it
// with the current due set so entities that were reopened, dissolved or
// prevented outside the scheduler do not linger as phantom candidates.
func (q *queue) PruneExcept(keep map[queueKey]struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for key := range q.entries {
		if _, ok := keep[key]; !ok {
			delete(q.entries, key)
		}
	}
}

func (q *queue) Remove(tenantID, uid string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.entries, queueKey{tenantID: tenantID, uid: uid})
}

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.entries)
}

// Snapshot returns the current candidates ordered by scheduled_for
// ascending, with uid as the tie breaker so the order is stable.
func (q *queue) Snapshot() []entity.DissolutionCandidate {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]entity.DissolutionCandidate, 0, len(q.entries))
	for _, c := range q.entries {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledFor.Equal(out[j].ScheduledFor) {
			return out[i].UID < out[j].UID
		}

		return out[i].ScheduledFor.Before(out[j].ScheduledFor)
	})

	return out
}
