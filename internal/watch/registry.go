// Package watch polls the torrent service and maintains live per-torrent
// state: a registry poller for the torrent list and one tracker per torrent
// for details and stats. Each piece of state has exactly one writer; readers
// get snapshots.
package watch

import (
	"context"
	"sync"
	"time"

	"rqwatch/internal/api"
	"rqwatch/internal/log"
	"rqwatch/internal/poll"
)

// Registry polls the torrent list endpoint forever and keeps the tracker
// arena in sync with it: a torrent appearing in the list gets a tracker, a
// torrent vanishing from it gets its tracker stopped and removed.
type Registry struct {
	client    *api.Client
	intervals Intervals
	onChange  func()

	mu       sync.RWMutex
	loading  bool
	lastErr  error
	order    []int64
	trackers map[int64]*Tracker

	ctx      context.Context
	sched    *poll.Scheduler
	stopChan chan struct{}
	stopOnce sync.Once
}

// Snapshot is a read-only view of the registry and all tracked torrents,
// in server order. Err is the last list-refresh failure and is cleared by
// the next successful refresh; the torrent list itself is never blanked by
// a failure.
type Snapshot struct {
	Loading  bool
	Err      error
	Torrents []TrackerSnapshot
}

// NewRegistry creates a registry poller. It does not poll until Start is
// called. onChange, if non-nil, is invoked after every state change; it must
// be cheap and non-blocking.
func NewRegistry(client *api.Client, intervals Intervals, onChange func()) *Registry {
	return &Registry{
		client:    client,
		intervals: intervals,
		onChange:  onChange,
		trackers:  make(map[int64]*Tracker),
		stopChan:  make(chan struct{}),
	}
}

// Start begins polling. The context is handed to every request; cancelling
// it aborts in-flight requests on shutdown.
func (r *Registry) Start(ctx context.Context) {
	r.ctx = ctx
	r.sched = poll.NewScheduler(ctx, "registry", r.tick)
	log.Info("registry").Msg("Started torrent list polling")
}

// Stop halts the registry and all trackers it owns.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		if r.sched != nil {
			r.sched.Stop()
		}

		r.mu.Lock()
		trackers := make([]*Tracker, 0, len(r.trackers))
		for _, tr := range r.trackers {
			trackers = append(trackers, tr)
		}
		r.trackers = make(map[int64]*Tracker)
		r.order = nil
		r.mu.Unlock()

		for _, tr := range trackers {
			tr.Stop()
		}

		log.Info("registry").Msg("Stopped torrent list polling")
	})
}

func (r *Registry) stopped() bool {
	select {
	case <-r.stopChan:
		return true
	default:
		return false
	}
}

// tick refreshes the torrent list once and returns the delay before the next
// refresh: fast after success, slow after failure.
func (r *Registry) tick(ctx context.Context) time.Duration {
	r.mu.Lock()
	r.loading = true
	r.mu.Unlock()

	list, err := r.client.ListTorrents(ctx)
	if r.stopped() {
		return r.intervals.RegistryError
	}

	if err != nil {
		r.mu.Lock()
		r.loading = false
		r.lastErr = err
		r.mu.Unlock()

		log.Warn("registry").
			Err(err).
			Msg("Torrent list refresh failed, keeping previous list")

		r.notify()
		return r.intervals.RegistryError
	}

	r.apply(ctx, list)
	return r.intervals.RegistryOK
}

// apply replaces the torrent list and diffs it against the tracker arena.
func (r *Registry) apply(ctx context.Context, list *api.TorrentList) {
	var stale []*Tracker
	added := 0

	r.mu.Lock()
	r.loading = false
	r.lastErr = nil

	live := make(map[int64]bool, len(list.Torrents))
	order := make([]int64, 0, len(list.Torrents))
	for _, id := range list.Torrents {
		live[id.ID] = true
		order = append(order, id.ID)
		if _, ok := r.trackers[id.ID]; !ok {
			r.trackers[id.ID] = newTracker(ctx, r.client, id, r.intervals, r.onChange)
			added++
		}
	}
	for id, tr := range r.trackers {
		if !live[id] {
			stale = append(stale, tr)
			delete(r.trackers, id)
		}
	}
	r.order = order
	r.mu.Unlock()

	for _, tr := range stale {
		tr.Stop()
	}

	if added > 0 || len(stale) > 0 {
		log.Info("registry").
			Int("torrents", len(order)).
			Int("added", added).
			Int("removed", len(stale)).
			Msg("Torrent list changed")
	}

	r.notify()
}

func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}

// Snapshot returns the current registry state with one entry per tracked
// torrent, in server order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	snap := Snapshot{
		Loading:  r.loading,
		Err:      r.lastErr,
		Torrents: make([]TrackerSnapshot, 0, len(r.order)),
	}
	trackers := make([]*Tracker, 0, len(r.order))
	for _, id := range r.order {
		if tr, ok := r.trackers[id]; ok {
			trackers = append(trackers, tr)
		}
	}
	r.mu.RUnlock()

	for _, tr := range trackers {
		snap.Torrents = append(snap.Torrents, tr.Snapshot())
	}
	return snap
}

// Tracker returns the tracker for a torrent id, if it is currently tracked.
func (r *Registry) Tracker(id int64) (*Tracker, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tr, ok := r.trackers[id]
	return tr, ok
}
