package watch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rqwatch/internal/api"
	"rqwatch/internal/log"
	"rqwatch/internal/poll"
)

// Tracker follows a single torrent for as long as it appears in the registry
// list. It runs two independent schedules: a retry loop that fetches the
// immutable details exactly once, and a stats poller that runs forever with
// an interval keyed on completion and failure.
type Tracker struct {
	id        api.TorrentID
	client    *api.Client
	intervals Intervals
	onChange  func()

	mu       sync.RWMutex
	details  *api.TorrentDetails
	stats    *api.TorrentStats
	statsErr error

	stopChan     chan struct{}
	stopOnce     sync.Once
	detailsRetry *poll.Retry
	statsSched   *poll.Scheduler
}

// TrackerSnapshot is a read-only view of a tracker's current state. Details
// is nil until the one-shot fetch succeeds; Stats is the last-known-good
// snapshot and survives poll failures.
type TrackerSnapshot struct {
	ID       api.TorrentID
	Details  *api.TorrentDetails
	Stats    *api.TorrentStats
	StatsErr error
}

func newTracker(ctx context.Context, client *api.Client, id api.TorrentID, intervals Intervals, onChange func()) *Tracker {
	t := &Tracker{
		id:        id,
		client:    client,
		intervals: intervals,
		onChange:  onChange,
		stopChan:  make(chan struct{}),
	}

	t.detailsRetry = poll.NewRetry(ctx, fmt.Sprintf("details-%d", id.ID), intervals.DetailsRetry, t.fetchDetails)
	t.statsSched = poll.NewScheduler(ctx, fmt.Sprintf("stats-%d", id.ID), t.fetchStats)

	log.Debug("tracker").
		Int64("id", id.ID).
		Str("info_hash", id.InfoHash).
		Msg("Tracking torrent")

	return t
}

// Stop tears the tracker down. An in-flight fetch is allowed to finish but
// its result is not applied.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() {
		close(t.stopChan)
		t.detailsRetry.Stop()
		t.statsSched.Stop()
		log.Debug("tracker").
			Int64("id", t.id.ID).
			Msg("Stopped tracking torrent")
	})
}

func (t *Tracker) stopped() bool {
	select {
	case <-t.stopChan:
		return true
	default:
		return false
	}
}

// fetchDetails is the one-shot details fetch. Once it succeeds the details
// are final for the torrent's lifetime.
func (t *Tracker) fetchDetails(ctx context.Context) error {
	details, err := t.client.TorrentDetails(ctx, t.id.ID)
	if err != nil {
		return err
	}
	if t.stopped() {
		return nil
	}

	t.mu.Lock()
	t.details = details
	t.mu.Unlock()

	log.Info("tracker").
		Int64("id", t.id.ID).
		Int("files", len(details.Files)).
		Msg("Torrent details resolved")

	t.notify()
	return nil
}

// fetchStats polls one stats snapshot and picks the next interval. The
// previous snapshot is fully replaced on success and retained on failure.
func (t *Tracker) fetchStats(ctx context.Context) time.Duration {
	stats, err := t.client.TorrentStats(ctx, t.id.ID)
	if t.stopped() {
		return t.intervals.StatsError
	}

	if err != nil {
		t.mu.Lock()
		t.statsErr = err
		t.mu.Unlock()

		log.Debug("tracker").
			Int64("id", t.id.ID).
			Err(err).
			Msg("Stats poll failed, keeping last snapshot")

		t.notify()
		return t.intervals.StatsError
	}

	t.mu.Lock()
	t.stats = stats
	t.statsErr = nil
	t.mu.Unlock()

	t.notify()
	return t.nextStatsInterval(stats)
}

// nextStatsInterval slows polling down once the torrent has all its bytes.
func (t *Tracker) nextStatsInterval(stats *api.TorrentStats) time.Duration {
	if stats.Complete() {
		return t.intervals.StatsComplete
	}
	return t.intervals.StatsActive
}

func (t *Tracker) notify() {
	if t.onChange != nil {
		t.onChange()
	}
}

// Snapshot returns the tracker's current state.
func (t *Tracker) Snapshot() TrackerSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TrackerSnapshot{
		ID:       t.id,
		Details:  t.details,
		Stats:    t.stats,
		StatsErr: t.statsErr,
	}
}
