package watch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"rqwatch/internal/api"
)

// fakeService serves the list, details and stats endpoints from a mutable
// torrent set.
type fakeService struct {
	mu       sync.Mutex
	torrents []api.TorrentID
	listErr  bool
}

func (f *fakeService) setTorrents(ids ...api.TorrentID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.torrents = ids
}

func (f *fakeService) setListErr(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = v
}

func (f *fakeService) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.URL.Path == "/torrents":
			if f.listErr {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"human_readable":"service restarting"}`))
				return
			}
			json.NewEncoder(w).Encode(api.TorrentList{Torrents: f.torrents})
		case strings.HasSuffix(r.URL.Path, "/stats"):
			w.Write([]byte(`{"have_bytes":0,"total_bytes":100}`))
		default:
			w.Write([]byte(`{"info_hash":"aa","files":[]}`))
		}
	})
}

func TestRegistryTickReplacesList(t *testing.T) {
	svc := &fakeService{}
	svc.setTorrents(api.TorrentID{ID: 1, InfoHash: "aa"}, api.TorrentID{ID: 2, InfoHash: "bb"})
	srv := httptest.NewServer(svc.handler())
	defer srv.Close()

	r := NewRegistry(api.NewClient(srv.URL), testIntervals(), nil)
	defer r.Stop()

	if got := r.tick(context.Background()); got != r.intervals.RegistryOK {
		t.Fatalf("successful refresh should use the fast interval, got %v", got)
	}

	snap := r.Snapshot()
	if snap.Err != nil {
		t.Fatalf("unexpected error: %v", snap.Err)
	}
	if len(snap.Torrents) != 2 {
		t.Fatalf("expected 2 torrents, got %d", len(snap.Torrents))
	}
	if snap.Torrents[0].ID.ID != 1 || snap.Torrents[1].ID.ID != 2 {
		t.Fatalf("server order not preserved: %+v", snap.Torrents)
	}
}

func TestRegistryFailureRetainsListAndBacksOff(t *testing.T) {
	svc := &fakeService{}
	svc.setTorrents(api.TorrentID{ID: 1, InfoHash: "aa"})
	srv := httptest.NewServer(svc.handler())
	defer srv.Close()

	r := NewRegistry(api.NewClient(srv.URL), testIntervals(), nil)
	defer r.Stop()

	r.tick(context.Background())

	svc.setListErr(true)
	if got := r.tick(context.Background()); got != r.intervals.RegistryError {
		t.Fatalf("failed refresh should use the slow interval, got %v", got)
	}

	snap := r.Snapshot()
	if snap.Err == nil {
		t.Fatal("refresh failure must be surfaced in the snapshot")
	}
	if len(snap.Torrents) != 1 {
		t.Fatalf("failure must not blank the torrent list, got %d entries", len(snap.Torrents))
	}

	// Next success clears the error.
	svc.setListErr(false)
	r.tick(context.Background())
	if snap := r.Snapshot(); snap.Err != nil {
		t.Fatalf("success must clear the refresh error, got %v", snap.Err)
	}
}

func TestRegistryDiffAddsAndRemovesTrackers(t *testing.T) {
	svc := &fakeService{}
	svc.setTorrents(api.TorrentID{ID: 1, InfoHash: "aa"}, api.TorrentID{ID: 2, InfoHash: "bb"})
	srv := httptest.NewServer(svc.handler())
	defer srv.Close()

	r := NewRegistry(api.NewClient(srv.URL), testIntervals(), nil)
	defer r.Stop()

	r.tick(context.Background())

	removed, ok := r.Tracker(2)
	if !ok {
		t.Fatal("expected a tracker for torrent 2")
	}

	// Torrent 2 vanishes, torrent 3 appears.
	svc.setTorrents(api.TorrentID{ID: 1, InfoHash: "aa"}, api.TorrentID{ID: 3, InfoHash: "cc"})
	r.tick(context.Background())

	if _, ok := r.Tracker(2); ok {
		t.Fatal("tracker for vanished torrent still registered")
	}
	if !removed.stopped() {
		t.Fatal("tracker for vanished torrent was not stopped")
	}
	if _, ok := r.Tracker(3); !ok {
		t.Fatal("expected a tracker for torrent 3")
	}

	snap := r.Snapshot()
	if len(snap.Torrents) != 2 {
		t.Fatalf("expected 2 torrents, got %d", len(snap.Torrents))
	}
	if snap.Torrents[0].ID.ID != 1 || snap.Torrents[1].ID.ID != 3 {
		t.Fatalf("unexpected order after diff: %+v", snap.Torrents)
	}
}

func TestRegistryTrackerSurvivesRefresh(t *testing.T) {
	svc := &fakeService{}
	svc.setTorrents(api.TorrentID{ID: 1, InfoHash: "aa"})
	srv := httptest.NewServer(svc.handler())
	defer srv.Close()

	r := NewRegistry(api.NewClient(srv.URL), testIntervals(), nil)
	defer r.Stop()

	r.tick(context.Background())
	before, _ := r.Tracker(1)

	r.tick(context.Background())
	after, _ := r.Tracker(1)

	if before != after {
		t.Fatal("tracker must be reused when the torrent stays in the list")
	}
}

func TestRegistryStopStopsAllTrackers(t *testing.T) {
	svc := &fakeService{}
	svc.setTorrents(api.TorrentID{ID: 1, InfoHash: "aa"}, api.TorrentID{ID: 2, InfoHash: "bb"})
	srv := httptest.NewServer(svc.handler())
	defer srv.Close()

	r := NewRegistry(api.NewClient(srv.URL), testIntervals(), nil)
	r.tick(context.Background())

	tr1, _ := r.Tracker(1)
	tr2, _ := r.Tracker(2)

	r.Stop()

	if !tr1.stopped() || !tr2.stopped() {
		t.Fatal("Stop must stop every tracker")
	}
	if len(r.Snapshot().Torrents) != 0 {
		t.Fatal("Stop must clear the tracker arena")
	}
}

func TestRegistryOnChangeFires(t *testing.T) {
	svc := &fakeService{}
	svc.setTorrents(api.TorrentID{ID: 1, InfoHash: "aa"})
	srv := httptest.NewServer(svc.handler())
	defer srv.Close()

	var mu sync.Mutex
	changes := 0
	r := NewRegistry(api.NewClient(srv.URL), testIntervals(), func() {
		mu.Lock()
		changes++
		mu.Unlock()
	})
	defer r.Stop()

	r.tick(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if changes == 0 {
		t.Fatal("expected onChange to fire after a refresh")
	}
}
