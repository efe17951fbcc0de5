package api

// TorrentID identifies a torrent tracked by the server. Uniqueness is by ID;
// the info hash is stable for the torrent's lifetime.
type TorrentID struct {
	ID       int64  `json:"id"`
	InfoHash string `json:"info_hash"`
}

// TorrentList is the response of the torrent list endpoint.
type TorrentList struct {
	Torrents []TorrentID `json:"torrents"`
}

// TorrentFile describes one file inside a torrent. Included reflects the
// server-side selection state at fetch time.
type TorrentFile struct {
	Name     string `json:"name"`
	Length   int64  `json:"length"`
	Included bool   `json:"included"`
}

// TorrentDetails is the immutable per-torrent metadata. It is fetched once
// per torrent and never refreshed.
type TorrentDetails struct {
	InfoHash string        `json:"info_hash"`
	Files    []TorrentFile `json:"files"`
}

// PeerStats is the per-torrent peer state histogram.
type PeerStats struct {
	Queued     int64 `json:"queued"`
	Connecting int64 `json:"connecting"`
	Live       int64 `json:"live"`
	Seen       int64 `json:"seen"`
	Dead       int64 `json:"dead"`
	NotNeeded  int64 `json:"not_needed"`
}

// Speed is a download rate as reported by the server.
type Speed struct {
	Mbps          float64 `json:"mbps"`
	HumanReadable string  `json:"human_readable"`
}

// TimeRemaining is the server's ETA estimate. Absent from stats when not
// computable.
type TimeRemaining struct {
	HumanReadable string `json:"human_readable"`
}

// TorrentStats is a point-in-time snapshot of a torrent's progress. Each
// successful poll fully replaces the previous snapshot.
type TorrentStats struct {
	HaveBytes                 int64          `json:"have_bytes"`
	DownloadedAndCheckedBytes int64          `json:"downloaded_and_checked_bytes"`
	FetchedBytes              int64          `json:"fetched_bytes"`
	UploadedBytes             int64          `json:"uploaded_bytes"`
	InitiallyNeededBytes      int64          `json:"initially_needed_bytes"`
	RemainingBytes            int64          `json:"remaining_bytes"`
	TotalBytes                int64          `json:"total_bytes"`
	PeerStats                 PeerStats      `json:"peer_stats"`
	DownloadSpeed             Speed          `json:"download_speed"`
	AllTimeDownloadSpeed      Speed          `json:"all_time_download_speed"`
	TimeRemaining             *TimeRemaining `json:"time_remaining"`
}

// Complete reports whether the torrent has all its bytes.
func (s *TorrentStats) Complete() bool {
	return s.HaveBytes == s.TotalBytes
}

// AddTorrentResponse is the response of the torrent creation endpoint. ID is
// null for list-only (preview) requests.
type AddTorrentResponse struct {
	ID      *int64         `json:"id"`
	Details TorrentDetails `json:"details"`
}
