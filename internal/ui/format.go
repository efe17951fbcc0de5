package ui

import (
	"fmt"
	"strings"

	"rqwatch/internal/api"
	"rqwatch/internal/watch"
)

// formatBytes formats a byte count in binary units
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// formatProgress formats the have/total ratio as a percentage
func formatProgress(stats *api.TorrentStats) string {
	if stats.TotalBytes <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(stats.HaveBytes)/float64(stats.TotalBytes)*100)
}

// displayName derives a torrent's display label. Until details resolve the
// torrent is rendered with a placeholder.
func displayName(t watch.TrackerSnapshot) string {
	if t.Details == nil {
		return fmt.Sprintf("(loading) %s", shortHash(t.ID.InfoHash))
	}
	if len(t.Details.Files) == 0 {
		return shortHash(t.Details.InfoHash)
	}
	// Multi-file torrents share a root directory in their paths.
	name := t.Details.Files[0].Name
	if i := strings.IndexByte(name, '/'); i > 0 && len(t.Details.Files) > 1 {
		return name[:i]
	}
	return name
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// formatETA renders the server's time-remaining estimate, or a dash when the
// estimate is not computable.
func formatETA(stats *api.TorrentStats) string {
	if stats.TimeRemaining == nil || stats.TimeRemaining.HumanReadable == "" {
		return "-"
	}
	return stats.TimeRemaining.HumanReadable
}
