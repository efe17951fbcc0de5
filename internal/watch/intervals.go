package watch

import "time"

// Intervals contains the polling cadence knobs. Tests inject short values;
// everything else uses DefaultIntervals.
type Intervals struct {
	// RegistryOK is the delay after a successful torrent list refresh
	RegistryOK time.Duration

	// RegistryError is the backoff after a failed torrent list refresh
	RegistryError time.Duration

	// StatsActive is the delay between stats polls while a torrent is
	// still transferring
	StatsActive time.Duration

	// StatsComplete is the delay between stats polls once a torrent has
	// all its bytes
	StatsComplete time.Duration

	// StatsError is the backoff after a failed stats poll, regardless of
	// completion state
	StatsError time.Duration

	// DetailsRetry is the retry interval for the one-shot details fetch
	DetailsRetry time.Duration
}

// DefaultIntervals returns the production polling cadence.
func DefaultIntervals() Intervals {
	return Intervals{
		RegistryOK:    500 * time.Millisecond,
		RegistryError: 5 * time.Second,
		StatsActive:   500 * time.Millisecond,
		StatsComplete: 5 * time.Second,
		StatsError:    10 * time.Second,
		DetailsRetry:  time.Second,
	}
}
