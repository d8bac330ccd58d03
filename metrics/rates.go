package metrics

import "time"

type rateSample struct {
	t time.Time
	v float64
}

// RateTracker converts monotonically increasing counter samples into
// per-second rates. It is owned by the scheduler and is only ever
// touched from the sampling tick, so it is not safe for concurrent use.
type RateTracker struct {
	now  func() time.Time
	last map[string]rateSample
}

// NewRateTracker returns an empty RateTracker.
func NewRateTracker() *RateTracker {
	return &RateTracker{
		now:  time.Now,
		last: make(map[string]rateSample),
	}
}

// Rate returns the per-second rate of change of the counter identified
// by key, given its current value. The first observation of a key
// returns 0, as does a zero (or negative) elapsed interval. The
// observation is recorded either way.
func (r *RateTracker) Rate(key string, value float64) float64 {
	var (
		rate float64
		now  = r.now()
	)

	if prev, ok := r.last[key]; ok {
		if dt := now.Sub(prev.t).Seconds(); dt > 0 {
			rate = (value - prev.v) / dt
		}
	}

	r.last[key] = rateSample{now, value}

	return rate
}
