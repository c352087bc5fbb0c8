package domain

import "time"

// KST is the local zone of the upstream sources (UTC+9, no DST).
var KST = time.FixedZone("KST", 9*60*60)

// Timestamps pairs the UTC and local (KST) time of one observation.
type Timestamps struct {
	UTC   time.Time
	Local time.Time
}

// NewTimestamps derives both clocks from a single instant.
func NewTimestamps(t time.Time) Timestamps {
	return Timestamps{UTC: t.UTC(), Local: t.In(KST)}
}

// IsZero reports whether no time was recorded.
func (t Timestamps) IsZero() bool {
	return t.UTC.IsZero() && t.Local.IsZero()
}
