package reporting

import "time"

// CycleReport summarizes one executed cycle.
type CycleReport struct {
	// Metadata
	Kind        string // storage.CycleKindRates or storage.CycleKindTrends
	CycleID     string
	GeneratedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	Mode        string // trend cycles only

	// Coverage
	RegistrySize int
	Records      int

	Phases      []PhaseRow
	Scores      ScoreStats
	TopRecords  []RankedRow // highest scores first
	Unknown     []string
	Diagnostics []string
	Errors      []string
}

// Coverage is the share of registry countries with a record, in [0, 1].
func (r *CycleReport) Coverage() float64 {
	if r.RegistrySize == 0 {
		return 0
	}
	return float64(r.Records) / float64(r.RegistrySize)
}

// PhaseRow is one fetch phase of the cycle.
type PhaseRow struct {
	Name     string
	Status   string
	Rows     int
	Attempts int
	Duration time.Duration
	Err      string
}

// ScoreStats describes the distribution of one cycle's scores.
type ScoreStats struct {
	Count  int
	Mean   float64
	Median float64
	P10    float64
	P90    float64
	Min    float64
	Max    float64
	Stddev float64
}

// RankedRow is one country in the top-score table.
type RankedRow struct {
	CountryCode3 string
	CountryName  string
	Score        float64
	Detail       string
}

// HistoryRow is one stored record of a country.
type HistoryRow struct {
	DataType string
	CycleID  string
	At       time.Time
	Score    float64
}
