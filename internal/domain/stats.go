package domain

import "time"

// Drop reasons reported in IngestStats.Dropped
const (
	DropBlank      = "blank"
	DropEmpty      = "empty"
	DropLevel      = "level"
	DropInsertFail = "insert_failed"
)

// IngestStats summarizes one ingestion session
type IngestStats struct {
	SessionID string
	Dialect   string
	Source    string
	Table     string

	LinesRead        uint64
	RecordsParsed    uint64 // logical records (log dialects) or data lines (tabular)
	RowsEmitted      uint64 // rows accepted by the sink
	UnparseableCount uint64 // field values replaced by their type default
	TruncatedValues  uint64 // values beyond the schema width
	Dropped          map[string]uint64

	StartTime time.Time
	EndTime   time.Time
}

// NewIngestStats creates stats for a session starting now
func NewIngestStats(sessionID, dialect, source string) *IngestStats {
	return &IngestStats{
		SessionID: sessionID,
		Dialect:   dialect,
		Source:    source,
		Dropped:   make(map[string]uint64),
		StartTime: time.Now(),
	}
}

// Drop counts a row that never reached the sink
func (s *IngestStats) Drop(reason string) {
	s.Dropped[reason]++
}

// DroppedTotal returns the number of rows dropped for any reason
func (s *IngestStats) DroppedTotal() uint64 {
	var total uint64
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Duration returns the session wall time
func (s *IngestStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// RowsPerSecond returns the emit rate
func (s *IngestStats) RowsPerSecond() float64 {
	secs := s.Duration().Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.RowsEmitted) / secs
}
