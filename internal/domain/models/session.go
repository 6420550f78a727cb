package models

// SessionConfig is the process-wide charting session. It is mutated only
// through the use case's update operation and read by the series cache for
// eviction sizing.
type SessionConfig struct {
	Symbol       string
	Timeframe    TimeFrame
	StartTime    *int64
	EndTime      *int64
	MaxCacheSize int
}

// DefaultSessionConfig mirrors the defaults the desktop app started with.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Symbol:       "EURUSD",
		Timeframe:    TFH1,
		MaxCacheSize: 1_000_000,
	}
}
