package models

import "time"

// TimeFrame is the closed set of supported bar durations. The zero value is
// not a valid timeframe; always construct through ParseTimeFrame or the
// exported constants.
type TimeFrame int

const (
	TFM1 TimeFrame = iota + 1
	TFM5
	TFM15
	TFM30
	TFH1
	TFH4
	TFD1
	TFW1
)

// timeFrameSeconds maps each timeframe to its bar length in seconds.
// Ordering of the constants matches ordering by bar length.
var timeFrameSeconds = map[TimeFrame]int64{
	TFM1:  60,
	TFM5:  5 * 60,
	TFM15: 15 * 60,
	TFM30: 30 * 60,
	TFH1:  60 * 60,
	TFH4:  4 * 60 * 60,
	TFD1:  24 * 60 * 60,
	TFW1:  7 * 24 * 60 * 60,
}

// ParseTimeFrame resolves a canonical label ("M1", "H4", ...) to its
// timeframe. Matching is case-sensitive.
func ParseTimeFrame(s string) (TimeFrame, error) {
	switch s {
	case "M1":
		return TFM1, nil
	case "M5":
		return TFM5, nil
	case "M15":
		return TFM15, nil
	case "M30":
		return TFM30, nil
	case "H1":
		return TFH1, nil
	case "H4":
		return TFH4, nil
	case "D1":
		return TFD1, nil
	case "W1":
		return TFW1, nil
	default:
		return 0, ErrInvalidTimeframe
	}
}

// String returns the canonical label, the inverse of ParseTimeFrame.
func (tf TimeFrame) String() string {
	switch tf {
	case TFM1:
		return "M1"
	case TFM5:
		return "M5"
	case TFM15:
		return "M15"
	case TFM30:
		return "M30"
	case TFH1:
		return "H1"
	case TFH4:
		return "H4"
	case TFD1:
		return "D1"
	case TFW1:
		return "W1"
	default:
		return "?"
	}
}

// Valid reports whether tf is one of the enumerated timeframes.
func (tf TimeFrame) Valid() bool {
	_, ok := timeFrameSeconds[tf]
	return ok
}

// Seconds returns the bar length in seconds, the aggregation bucket width.
func (tf TimeFrame) Seconds() int64 {
	return timeFrameSeconds[tf]
}

// Duration returns the bar length as a time.Duration.
func (tf TimeFrame) Duration() time.Duration {
	return time.Duration(tf.Seconds()) * time.Second
}

// AllTimeFrames returns the supported timeframes ordered by bar length.
func AllTimeFrames() []TimeFrame {
	return []TimeFrame{TFM1, TFM5, TFM15, TFM30, TFH1, TFH4, TFD1, TFW1}
}
