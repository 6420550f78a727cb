package models

// ReplayInfo is the projection returned when a replay session is (re)loaded.
type ReplayInfo struct {
	Symbol       string  `json:"symbol"`
	Timeframe    string  `json:"timeframe"`
	TotalCandles int     `json:"total_candles"`
	CurrentIndex int     `json:"current_index"`
	StartTime    int64   `json:"start_time"`
	EndTime      int64   `json:"end_time"`
	IsPlaying    bool    `json:"is_playing"`
	Speed        float64 `json:"speed"`
}

// ReplayUpdate is returned by every cursor movement. Prices travel as
// decimal strings so the boundary never rounds.
type ReplayUpdate struct {
	CurrentIndex int     `json:"current_index"`
	TotalCandles int     `json:"total_candles"`
	Time         int64   `json:"time"`
	Open         string  `json:"open"`
	High         string  `json:"high"`
	Low          string  `json:"low"`
	Close        string  `json:"close"`
	Volume       string  `json:"volume"`
	Progress     float64 `json:"progress"`
}

// ReplayStatus is the always-safe snapshot of the replay state machine.
// When nothing is loaded it is the defined empty form with IsLoaded false.
type ReplayStatus struct {
	IsLoaded     bool    `json:"is_loaded"`
	IsPlaying    bool    `json:"is_playing"`
	CurrentIndex int     `json:"current_index"`
	TotalCandles int     `json:"total_candles"`
	Speed        float64 `json:"speed"`
	Symbol       string  `json:"symbol"`
	Timeframe    string  `json:"timeframe"`
	Progress     float64 `json:"progress"`
}
