package models

// Requests and responses for the market data and replay HTTP endpoints.
// Defined in domain for consistency and reuse.

type CandlesRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"tf" json:"tf" validate:"required"`
}

type AggregateRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	SourceTF string `query:"source_tf" json:"source_tf" validate:"required"`
	TargetTF string `query:"target_tf" json:"target_tf" validate:"required"`
}

type ImportRequest struct {
	FilePath  string `json:"file_path" validate:"required"`
	Symbol    string `json:"symbol" validate:"required"`
	Timeframe string `json:"timeframe" validate:"required"`
}

type SessionConfigRequest struct {
	Symbol       string `json:"symbol" validate:"required"`
	Timeframe    string `json:"timeframe" validate:"required"`
	StartTime    *int64 `json:"start_time"`
	EndTime      *int64 `json:"end_time"`
	MaxCacheSize int    `json:"max_cache_size" default:"1000000" validate:"gt=0"`
}

type ReplaySessionRequest struct {
	Symbol    string `json:"symbol" validate:"required"`
	Timeframe string `json:"timeframe" validate:"required"`
}

type StepRequest struct {
	Steps int `json:"steps" default:"1" validate:"gte=1"`
}

type SeekRequest struct {
	Index int `json:"index" validate:"gte=0"`
}

type SpeedRequest struct {
	Speed float64 `json:"speed" validate:"required"`
}

// CandleResponse carries one bar over the wire with decimal-as-string
// values; the frontend chart consumes these verbatim.
type CandleResponse struct {
	Time   int64  `json:"time"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

// NewCandleResponse converts a domain candle to its wire form.
func NewCandleResponse(c Candle) CandleResponse {
	return CandleResponse{
		Time:   c.Time,
		Open:   c.Open.String(),
		High:   c.High.String(),
		Low:    c.Low.String(),
		Close:  c.Close.String(),
		Volume: c.Volume.String(),
	}
}

// NewCandleResponses converts a series to wire form.
func NewCandleResponses(candles []Candle) []CandleResponse {
	out := make([]CandleResponse, 0, len(candles))
	for _, c := range candles {
		out = append(out, NewCandleResponse(c))
	}
	return out
}

type ImportResult struct {
	CandlesImported int    `json:"candles_imported"`
	RowsSkipped     int    `json:"rows_skipped"`
	Symbol          string `json:"symbol"`
	Timeframe       string `json:"timeframe"`
}

type CacheStatsResponse struct {
	Entries      int `json:"entries"`
	TotalCandles int `json:"total_candles"`
}

type SessionConfigResponse struct {
	Symbol       string `json:"symbol"`
	Timeframe    string `json:"timeframe"`
	StartTime    *int64 `json:"start_time,omitempty"`
	EndTime      *int64 `json:"end_time,omitempty"`
	MaxCacheSize int    `json:"max_cache_size"`
}
