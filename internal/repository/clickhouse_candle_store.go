package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ChartFlux/internal/domain/models"
	domrepo "ChartFlux/internal/domain/repository"
	pkgch "ChartFlux/pkg/clickhouse"
	applogger "ChartFlux/pkg/logger"
)

// CHCandleStore implements CandleStore backed by ClickHouse. Prices cross
// the wire as strings (toString on select, string args on insert) so the
// Decimal64 columns never round through binary floats.
type CHCandleStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client, table string) *CHCandleStore {
	return &CHCandleStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleStore) Load(ctx context.Context, symbol string, tf models.TimeFrame) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT toUnixTimestamp(ts), toString(open), toString(high), toString(low), toString(close), toString(volume)
        FROM %s
        WHERE symbol = ? AND tf = ?
        ORDER BY ts ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, tf.String())
	if err != nil {
		s.logErr("load query error", symbol, tf, err)
		return nil, fmt.Errorf("load candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 1024)
	for rows.Next() {
		var (
			c              models.Candle
			o, h, l, cl, v string
		)
		if err := rows.Scan(&c.Time, &o, &h, &l, &cl, &v); err != nil {
			s.logErr("load scan error", symbol, tf, err)
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		if c.Open, err = decimal.NewFromString(o); err != nil {
			return nil, fmt.Errorf("decode open: %w", err)
		}
		if c.High, err = decimal.NewFromString(h); err != nil {
			return nil, fmt.Errorf("decode high: %w", err)
		}
		if c.Low, err = decimal.NewFromString(l); err != nil {
			return nil, fmt.Errorf("decode low: %w", err)
		}
		if c.Close, err = decimal.NewFromString(cl); err != nil {
			return nil, fmt.Errorf("decode close: %w", err)
		}
		if c.Volume, err = decimal.NewFromString(v); err != nil {
			return nil, fmt.Errorf("decode volume: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		s.logErr("load rows error", symbol, tf, err)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse load ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", tf.String()),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) FinestTimeframe(ctx context.Context, symbol string) (models.TimeFrame, error) {
	q := fmt.Sprintf(`SELECT DISTINCT tf FROM %s WHERE symbol = ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		s.logErr("finest tf query error", symbol, 0, err)
		return 0, fmt.Errorf("finest timeframe: %w", err)
	}
	defer rows.Close()

	var finest models.TimeFrame
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return 0, fmt.Errorf("scan tf: %w", err)
		}
		tf, err := models.ParseTimeFrame(label)
		if err != nil {
			// Unknown label in storage is a data defect, not a caller error.
			s.logErr("unknown tf label in store", symbol, 0, fmt.Errorf("%q", label))
			continue
		}
		if finest == 0 || tf.Seconds() < finest.Seconds() {
			finest = tf
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("rows: %w", err)
	}
	if finest == 0 {
		return 0, models.ErrSymbolNotFound
	}
	return finest, nil
}

func (s *CHCandleStore) Save(ctx context.Context, symbol string, tf models.TimeFrame, candles []models.Candle) error {
	// Replace-on-save: drop the old series, then batch insert. The delete
	// is an async mutation; ReplacingMergeTree ordering keeps re-inserted
	// timestamps deduplicated in the interim.
	del := fmt.Sprintf(`ALTER TABLE %s DELETE WHERE symbol = ? AND tf = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, del, symbol, tf.String()); err != nil {
		s.logErr("save delete error", symbol, tf, err)
		return fmt.Errorf("delete series: %w", err)
	}
	return s.insertBatch(ctx, symbol, tf, candles)
}

func (s *CHCandleStore) Append(ctx context.Context, symbol string, tf models.TimeFrame, candle models.Candle) error {
	return s.insertBatch(ctx, symbol, tf, []models.Candle{candle})
}

// insertBatch writes multi-row VALUES chunks to bound round-trips.
func (s *CHCandleStore) insertBatch(ctx context.Context, symbol string, tf models.TimeFrame, candles []models.Candle) error {
	const chunkSize = 2000
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, c := range candles[start:end] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				symbol,
				tf.String(),
				time.Unix(c.Time, 0).UTC(),
				c.Open.String(),
				c.High.String(),
				c.Low.String(),
				c.Close.String(),
				c.Volume.String(),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, tf, ts, open, high, low, close, volume) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.logErr("insert error", symbol, tf, err)
			return fmt.Errorf("insert candles: %w", err)
		}
	}
	return nil
}

func (s *CHCandleStore) Symbols(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT symbol FROM %s ORDER BY symbol ASC`, s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *CHCandleStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHCandleStore) Close() error {
	return nil // connection pool is owned by pkg/clickhouse
}

func (s *CHCandleStore) logErr(msg, symbol string, tf models.TimeFrame, err error) {
	if s.l == nil {
		return
	}
	fields := []applogger.Field{
		applogger.String("table", s.table),
		applogger.String("symbol", symbol),
		applogger.Error(err),
	}
	if tf != 0 {
		fields = append(fields, applogger.String("tf", tf.String()))
	}
	s.l.Error(msg, fields...)
}

var _ domrepo.CandleStore = (*CHCandleStore)(nil)
