package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/Hallupa/CommonCode-sub001/pkg/common"
	"github.com/Hallupa/CommonCode-sub001/pkg/utility/fixed"
)

var identifier = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Reader loads candles stored one table per (broker, market, timeframe), named
// <broker>_<market>_<timeframe>, with columns open_time, close_time, the eight
// bid/ask prices as DECIMAL or VARCHAR, volume and complete.
type Reader struct {
	dataSourceName string
	db             *sql.DB
}

func NewReader(dataSourceName string) *Reader {
	return &Reader{
		dataSourceName: dataSourceName,
	}
}

func (r *Reader) Connect() error {
	db, err := sql.Open("duckdb", r.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open duckdb %q: %w", r.dataSourceName, err)
	}
	r.db = db
	return nil
}

func (r *Reader) Close() {
	_ = r.db.Close()
}

// DB exposes the connection for schema setup and imports.
func (r *Reader) DB() *sql.DB {
	return r.db
}

func TableName(broker, market string, timeframe common.Timeframe) (string, error) {
	name := strings.ToLower(fmt.Sprintf("%s_%s_%s", broker, market, timeframe))
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return name, nil
}

// CreateTable creates the candle table of a series when it does not exist.
func (r *Reader) CreateTable(ctx context.Context, broker, market string, timeframe common.Timeframe) error {
	table, err := TableName(broker, market, timeframe)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		open_time TIMESTAMP PRIMARY KEY,
		close_time TIMESTAMP NOT NULL,
		open_bid VARCHAR, open_ask VARCHAR,
		high_bid VARCHAR, high_ask VARCHAR,
		low_bid VARCHAR, low_ask VARCHAR,
		close_bid VARCHAR, close_ask VARCHAR,
		volume VARCHAR,
		complete BOOLEAN DEFAULT TRUE
	)`, table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("unable to create table %s: %w", table, err)
	}
	return nil
}

func (r *Reader) InsertCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, candles []common.Candle) error {
	table, err := TableName(broker, market, timeframe)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx,
			c.OpenTime.UTC(), c.CloseTime.UTC(),
			c.OpenBid.String(), c.OpenAsk.String(),
			c.HighBid.String(), c.HighAsk.String(),
			c.LowBid.String(), c.LowAsk.String(),
			c.CloseBid.String(), c.CloseAsk.String(),
			c.Volume.String(), c.IsComplete,
		); err != nil {
			return fmt.Errorf("error inserting candle at %s: %w", c.OpenTime, err)
		}
	}

	return tx.Commit()
}

// LoadCandles reads the candles opening in [from, to), ordered by open time.
func (r *Reader) LoadCandles(ctx context.Context, broker, market string, timeframe common.Timeframe, from, to time.Time, handler func(common.Candle) error) error {
	table, err := TableName(broker, market, timeframe)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`SELECT open_time, close_time,
		CAST(open_bid AS VARCHAR), CAST(open_ask AS VARCHAR),
		CAST(high_bid AS VARCHAR), CAST(high_ask AS VARCHAR),
		CAST(low_bid AS VARCHAR), CAST(low_ask AS VARCHAR),
		CAST(close_bid AS VARCHAR), CAST(close_ask AS VARCHAR),
		COALESCE(CAST(volume AS VARCHAR), '0'), COALESCE(complete, TRUE)
		FROM %s WHERE open_time >= ? AND open_time < ? ORDER BY open_time`, table)

	rows, err := r.db.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return fmt.Errorf("error querying %s: %w", table, err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var (
			c      common.Candle
			prices [9]string
		)
		if err := rows.Scan(&c.OpenTime, &c.CloseTime,
			&prices[0], &prices[1], &prices[2], &prices[3],
			&prices[4], &prices[5], &prices[6], &prices[7],
			&prices[8], &c.IsComplete); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}

		dst := []*fixed.Point{&c.OpenBid, &c.OpenAsk, &c.HighBid, &c.HighAsk, &c.LowBid, &c.LowAsk, &c.CloseBid, &c.CloseAsk, &c.Volume}
		for i, text := range prices {
			if *dst[i], err = fixed.FromString(text); err != nil {
				return fmt.Errorf("error parsing column %d of %s: %w", i, table, err)
			}
		}

		if err := handler(c); err != nil {
			return fmt.Errorf("error processing candle: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	return nil
}

func (r *Reader) HasTable(ctx context.Context, table string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM information_schema.tables WHERE table_name = ?`, table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("error checking table %s: %w", table, err)
	}
	return count > 0, nil
}
