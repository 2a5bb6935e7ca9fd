package repository

import (
	"context"
	"fmt"
	"time"

	"QuantSuperior/internal/domain/models"
	drepo "QuantSuperior/internal/domain/repository"
	pkgch "QuantSuperior/pkg/clickhouse"
	"QuantSuperior/pkg/util"
)

// CHBarStore keeps daily bars in a ReplacingMergeTree keyed by (symbol, date),
// so re-saving a day replaces it.
type CHBarStore struct {
	client *pkgch.Client
	table  string
}

func NewCHBarStore(client *pkgch.Client) *CHBarStore {
	return &CHBarStore{client: client, table: client.Database() + ".daily_bars"}
}

var _ drepo.BarStore = (*CHBarStore)(nil)

// BarSchema returns the DDL for the bar table in database db.
func BarSchema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.daily_bars (
	symbol LowCardinality(String),
	date Date,
	t Int64,
	o Float64,
	h Float64,
	l Float64,
	c Float64,
	v Int64,
	updated_at DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY (symbol, date)`, db),
	}
}

func (s *CHBarStore) SaveBars(ctx context.Context, symbol string, bars []models.PriceBar) error {
	rows := barRows(symbol, bars)
	if len(rows) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, date, t, o, h, l, c, v) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	if err := s.client.InsertBatch(ctx, q, rows); err != nil {
		return fmt.Errorf("save bars %s: %w", symbol, err)
	}
	return nil
}

func (s *CHBarStore) LoadBars(ctx context.Context, symbol string, n int) ([]models.PriceBar, error) {
	if n <= 0 {
		return []models.PriceBar{}, nil
	}
	q := fmt.Sprintf("SELECT date, t, o, h, l, c, v FROM %s FINAL WHERE symbol = ? ORDER BY date DESC LIMIT ?", s.table)
	rows, err := s.client.DB().QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]models.PriceBar, 0, n)
	for rows.Next() {
		var b models.PriceBar
		var d time.Time
		if err := rows.Scan(&d, &b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = d.Format(util.DateLayout)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load bars %s: %w", symbol, err)
	}
	reverse(out)
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// barRows converts bars to insert rows, dropping rows with an unparseable date.
func barRows(symbol string, bars []models.PriceBar) [][]any {
	rows := make([][]any, 0, len(bars))
	for _, b := range bars {
		d, ok := util.ParseDate(b.Date)
		if !ok {
			continue
		}
		rows = append(rows, []any{symbol, d, b.Time, b.Open, b.High, b.Low, b.Close, b.Volume})
	}
	return rows
}

func reverse[T any](xs []T) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}
