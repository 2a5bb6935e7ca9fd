package saver

import (
	"github.com/parquet-go/parquet-go"

	"QuantSuperior/internal/domain/models"
)

// ParquetSaver stores rows as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) LoadBars(path string) ([]models.PriceBar, error) {
	rows, err := parquet.ReadFile[Bar](path)
	if err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (ParquetSaver) SaveBars(bars []models.PriceBar, path string) error {
	return parquet.WriteFile(path, toRows(bars))
}

func (ParquetSaver) SaveTrades(trades []models.Trade, path string) error {
	return parquet.WriteFile(path, tradeRows(trades))
}
