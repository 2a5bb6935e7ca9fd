package saver

import (
	"encoding/json"
	"os"

	"QuantSuperior/internal/domain/models"
)

// JSONSaver writes indented JSON arrays.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) LoadBars(path string) ([]models.PriceBar, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []Bar
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, err
	}
	return fromRows(rows), nil
}

func (JSONSaver) SaveBars(bars []models.PriceBar, path string) error {
	return writeJSON(path, toRows(bars))
}

func (JSONSaver) SaveTrades(trades []models.Trade, path string) error {
	return writeJSON(path, tradeRows(trades))
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
