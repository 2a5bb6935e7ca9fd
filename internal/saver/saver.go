package saver

import (
	"fmt"
	"path/filepath"
	"strings"

	"QuantSuperior/internal/domain/models"
)

// Saver reads bar series and writes bars or trade ledgers in one file format.
type Saver interface {
	Extension() string
	LoadBars(path string) ([]models.PriceBar, error)
	SaveBars(bars []models.PriceBar, path string) error
	SaveTrades(trades []models.Trade, path string) error
}

// New returns the saver for format (csv, json, parquet), or nil if unsupported.
func New(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	case "parquet":
		return ParquetSaver{}
	default:
		return nil
	}
}

// ForPath picks the saver from the file extension.
func ForPath(path string) (Saver, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	s := New(ext)
	if s == nil {
		return nil, fmt.Errorf("saver: unsupported format %q (use csv, json, parquet)", ext)
	}
	return s, nil
}

// LoadBars reads a bar file, choosing the format by extension.
func LoadBars(path string) ([]models.PriceBar, error) {
	s, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	bars, err := s.LoadBars(path)
	if err != nil {
		return nil, fmt.Errorf("load bars %s: %w", path, err)
	}
	return bars, nil
}

// SaveTrades writes a trade ledger, choosing the format by extension.
func SaveTrades(trades []models.Trade, path string) error {
	s, err := ForPath(path)
	if err != nil {
		return err
	}
	if err := s.SaveTrades(trades, path); err != nil {
		return fmt.Errorf("save trades %s: %w", path, err)
	}
	return nil
}
