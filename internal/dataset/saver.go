package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/domain"
)

// Errors
var (
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
	ErrMissingColumn     = errors.New("missing column")
)

// Saver writes tables in one file format.
type Saver interface {
	Extension() string
	SaveTrades(path string, txs []domain.Transaction) error
	SaveBars(path string, bars []domain.Bar) error
	SaveLabels(path string, labels []domain.LabelPoint) error
}

// NewSaver returns the saver for format (parquet, csv, json).
// Returns nil if the format is not supported.
func NewSaver(format string, cols config.Columns) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "parquet":
		return ParquetSaver{}
	case "csv":
		return CSVSaver{Columns: cols}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// FormatOf infers a file format from its extension.
func FormatOf(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "parquet", "csv", "json":
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadTrades loads trades from a parquet, csv or json file chosen by extension.
// CSV files may omit the seq column, see readCSVTrades.
func ReadTrades(path string, cols config.Columns) ([]domain.Transaction, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	var rows []TradeRow
	switch format {
	case "parquet":
		rows, err = readParquetTrades(path)
	case "csv":
		rows, err = readCSVTrades(path, cols)
	case "json":
		rows, err = readJSONTrades(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read trades %s: %w", path, err)
	}

	txs := make([]domain.Transaction, len(rows))
	for i, r := range rows {
		if r.Size < 0 {
			return nil, fmt.Errorf("read trades %s: row %d: negative size %d", path, i, r.Size)
		}
		txs[i] = r.Transaction()
	}
	return txs, nil
}
