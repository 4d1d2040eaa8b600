package dataset

import (
	"github.com/parquet-go/parquet-go"

	"tick-feature-lab/internal/domain"
)

// ParquetSaver writes tables as Parquet files.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) SaveTrades(path string, txs []domain.Transaction) error {
	return parquet.WriteFile(path, TradeRows(txs))
}

func (ParquetSaver) SaveBars(path string, bars []domain.Bar) error {
	return parquet.WriteFile(path, BarRows(bars))
}

func (ParquetSaver) SaveLabels(path string, labels []domain.LabelPoint) error {
	return parquet.WriteFile(path, LabelRows(labels))
}

func readParquetTrades(path string) ([]TradeRow, error) {
	return parquet.ReadFile[TradeRow](path)
}
