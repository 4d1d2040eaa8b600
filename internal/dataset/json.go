package dataset

import (
	"encoding/json"
	"os"

	"tick-feature-lab/internal/domain"
)

// JSONSaver writes tables as indented JSON arrays.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) SaveTrades(path string, txs []domain.Transaction) error {
	return writeJSON(path, TradeRows(txs))
}

func (JSONSaver) SaveBars(path string, bars []domain.Bar) error {
	return writeJSON(path, BarRows(bars))
}

func (JSONSaver) SaveLabels(path string, labels []domain.LabelPoint) error {
	return writeJSON(path, LabelRows(labels))
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

func readJSONTrades(path string) ([]TradeRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []TradeRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
