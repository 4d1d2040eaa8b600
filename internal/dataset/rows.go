// Package dataset reads and writes trade, bar and label tables as parquet, csv or json files.
package dataset

import "tick-feature-lab/internal/domain"

// TradeRow is the file representation of a trade.
type TradeRow struct {
	Timestamp int64   `json:"timestamp" parquet:"timestamp"`
	Symbol    string  `json:"symbol" parquet:"symbol,dict"`
	Seq       int64   `json:"seq" parquet:"seq"`
	Price     float64 `json:"price" parquet:"price"`
	Size      int64   `json:"size" parquet:"size"`
}

// BarRow is the file representation of a bar.
type BarRow struct {
	BarID            string  `json:"bar_id" parquet:"bar_id"`
	Symbol           string  `json:"symbol" parquet:"symbol,dict"`
	Kind             string  `json:"kind" parquet:"kind,dict"`
	Seq              int64   `json:"seq" parquet:"seq"`
	StartTime        int64   `json:"start_time" parquet:"start_time"`
	EndTime          int64   `json:"end_time" parquet:"end_time"`
	Open             float64 `json:"open" parquet:"open"`
	High             float64 `json:"high" parquet:"high"`
	Low              float64 `json:"low" parquet:"low"`
	Close            float64 `json:"close" parquet:"close"`
	VWAP             float64 `json:"vwap" parquet:"vwap"`
	Volume           int64   `json:"volume" parquet:"volume"`
	TransactionCount int64   `json:"transaction_count" parquet:"transaction_count"`
}

// LabelRow is the file representation of a label. Nil fields are nulls.
type LabelRow struct {
	Symbol         string   `json:"symbol" parquet:"symbol,dict"`
	Kind           string   `json:"kind" parquet:"kind,dict"`
	Seq            int64    `json:"seq" parquet:"seq"`
	Timestamp      int64    `json:"timestamp" parquet:"timestamp"`
	Event          *int32   `json:"event" parquet:"event,optional"`
	Return         float64  `json:"return" parquet:"return"`
	BarsToTouch    int64    `json:"bars_to_touch" parquet:"bars_to_touch"`
	TouchTimestamp int64    `json:"touch_timestamp" parquet:"touch_timestamp"`
	Width          *float64 `json:"width" parquet:"width,optional"`
}

// TradeRows converts trades to rows.
func TradeRows(txs []domain.Transaction) []TradeRow {
	rows := make([]TradeRow, len(txs))
	for i, t := range txs {
		rows[i] = TradeRow{
			Timestamp: t.Timestamp,
			Symbol:    t.Symbol,
			Seq:       t.Seq,
			Price:     t.Price,
			Size:      int64(t.Size),
		}
	}
	return rows
}

// Transaction converts a row back to a trade.
func (r TradeRow) Transaction() domain.Transaction {
	return domain.Transaction{
		Symbol:    r.Symbol,
		Timestamp: r.Timestamp,
		Seq:       r.Seq,
		Price:     r.Price,
		Size:      uint32(r.Size),
	}
}

// BarRows converts bars to rows.
func BarRows(bars []domain.Bar) []BarRow {
	rows := make([]BarRow, len(bars))
	for i, b := range bars {
		rows[i] = BarRow{
			BarID:            b.BarID,
			Symbol:           b.Symbol,
			Kind:             string(b.Kind),
			Seq:              b.Seq,
			StartTime:        b.StartTime,
			EndTime:          b.EndTime,
			Open:             b.Open,
			High:             b.High,
			Low:              b.Low,
			Close:            b.Close,
			VWAP:             b.VWAP,
			Volume:           int64(b.Volume),
			TransactionCount: int64(b.TransactionCount),
		}
	}
	return rows
}

// LabelRows converts labels to rows.
func LabelRows(labels []domain.LabelPoint) []LabelRow {
	rows := make([]LabelRow, len(labels))
	for i, l := range labels {
		rows[i] = LabelRow{
			Symbol:         l.Symbol,
			Kind:           string(l.Kind),
			Seq:            l.Seq,
			Timestamp:      l.Timestamp,
			Return:         l.Return,
			BarsToTouch:    l.BarsToTouch,
			TouchTimestamp: l.TouchTimestamp,
		}
		if l.Event != nil {
			e := int32(*l.Event)
			rows[i].Event = &e
		}
		if l.Width != nil {
			w := *l.Width
			rows[i].Width = &w
		}
	}
	return rows
}
