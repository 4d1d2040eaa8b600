package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"tick-feature-lab/internal/config"
	"tick-feature-lab/internal/domain"
)

// seqColumn is the optional tie-breaker column of trade files.
const seqColumn = "seq"

// CSVSaver writes tables as CSV with a header row.
// Columns renames the timestamp, symbol, price, size and OHLC columns.
type CSVSaver struct {
	Columns config.Columns
}

func (CSVSaver) Extension() string { return "csv" }

func (s CSVSaver) SaveTrades(path string, txs []domain.Transaction) error {
	c := s.Columns
	header := []string{c.Timestamp, c.Symbol, seqColumn, c.Price, c.Size}
	return writeCSV(path, header, len(txs), func(i int) []string {
		t := txs[i]
		return []string{
			strconv.FormatInt(t.Timestamp, 10),
			t.Symbol,
			strconv.FormatInt(t.Seq, 10),
			floatStr(t.Price),
			strconv.FormatUint(uint64(t.Size), 10),
		}
	})
}

func (s CSVSaver) SaveBars(path string, bars []domain.Bar) error {
	c := s.Columns
	header := []string{
		"bar_id", c.Symbol, "kind", seqColumn, "start_time", c.Timestamp,
		c.Open, c.High, c.Low, c.Close, "vwap", "volume", "transaction_count",
	}
	return writeCSV(path, header, len(bars), func(i int) []string {
		b := bars[i]
		return []string{
			b.BarID,
			b.Symbol,
			string(b.Kind),
			strconv.FormatInt(b.Seq, 10),
			strconv.FormatInt(b.StartTime, 10),
			strconv.FormatInt(b.EndTime, 10),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.VWAP),
			strconv.FormatUint(uint64(b.Volume), 10),
			strconv.FormatUint(uint64(b.TransactionCount), 10),
		}
	})
}

// SaveLabels writes labels. Nulls are empty cells.
func (s CSVSaver) SaveLabels(path string, labels []domain.LabelPoint) error {
	c := s.Columns
	header := []string{
		c.Symbol, "kind", seqColumn, c.Timestamp, "event", "return",
		"bars_to_touch", "touch_timestamp", "width",
	}
	return writeCSV(path, header, len(labels), func(i int) []string {
		l := labels[i]
		event, width := "", ""
		if l.Event != nil {
			event = strconv.Itoa(int(*l.Event))
		}
		if l.Width != nil {
			width = floatStr(*l.Width)
		}
		return []string{
			l.Symbol,
			string(l.Kind),
			strconv.FormatInt(l.Seq, 10),
			strconv.FormatInt(l.Timestamp, 10),
			event,
			floatStr(l.Return),
			strconv.FormatInt(l.BarsToTouch, 10),
			strconv.FormatInt(l.TouchTimestamp, 10),
			width,
		}
	})
}

func writeCSV(path string, header []string, n int, record func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(record(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// readCSVTrades maps the configured column names onto trade rows.
// Without a seq column, trades sharing a symbol and timestamp are numbered in file order.
func readCSVTrades(path string, cols config.Columns) ([]TradeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	col := func(name string) (int, error) {
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		return i, nil
	}

	tsCol, err := col(cols.Timestamp)
	if err != nil {
		return nil, err
	}
	symCol, err := col(cols.Symbol)
	if err != nil {
		return nil, err
	}
	priceCol, err := col(cols.Price)
	if err != nil {
		return nil, err
	}
	sizeCol, err := col(cols.Size)
	if err != nil {
		return nil, err
	}
	seqCol, hasSeq := index[seqColumn]

	type tsKey struct {
		symbol string
		ts     int64
	}
	lastSeq := make(map[tsKey]int64)

	var rows []TradeRow
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		ts, err := strconv.ParseInt(rec[tsCol], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, cols.Timestamp, err)
		}
		price, err := strconv.ParseFloat(rec[priceCol], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, cols.Price, err)
		}
		size, err := parseSize(rec[sizeCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, cols.Size, err)
		}

		row := TradeRow{Timestamp: ts, Symbol: rec[symCol], Price: price, Size: size}
		if hasSeq {
			if row.Seq, err = strconv.ParseInt(rec[seqCol], 10, 64); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, seqColumn, err)
			}
		} else {
			k := tsKey{row.Symbol, ts}
			seq, seen := lastSeq[k]
			if seen {
				seq++
			}
			lastSeq[k] = seq
			row.Seq = seq
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseSize accepts integral sizes written as "12" or "12.0".
func parseSize(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return checkSize(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("size %q is not integral", s)
	}
	return checkSize(int64(f))
}

func checkSize(n int64) (int64, error) {
	if n < 0 || n > math.MaxUint32 {
		return 0, fmt.Errorf("size %d out of range", n)
	}
	return n, nil
}
