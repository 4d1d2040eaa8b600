package lookup

import (
	"errors"
	"fmt"
	"sort"
)

// Errors returned by lookup functions.
var (
	ErrKeyNotFound = errors.New("key not found in index")
	ErrNoData      = errors.New("no data available")
)

// KeyNotFoundError reports which keys of a range lookup are missing.
// It matches ErrKeyNotFound with errors.Is.
type KeyNotFoundError struct {
	Start *int64 // missing start key, nil if found
	End   *int64 // missing end key, nil if found
}

func (e *KeyNotFoundError) Error() string {
	switch {
	case e.Start != nil && e.End != nil:
		return fmt.Sprintf("Both start index %d and end index %d not found in index", *e.Start, *e.End)
	case e.Start != nil:
		return fmt.Sprintf("Start index %d not found in index", *e.Start)
	case e.End != nil:
		return fmt.Sprintf("End index %d not found in index", *e.End)
	default:
		return ErrKeyNotFound.Error()
	}
}

// Is lets errors.Is(err, ErrKeyNotFound) match.
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// Index maps ordering keys to their first row position.
// Read-only after construction; safe for concurrent use.
type Index struct {
	positions map[int64]int
}

// NewIndex builds an Index over keys. Duplicate keys resolve to their first row.
func NewIndex(keys []int64) *Index {
	positions := make(map[int64]int, len(keys))
	for i, k := range keys {
		if _, exists := positions[k]; !exists {
			positions[k] = i
		}
	}
	return &Index{positions: positions}
}

// Position returns the first row holding key.
func (ix *Index) Position(key int64) (int, bool) {
	pos, ok := ix.positions[key]
	return pos, ok
}

// SliceRange returns the half-open row range [pos(start), pos(end)+1).
// Returns a *KeyNotFoundError naming every missing key.
func (ix *Index) SliceRange(start, end int64) (int, int, error) {
	startPos, startOK := ix.positions[start]
	endPos, endOK := ix.positions[end]

	if !startOK || !endOK {
		e := &KeyNotFoundError{}
		if !startOK {
			e.Start = &start
		}
		if !endOK {
			e.End = &end
		}
		return 0, 0, e
	}
	return startPos, endPos + 1, nil
}

// AtOrBefore returns the last position whose timestamp is <= target.
// Timestamps must be sorted ascending.
func AtOrBefore(target int64, timestamps []int64) (int, error) {
	if len(timestamps) == 0 {
		return 0, ErrNoData
	}
	i := sort.Search(len(timestamps), func(i int) bool {
		return timestamps[i] > target
	})
	if i == 0 {
		return 0, ErrKeyNotFound
	}
	return i - 1, nil
}

// AtOrAfter returns the first position whose timestamp is >= target.
// Timestamps must be sorted ascending.
func AtOrAfter(target int64, timestamps []int64) (int, error) {
	if len(timestamps) == 0 {
		return 0, ErrNoData
	}
	i := sort.Search(len(timestamps), func(i int) bool {
		return timestamps[i] >= target
	})
	if i == len(timestamps) {
		return 0, ErrKeyNotFound
	}
	return i, nil
}
