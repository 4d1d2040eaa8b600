package idhash

import (
	"testing"

	"github.com/mr-tron/base58"

	"tick-feature-lab/internal/domain"
)

func TestComputeBarID(t *testing.T) {
	tests := []struct {
		name      string
		symbol    string
		kind      domain.BarKind
		seq       int64
		startTime int64
		endTime   int64
	}{
		{
			name:      "dollar bar",
			symbol:    "ES",
			kind:      domain.BarKindDollar,
			seq:       0,
			startTime: 1704067200000,
			endTime:   1704067234567,
		},
		{
			name:      "tick bar",
			symbol:    "NQ",
			kind:      domain.BarKindTick,
			seq:       42,
			startTime: 1704067300000,
			endTime:   1704067300000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBarID(tt.symbol, tt.kind, tt.seq, tt.startTime, tt.endTime)

			raw, err := base58.Decode(got)
			if err != nil {
				t.Fatalf("ComputeBarID() is not base58: %v", err)
			}
			if len(raw) != 32 {
				t.Errorf("decoded length = %d, want 32", len(raw))
			}
		})
	}
}

func TestComputeBarID_Determinism(t *testing.T) {
	a := ComputeBarID("ES", domain.BarKindVolume, 7, 1000, 2000)
	b := ComputeBarID("ES", domain.BarKindVolume, 7, 1000, 2000)
	if a != b {
		t.Errorf("ComputeBarID() not deterministic: %s != %s", a, b)
	}
}

func TestComputeBarID_DifferentInputs(t *testing.T) {
	base := ComputeBarID("ES", domain.BarKindVolume, 7, 1000, 2000)

	variants := map[string]string{
		"symbol": ComputeBarID("NQ", domain.BarKindVolume, 7, 1000, 2000),
		"kind":   ComputeBarID("ES", domain.BarKindDollar, 7, 1000, 2000),
		"seq":    ComputeBarID("ES", domain.BarKindVolume, 8, 1000, 2000),
		"end":    ComputeBarID("ES", domain.BarKindVolume, 7, 1000, 2001),
	}
	for field, id := range variants {
		if id == base {
			t.Errorf("changing %s did not change the id", field)
		}
	}
}

func TestAssignBarIDs(t *testing.T) {
	bars := []domain.Bar{
		{Symbol: "ES", Kind: domain.BarKindTick, Seq: 0, StartTime: 1, EndTime: 2},
		{Symbol: "ES", Kind: domain.BarKindTick, Seq: 1, StartTime: 2, EndTime: 2},
	}
	AssignBarIDs(bars)

	if bars[0].BarID == "" || bars[0].BarID == bars[1].BarID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", bars[0].BarID, bars[1].BarID)
	}
	if bars[1].BarID != ComputeBarID("ES", domain.BarKindTick, 1, 2, 2) {
		t.Error("AssignBarIDs disagrees with ComputeBarID")
	}
}

func TestComputeLabelID(t *testing.T) {
	a := ComputeLabelID("ES", domain.BarKindTick, 3, "run-1")
	b := ComputeLabelID("ES", domain.BarKindTick, 3, "run-2")
	if a == b {
		t.Error("run id must change the label id")
	}
}
