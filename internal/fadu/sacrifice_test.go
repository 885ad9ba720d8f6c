package fadu_test

import (
	"testing"

	"github.com/kossichris/jeu-fa-api/internal/fadu"
)

func TestComputeSacrifice(t *testing.T) {
	tests := []struct {
		name          string
		pfh           int
		baseCost      int
		modifiers     map[string]int
		wantCost      int
		wantRemaining int
	}{
		{
			name:          "plain card",
			pfh:           100,
			baseCost:      14,
			wantCost:      14,
			wantRemaining: 86,
		},
		{
			name:          "cost raised by modifier",
			pfh:           100,
			baseCost:      14,
			modifiers:     map[string]int{fadu.ModCostAdjust: 4},
			wantCost:      18,
			wantRemaining: 82,
		},
		{
			name:          "cost lowered by modifier",
			pfh:           100,
			baseCost:      14,
			modifiers:     map[string]int{fadu.ModCostAdjust: -2},
			wantCost:      12,
			wantRemaining: 88,
		},
		{
			name:          "cost capped at available pfh",
			pfh:           10,
			baseCost:      14,
			wantCost:      10,
			wantRemaining: 0,
		},
		{
			name:          "cost floored at zero",
			pfh:           100,
			baseCost:      14,
			modifiers:     map[string]int{fadu.ModCostAdjust: -20},
			wantCost:      0,
			wantRemaining: 100,
		},
		{
			name:          "broke player pays nothing",
			pfh:           0,
			baseCost:      14,
			wantCost:      0,
			wantRemaining: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := fadu.Card{ID: "sf_test", Type: fadu.Sacrifice, PFH: 40, Modifiers: tt.modifiers}
			res := fadu.ComputeSacrifice(tt.pfh, tt.baseCost, card)
			if res.Cost != tt.wantCost {
				t.Errorf("cost = %d, want %d", res.Cost, tt.wantCost)
			}
			if res.Remaining != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", res.Remaining, tt.wantRemaining)
			}
			if res.Remaining < 0 {
				t.Error("remaining went negative")
			}
			if res.Card.ID != card.ID {
				t.Errorf("card = %s, want %s", res.Card.ID, card.ID)
			}
		})
	}
}
