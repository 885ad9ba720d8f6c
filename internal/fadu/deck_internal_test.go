package fadu

import (
	"math/rand"
	"testing"
)

func TestDrawDegeneratePools(t *testing.T) {
	d := &Deck{
		pools: map[CardType][]Card{
			Standard:  {},
			Sacrifice: {{ID: "z", Type: Sacrifice, PFH: 10, Weight: 0}},
		},
		byID: map[string]Card{},
		rng:  rand.New(rand.NewSource(1)),
	}

	if _, err := d.Draw(Standard); err == nil {
		t.Error("empty pool should fail")
	} else if e, ok := err.(*Error); !ok || e.Code != CodeConfiguration {
		t.Errorf("empty pool: got %v, want %s", err, CodeConfiguration)
	}

	if _, err := d.Draw(Sacrifice); err == nil {
		t.Error("zero-weight pool should fail")
	} else if e, ok := err.(*Error); !ok || e.Code != CodeConfiguration {
		t.Errorf("zero-weight pool: got %v, want %s", err, CodeConfiguration)
	}
}
