package fadu

import (
	"fmt"
	"math/rand"
	"time"
)

// Deck owns the two weighted card pools and the draw algorithm. The catalog
// is static process-wide data and draws are with-replacement, but the random
// source is not synchronized: each session owns its own Deck and all draws
// for a session run under that session's lock.
type Deck struct {
	pools    map[CardType][]Card
	byID     map[string]Card
	rng      *rand.Rand
	loadedAt time.Time
}

// NewDeck builds a deck over the static catalog. The random source is
// injected so tests can drive deterministic draws.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		pools: map[CardType][]Card{
			Standard:  standardCards,
			Sacrifice: sacrificeCards,
		},
		byID:     make(map[string]Card),
		rng:      rng,
		loadedAt: time.Now(),
	}
	for _, pool := range d.pools {
		for _, c := range pool {
			d.byID[c.ID] = c
		}
	}
	return d
}

// Draw samples one card from the requested pool proportional to weight.
// It never fails for a well-formed pool; an empty or zero-weight pool is a
// deployment defect and yields CONFIGURATION_ERROR.
func (d *Deck) Draw(t CardType) (Card, error) {
	pool, ok := d.pools[t]
	if !ok || len(pool) == 0 {
		return Card{}, &Error{Code: CodeConfiguration, Message: fmt.Sprintf("card pool %q is empty", t)}
	}

	total := 0
	for _, c := range pool {
		total += c.Weight
	}
	if total <= 0 {
		return Card{}, &Error{Code: CodeConfiguration, Message: fmt.Sprintf("card pool %q has zero total weight", t)}
	}

	pick := d.rng.Intn(total)
	cumulative := 0
	for _, c := range pool {
		cumulative += c.Weight
		if pick < cumulative {
			return c, nil
		}
	}

	// Unreachable for positive totals; keep the last card as a guard.
	return pool[len(pool)-1], nil
}

// CardByID looks a card up across both pools.
func (d *Deck) CardByID(id string) (Card, error) {
	c, ok := d.byID[id]
	if !ok {
		return Card{}, &Error{Code: CodeNotFound, Message: fmt.Sprintf("card %q not found", id)}
	}
	return c, nil
}

// CardProbability is one row of the catalog snapshot.
type CardProbability struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PFH         int     `json:"pfh"`
	Probability float64 `json:"probability"`
}

// ProbabilitySnapshot reports the normalized weight of every card per pool.
type ProbabilitySnapshot struct {
	Standard   []CardProbability `json:"standard"`
	Sacrifice  []CardProbability `json:"sacrifice"`
	TotalCards int               `json:"total_cards"`
	LoadedAt   time.Time         `json:"loaded_at"`
}

// Probabilities is a pure read over the catalog; values per pool sum to 1.
func (d *Deck) Probabilities() ProbabilitySnapshot {
	return ProbabilitySnapshot{
		Standard:   normalize(d.pools[Standard]),
		Sacrifice:  normalize(d.pools[Sacrifice]),
		TotalCards: len(d.byID),
		LoadedAt:   d.loadedAt,
	}
}

func normalize(pool []Card) []CardProbability {
	total := 0
	for _, c := range pool {
		total += c.Weight
	}
	out := make([]CardProbability, 0, len(pool))
	for _, c := range pool {
		p := 0.0
		if total > 0 {
			p = float64(c.Weight) / float64(total)
		}
		out = append(out, CardProbability{ID: c.ID, Name: c.Name, PFH: c.PFH, Probability: p})
	}
	return out
}
