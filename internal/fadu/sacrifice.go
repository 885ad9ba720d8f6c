package fadu

// SacrificeResult reports what a sacrifice would cost at the player's
// current pfh and what remains after paying it.
type SacrificeResult struct {
	Cost      int  `json:"cost"`
	Remaining int  `json:"remaining"`
	Card      Card `json:"card"`
}

// ComputeSacrifice prices a sacrifice: the configured base cost shifted by
// the drawn card's cost_adjust modifier, clamped so the cost is never
// negative and never exceeds the player's available pfh. Pure function,
// no hidden state.
func ComputeSacrifice(currentPFH, baseCost int, card Card) SacrificeResult {
	cost := baseCost + card.Modifier(ModCostAdjust)
	if cost < 0 {
		cost = 0
	}
	if cost > currentPFH {
		cost = currentPFH
	}
	return SacrificeResult{
		Cost:      cost,
		Remaining: currentPFH - cost,
		Card:      card,
	}
}
