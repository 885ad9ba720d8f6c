package game

// Payoff parameters. X and Y are the effective card values of player 1 and
// player 2 for the turn. These are vars, not consts, so expressions like
// 1-paramF round per operation instead of being folded exactly at compile
// time; resolved PFH values depend on that rounding.
var (
	paramA = 0.0 // defensive vs defensive, share kept by the opponent
	paramB = 0.0 // defensive vs defensive, share kept by the opponent
	paramC = 0.2 // cooperation bonus rate
	paramD = 0.2 // attrition rate when both players attack
	paramE = 0.3 // transfer rate between winner and loser
	paramF = 0.8 // cooperation bonus split in mixed pairings
)

// payoffGains applies the payoff matrix to the two effective card values and
// returns the PFH gained by each player. Gains are floored at zero.
func payoffGains(s1, s2 Strategy, x, y int) (int, int) {
	fx, fy := float64(x), float64(y)
	var g1, g2 int

	switch {
	case s1 == StrategyDefensive && s2 == StrategyDefensive:
		g1 = int((1-paramA)*fx + paramB*fy)
		g2 = int(paramA*fx + (1-paramB)*fy)

	case s1 == StrategyDefensive && s2 == StrategyBalanced:
		g1 = int(fx + (1-paramF)*paramC*(fx+fy))
		g2 = int(fy + paramF*paramC*(fx+fy))

	case s1 == StrategyDefensive && s2 == StrategyAggressive:
		g1 = int((1 - paramE) * fx)
		g2 = int(fy + paramE*fx)

	case s1 == StrategyBalanced && s2 == StrategyDefensive:
		g1 = int(fx + paramF*paramC*(fx+fy))
		g2 = int(fy + (1-paramF)*paramC*(fx+fy))

	case s1 == StrategyBalanced && s2 == StrategyBalanced:
		g1 = int((1 + paramC) * fx)
		g2 = int((1 + paramC) * fy)

	case s1 == StrategyBalanced && s2 == StrategyAggressive:
		g1 = int((1 - paramE) * (1 + paramC) * fx)
		g2 = int((1 + paramC) * (fy + paramE*fx))

	case s1 == StrategyAggressive && s2 == StrategyDefensive:
		g1 = int(fx + paramE*fy)
		g2 = int((1 - paramE) * fy)

	case s1 == StrategyAggressive && s2 == StrategyBalanced:
		g1 = int((1 + paramC) * (fx + paramE*fy))
		g2 = int((1 - paramE) * (1 + paramC) * fy)

	case s1 == StrategyAggressive && s2 == StrategyAggressive:
		var xWins, yWins float64
		if x > y {
			xWins = 1
		}
		if y > x {
			yWins = 1
		}
		g1 = int((1-paramD)*fx + paramE*fy*xWins - paramE*fx*yWins)
		g2 = int((1-paramD)*fy + paramE*fx*yWins - paramE*fy*xWins)
	}

	if g1 < 0 {
		g1 = 0
	}
	if g2 < 0 {
		g2 = 0
	}
	return g1, g2
}
