package fadu

type CardType string

const (
	Standard  CardType = "standard"
	Sacrifice CardType = "sacrifice"
)

// Card is one entry of the static Fadu catalog. PFH is the card's base
// value, Weight its draw probability mass within its pool, and Modifiers
// an optional set of named adjustments (a missing key means no effect).
type Card struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      CardType       `json:"type"`
	PFH       int            `json:"pfh"`
	Weight    int            `json:"weight"`
	Modifiers map[string]int `json:"modifiers,omitempty"`
}

// Modifier returns the named modifier value, or 0 when the card does not
// carry it.
func (c Card) Modifier(name string) int {
	return c.Modifiers[name]
}

// Catalog bounds for card PFH values.
const (
	MinPFH = 1
	MaxPFH = 64
)

// ModCostAdjust shifts the sacrifice base cost when the drawn sacrifice
// card carries it.
const ModCostAdjust = "cost_adjust"

// The sixteen Fadu of the standard pool. Weights are draw counts: the
// high-value Meji are the rarest.
var standardCards = []Card{
	{ID: "f1", Name: "gbe_meji", Type: Standard, PFH: 64, Weight: 1},
	{ID: "f2", Name: "yeku_meji", Type: Standard, PFH: 60, Weight: 1},
	{ID: "f3", Name: "woli_meji", Type: Standard, PFH: 56, Weight: 1},
	{ID: "f4", Name: "di_meji", Type: Standard, PFH: 52, Weight: 2},
	{ID: "f5", Name: "loso_meji", Type: Standard, PFH: 48, Weight: 2},
	{ID: "f6", Name: "wele_meji", Type: Standard, PFH: 44, Weight: 2},
	{ID: "f7", Name: "abla_meji", Type: Standard, PFH: 40, Weight: 2},
	{ID: "f8", Name: "aklan_meji", Type: Standard, PFH: 36, Weight: 3},
	{ID: "f9", Name: "guda_meji", Type: Standard, PFH: 32, Weight: 3},
	{ID: "f10", Name: "sa_meji", Type: Standard, PFH: 28, Weight: 3},
	{ID: "f11", Name: "ka_meji", Type: Standard, PFH: 24, Weight: 3},
	{ID: "f12", Name: "trukpen_meji", Type: Standard, PFH: 20, Weight: 4},
	{ID: "f13", Name: "tula_meji", Type: Standard, PFH: 16, Weight: 4},
	{ID: "f14", Name: "lete_meji", Type: Standard, PFH: 12, Weight: 4},
	{ID: "f15", Name: "tche_meji", Type: Standard, PFH: 8, Weight: 4},
	{ID: "f16", Name: "fu_meji", Type: Standard, PFH: 4, Weight: 4},
}

// The sacrifice pool mirrors the standard Fadu at four copies each. The
// strongest cards demand a surcharge on the sacrifice cost, the weakest
// grant a discount.
var sacrificeCards = []Card{
	{ID: "sf1", Name: "gbe_meji", Type: Sacrifice, PFH: 64, Weight: 4, Modifiers: map[string]int{ModCostAdjust: 4}},
	{ID: "sf2", Name: "yeku_meji", Type: Sacrifice, PFH: 60, Weight: 4, Modifiers: map[string]int{ModCostAdjust: 2}},
	{ID: "sf3", Name: "woli_meji", Type: Sacrifice, PFH: 56, Weight: 4, Modifiers: map[string]int{ModCostAdjust: 2}},
	{ID: "sf4", Name: "di_meji", Type: Sacrifice, PFH: 52, Weight: 4},
	{ID: "sf5", Name: "loso_meji", Type: Sacrifice, PFH: 48, Weight: 4},
	{ID: "sf6", Name: "wele_meji", Type: Sacrifice, PFH: 44, Weight: 4},
	{ID: "sf7", Name: "abla_meji", Type: Sacrifice, PFH: 40, Weight: 4},
	{ID: "sf8", Name: "aklan_meji", Type: Sacrifice, PFH: 36, Weight: 4},
	{ID: "sf9", Name: "guda_meji", Type: Sacrifice, PFH: 32, Weight: 4},
	{ID: "sf10", Name: "sa_meji", Type: Sacrifice, PFH: 28, Weight: 4},
	{ID: "sf11", Name: "ka_meji", Type: Sacrifice, PFH: 24, Weight: 4},
	{ID: "sf12", Name: "trukpen_meji", Type: Sacrifice, PFH: 20, Weight: 4},
	{ID: "sf13", Name: "tula_meji", Type: Sacrifice, PFH: 16, Weight: 4},
	{ID: "sf14", Name: "lete_meji", Type: Sacrifice, PFH: 12, Weight: 4},
	{ID: "sf15", Name: "tche_meji", Type: Sacrifice, PFH: 8, Weight: 4, Modifiers: map[string]int{ModCostAdjust: -2}},
	{ID: "sf16", Name: "fu_meji", Type: Sacrifice, PFH: 4, Weight: 4, Modifiers: map[string]int{ModCostAdjust: -2}},
}
