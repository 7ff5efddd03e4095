package render

// Unranked es la etiqueta por defecto cuando no hay score usable.
const Unranked = "unranked"

type tier struct {
	low, high int // [low, high)
	label     string
}

const maxInt = int(^uint(0) >> 1)

// tabla ascendente, sin huecos, cubre [0, +inf)
var tiers = []tier{
	{0, 1600, "copper1"},
	{1600, 1700, "bronze5"},
	{1700, 1800, "bronze4"},
	{1800, 1900, "bronze3"},
	{1900, 2000, "bronze2"},
	{2000, 2100, "bronze1"},
	{2100, 2200, "silver5"},
	{2200, 2300, "silver4"},
	{2300, 2400, "silver3"},
	{2400, 2500, "silver2"},
	{2500, 2600, "silver1"},
	{2600, 2800, "gold3"},
	{2800, 3000, "gold2"},
	{3000, 3200, "gold1"},
	{3200, 3500, "platinum3"},
	{3500, 3800, "platinum2"},
	{3800, 4100, "platinum1"},
	{4100, 4400, "diamond3"},
	{4400, 4700, "diamond2"},
	{4700, 5000, "diamond1"},
	{5000, maxInt, "champions"},
}

// Classify mapea un score a su tier. Scores negativos caen en "unranked".
func Classify(score *int, unranked bool) string {
	if unranked || score == nil {
		return Unranked
	}
	s := *score
	for _, t := range tiers {
		if t.low <= s && (s < t.high || t.high == maxInt) {
			return t.label
		}
	}
	return Unranked
}

// Tiers devuelve las etiquetas en orden ascendente (incluye "unranked" al final).
func Tiers() []string {
	out := make([]string, 0, len(tiers)+1)
	for _, t := range tiers {
		out = append(out, t.label)
	}
	return append(out, Unranked)
}
