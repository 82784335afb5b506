package estimate

// Denomination groups the coin series listed for a US denomination.
type Denomination struct {
	Name   string   `json:"name"`
	Series []string `json:"series"`
}

var catalog = []Denomination{
	{Name: "Penny", Series: []string{"Lincoln Penny", "Indian Head Penny", "Flying Eagle Penny", "Large Cent", "Wartime Steel Penny", "Draped Bust Penny"}},
	{Name: "Nickel", Series: []string{"Jefferson Nickel", "Buffalo Nickel", "Liberty Head V Nickel", "Shield Nickel", "Wartime Silver Nickel"}},
	{Name: "Dime", Series: []string{"Roosevelt Dime", "Mercury Dime", "Barber Dime", "Seated Liberty Dime", "Draped Bust Dime"}},
	{Name: "Quarter", Series: []string{"Washington Quarter", "Standing Liberty Quarter", "Barber Quarter", "Seated Liberty Quarter", "50 State Quarters"}},
	{Name: "Half Dollar", Series: []string{"Kennedy Half Dollar", "Franklin Half Dollar", "Walking Liberty Half Dollar", "Barber Half Dollar", "Seated Liberty Half Dollar"}},
	{Name: "Dollar", Series: []string{"Eisenhower Dollar", "Peace Dollar", "Morgan Dollar", "Trade Dollar", "Sacagawea Dollar"}},
}

// Catalog returns the informational list of US denominations and series.
// coinType is free text and is never checked against it.
func Catalog() []Denomination {
	out := make([]Denomination, len(catalog))
	for i, d := range catalog {
		series := make([]string, len(d.Series))
		copy(series, d.Series)
		out[i] = Denomination{Name: d.Name, Series: series}
	}
	return out
}
