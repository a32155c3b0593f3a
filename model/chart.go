package model

// Range is a chart time range.
type Range string

const (
	Range1D   Range = "1d"
	Range5D   Range = "5d"
	Range30D  Range = "30d"
	Range90D  Range = "90d"
	Range180D Range = "180d"
	Range1Y   Range = "1y"
	RangeAll  Range = "all"
)

var validRanges = map[Range]bool{
	Range1D: true, Range5D: true, Range30D: true, Range90D: true,
	Range180D: true, Range1Y: true, RangeAll: true,
}

// NormalizeRange maps anything unknown to 30d.
func NormalizeRange(r Range) Range {
	if validRanges[r] {
		return r
	}
	return Range30D
}

type ChartPoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume,omitempty"`
	Open   float64 `json:"open,omitempty"`
	High   float64 `json:"high,omitempty"`
	Low    float64 `json:"low,omitempty"`
	Close  float64 `json:"close,omitempty"`
}
