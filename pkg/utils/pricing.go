package utils

const (
	DefaultBaseFare     int64 = 1000
	DefaultSurgeDivisor int64 = 10
)

// FareQuote is the breakdown of a load-based fare.
type FareQuote struct {
	ActiveTrips   int     `json:"active_trips"`
	BaseFare      int64   `json:"base_fare"`
	SurgeMultiple float64 `json:"surge_multiple"`
	TotalFare     int64   `json:"total_fare"`
}

// PricingCalculator derives a fare from the assigned driver's current load:
//
//	surge = 1 + active/SurgeDivisor
//	fare  = floor(BaseFare × surge)
//
// More concurrently active trips for the driver never lowers the fare, and no
// upper bound is applied.
type PricingCalculator struct {
	BaseFare     int64
	SurgeDivisor int64
}

// NewPricingCalculator falls back to the defaults for non-positive inputs.
func NewPricingCalculator(baseFare, surgeDivisor int64) *PricingCalculator {
	if baseFare <= 0 {
		baseFare = DefaultBaseFare
	}
	if surgeDivisor <= 0 {
		surgeDivisor = DefaultSurgeDivisor
	}
	return &PricingCalculator{
		BaseFare:     baseFare,
		SurgeDivisor: surgeDivisor,
	}
}

// SurgeMultiplier returns 1 + active/SurgeDivisor. Negative loads count as 0.
func (p *PricingCalculator) SurgeMultiplier(activeTrips int) float64 {
	if activeTrips < 0 {
		activeTrips = 0
	}
	return 1 + float64(activeTrips)/float64(p.SurgeDivisor)
}

// CalculateFare applies the surge formula in integer arithmetic:
// BaseFare × (SurgeDivisor + active) / SurgeDivisor. Integer division of
// non-negative values is exactly the floor, so results such as active=7 come
// out as 1700 rather than a float product that lands just below it.
func (p *PricingCalculator) CalculateFare(activeTrips int) FareQuote {
	if activeTrips < 0 {
		activeTrips = 0
	}
	total := p.BaseFare * (p.SurgeDivisor + int64(activeTrips)) / p.SurgeDivisor
	return FareQuote{
		ActiveTrips:   activeTrips,
		BaseFare:      p.BaseFare,
		SurgeMultiple: p.SurgeMultiplier(activeTrips),
		TotalFare:     total,
	}
}
