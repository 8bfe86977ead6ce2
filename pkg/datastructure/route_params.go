package datastructure

// AlternativeRouteParams bound the alternative-route search: how much worse
// an alternative may be, how much of the best path it may share, and how far
// beyond the best weight the search keeps exploring.
type AlternativeRouteParams struct {
	maxPaths             int
	maxWeightFactor      float64
	maxShareFactor       float64
	maxExplorationFactor float64
}

func NewAlternativeRouteParams(maxPaths int,
	maxWeightFactor, maxShareFactor, maxExplorationFactor float64) AlternativeRouteParams {
	return AlternativeRouteParams{
		maxPaths:             maxPaths,
		maxWeightFactor:      maxWeightFactor,
		maxShareFactor:       maxShareFactor,
		maxExplorationFactor: maxExplorationFactor,
	}
}

func (p AlternativeRouteParams) GetMaxPaths() int {
	return p.maxPaths
}

func (p AlternativeRouteParams) GetMaxWeightFactor() float64 {
	return p.maxWeightFactor
}

func (p AlternativeRouteParams) GetMaxShareFactor() float64 {
	return p.maxShareFactor
}

func (p AlternativeRouteParams) GetMaxExplorationFactor() float64 {
	return p.maxExplorationFactor
}
