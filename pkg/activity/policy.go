package activity

// Accumulation selects how a matching item adds to the score.
type Accumulation int

const (
	// PerKeyword adds the number of distinct keywords found in the title.
	PerKeyword Accumulation = iota
	// PerItem adds one for each matching item.
	PerItem
)

// Threshold assigns Tier to scores at or above Min.
type Threshold struct {
	Min  int
	Tier Tier
}

// Policy is the scoring record of one entity kind.
type Policy struct {
	Name         string
	Accumulation Accumulation
	// MatchAlertBonus is added for each matching item flagged as an alert.
	MatchAlertBonus int
	// CorpusAlertBonus is added for every alert item in the corpus, matching
	// or not.
	CorpusAlertBonus int
	// MatchCap bounds the retained matched items. Zero keeps none.
	MatchCap int
	// Thresholds are checked in order; the first satisfied one wins.
	Thresholds []Threshold
	// StaticTier makes the entity's catalog severity the tier regardless of
	// score.
	StaticTier bool
}

// TierFor classifies score. severity is used when the policy is static.
func (p *Policy) TierFor(score int, severity Tier) Tier {
	if p.StaticTier {
		if severity == "" {
			return TierLow
		}
		return severity
	}
	for _, t := range p.Thresholds {
		if score >= t.Min {
			return t.Tier
		}
	}
	return TierLow
}

var (
	HotspotPolicy = &Policy{
		Name:            "hotspot",
		Accumulation:    PerKeyword,
		MatchAlertBonus: 3,
		MatchCap:        5,
		Thresholds:      []Threshold{{8, TierHigh}, {3, TierElevated}},
	}
	ChokepointPolicy = &Policy{
		Name:         "chokepoint",
		Accumulation: PerItem,
		MatchCap:     5,
		Thresholds:   []Threshold{{1, TierElevated}},
	}
	CityPolicy = &Policy{
		Name:         "city",
		Accumulation: PerItem,
		MatchCap:     8,
		Thresholds:   []Threshold{{5, TierHigh}},
	}
	RegionalHotspotPolicy = &Policy{
		Name:         "regional-hotspot",
		Accumulation: PerItem,
		MatchCap:     8,
		StaticTier:   true,
	}
	DensityPolicy = &Policy{
		Name:             "density",
		Accumulation:     PerKeyword,
		CorpusAlertBonus: 2,
		MatchCap:         5,
		Thresholds:       []Threshold{{10, TierHigh}, {5, TierMedium}},
	}
	MonitorPolicy = &Policy{
		Name:         "custom-monitor",
		Accumulation: PerItem,
		MatchCap:     5,
		Thresholds:   []Threshold{{1, TierElevated}},
	}
)
