package domain

// ClassicRoundTotal is the number of points a classic trump round distributes,
// card points plus the last-trick bonus.
const ClassicRoundTotal = 162

// RoundScore holds the points of one round.
type RoundScore struct {
	Us           int  `json:"us"`
	Them         int  `json:"them"`
	LastTrick    Team `json:"last_trick"`
	HasLastTrick bool `json:"has_last_trick"`
}

// Points returns the team's round points.
func (r RoundScore) Points(t Team) int {
	if t == Us {
		return r.Us
	}
	return r.Them
}

// Total returns the sum of both teams.
func (r RoundScore) Total() int { return r.Us + r.Them }

// MatchScore is the cumulative score of a match.
type MatchScore struct {
	Us     int `json:"us"`
	Them   int `json:"them"`
	Target int `json:"target"`
}

// Points returns the team's cumulative points.
func (m MatchScore) Points(t Team) int {
	if t == Us {
		return m.Us
	}
	return m.Them
}

// Add folds a round into the match, scaled by factor. Negative contributions
// are clamped so the totals never decrease.
func (m MatchScore) Add(r RoundScore, factor int) MatchScore {
	if factor <= 0 {
		factor = 1
	}
	if r.Us > 0 {
		m.Us += r.Us * factor
	}
	if r.Them > 0 {
		m.Them += r.Them * factor
	}
	return m
}
