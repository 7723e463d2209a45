// Package scoring accumulates trick points into a round score.
package scoring

import "belote/internal/domain"

// RoundScorer tallies one round. It is reused across rounds via Reset.
type RoundScorer struct {
	bonus   int
	us      int
	them    int
	tricks  int
	last    domain.Team
	hasLast bool
}

// NewRoundScorer returns a scorer that awards bonus to the last trick's team.
func NewRoundScorer(lastTrickBonus int) *RoundScorer {
	return &RoundScorer{bonus: lastTrickBonus}
}

// Reset clears the tally for a new round.
func (s *RoundScorer) Reset() {
	s.us, s.them, s.tricks = 0, 0, 0
	s.last, s.hasLast = domain.Us, false
}

// AddTrick credits a won trick's points to team.
func (s *RoundScorer) AddTrick(team domain.Team, points int) {
	s.tricks++
	if team == domain.Us {
		s.us += points
		return
	}
	s.them += points
}

// SetLastTrickWinner records which team took the final trick.
func (s *RoundScorer) SetLastTrickWinner(team domain.Team) {
	s.last, s.hasLast = team, true
}

// Tricks returns the number of tricks recorded since Reset.
func (s *RoundScorer) Tricks() int { return s.tricks }

// Score returns the running tally without the last-trick bonus.
func (s *RoundScorer) Score() domain.RoundScore {
	return domain.RoundScore{Us: s.us, Them: s.them, LastTrick: s.last, HasLastTrick: s.hasLast}
}

// Finalize returns the round score with the last-trick bonus applied. It does
// not modify the tally, so calling it twice yields the same result.
func (s *RoundScorer) Finalize() domain.RoundScore {
	rs := s.Score()
	if !rs.HasLastTrick {
		return rs
	}
	if rs.LastTrick == domain.Us {
		rs.Us += s.bonus
	} else {
		rs.Them += s.bonus
	}
	return rs
}
