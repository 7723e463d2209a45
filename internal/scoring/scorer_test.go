package scoring

import (
	"testing"

	"belote/internal/domain"
)

func TestLastTrickBonusGoesToWinner(t *testing.T) {
	s := NewRoundScorer(10)
	for _, pts := range []int{20, 15, 25, 20} {
		s.AddTrick(domain.Us, pts)
	}
	for _, pts := range []int{30, 22, 20} {
		s.AddTrick(domain.Them, pts)
	}
	s.AddTrick(domain.Us, 0)
	s.SetLastTrickWinner(domain.Us)

	got := s.Finalize()
	if got.Us != 90 || got.Them != 72 {
		t.Fatalf("Finalize() = %+v, want us 90 them 72", got)
	}
	if got.Total() != domain.ClassicRoundTotal {
		t.Fatalf("total = %d, want %d", got.Total(), domain.ClassicRoundTotal)
	}
	if again := s.Finalize(); again != got {
		t.Fatalf("Finalize is not repeatable: %+v vs %+v", again, got)
	}
	if s.Tricks() != 8 {
		t.Fatalf("Tricks() = %d", s.Tricks())
	}
}

func TestResetClearsTally(t *testing.T) {
	s := NewRoundScorer(10)
	s.AddTrick(domain.Them, 40)
	s.SetLastTrickWinner(domain.Them)
	s.Reset()
	if got := s.Finalize(); got != (domain.RoundScore{}) {
		t.Fatalf("after Reset Finalize() = %+v", got)
	}
}

func TestNoBonusWithoutLastTrick(t *testing.T) {
	s := NewRoundScorer(10)
	s.AddTrick(domain.Them, 12)
	if got := s.Finalize(); got.Them != 12 || got.Us != 0 {
		t.Fatalf("Finalize() = %+v", got)
	}
}
