package onboarding

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"belote/internal/ports"
)

// ErrNotConfigured is returned when the service has nowhere to store names.
var ErrNotConfigured = errors.New("onboarding service not configured")

// Result captures onboarding outcomes.
type Result struct {
	DisplayName string
}

// Service handles post-auth onboarding for new users.
type Service struct {
	accounts ports.TableNames

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService constructs an onboarding service.
// rng may be nil to use a time-seeded default.
func NewService(accounts ports.TableNames, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{accounts: accounts, rng: rng}
}

// OnboardNewUser gives a newly created account a friendly table name.
func (s *Service) OnboardNewUser(ctx context.Context, userID string) (Result, error) {
	if s.accounts == nil {
		return Result{}, ErrNotConfigured
	}
	name := s.generateFriendlyName()
	if err := s.accounts.SetTableName(ctx, userID, name, name); err != nil {
		return Result{}, fmt.Errorf("update profile for %s: %w", userID, err)
	}
	return Result{DisplayName: name}, nil
}

func (s *Service) generateFriendlyName() string {
	adjectives := []string{"Bold", "Sly", "Lucky", "Quiet", "Swift", "Calm", "Sharp", "Witty", "Steady", "Wild"}
	nouns := []string{"Jack", "Nine", "Ace", "Dealer", "Trump", "Knave", "Queen", "King", "Falcon", "Fox"}

	s.mu.Lock()
	defer s.mu.Unlock()
	adj := adjectives[s.rng.Intn(len(adjectives))]
	noun := nouns[s.rng.Intn(len(nouns))]
	num := s.rng.Intn(9000) + 1000
	return fmt.Sprintf("%s%s%d", adj, noun, num)
}
