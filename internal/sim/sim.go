// Package sim runs bot-only matches and checks the round invariants on every
// event they emit.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"belote/internal/app"
	"belote/internal/bidding"
	"belote/internal/bot"
	"belote/internal/config"
	"belote/internal/domain"
	"belote/internal/play"
	"belote/internal/rules"
)

// ErrInvariant marks a broken round invariant.
var ErrInvariant = errors.New("invariant violated")

// Options tunes a self-play run.
type Options struct {
	Config config.GameConfig
	// Rounds caps the number of dealt rounds, redeals included. Zero plays
	// until the match is won.
	Rounds int
	Logger *zap.Logger
}

// Report summarizes a run.
type Report struct {
	Seed    int64
	Rounds  int
	Redeals int
	Tricks  int
	Score   domain.MatchScore
	Winner  domain.Team
	Over    bool
}

// Failure locates a broken invariant.
type Failure struct {
	Seed  int64
	Round int
	Trick int
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("seed %d round %d trick %d: %v", f.Seed, f.Round, f.Trick, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Paced reports whether cfg would sleep between moves.
func Paced(cfg config.GameConfig) bool {
	return cfg.AIThinkDelayMs > 0 || cfg.BetweenTurnsDelayMs > 0 || cfg.AfterPlayDelayMs > 0 || cfg.AfterTrickDelayMs > 0
}

// Unpaced returns cfg with every delay removed.
func Unpaced(cfg config.GameConfig) config.GameConfig {
	cfg.AIThinkDelayMs, cfg.BetweenTurnsDelayMs, cfg.AfterPlayDelayMs, cfg.AfterTrickDelayMs = 0, 0, 0, 0
	return cfg
}

// RunSelfPlay plays seed's match between four bots of the configured level.
func RunSelfPlay(ctx context.Context, seed int64, opts Options) (Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := opts.Config
	profile, _, err := app.BuildRules(cfg)
	if err != nil {
		return Report{Seed: seed}, err
	}

	svc := app.NewService(rand.New(rand.NewSource(seed)), logger)
	seats := app.Seats{Bidders: bidding.NewRegistry(), Choosers: play.NewRegistry()}
	for _, seat := range domain.Seats {
		rng := rand.New(rand.NewSource(seed*int64(domain.NumSeats) + int64(seat)))
		agent, err := bot.NewAgentFromConfig("sim-"+seat.String(), seat.String(), cfg, profile, rng, logger)
		if err != nil {
			return Report{Seed: seed}, err
		}
		seats.Bidders.Register(seat, agent)
		seats.Choosers.Register(seat, agent)
		seats.UserIDs[seat] = seat.String()
	}

	chk := newChecker(seed, cfg, profile)
	m, err := svc.NewMatch(cfg, seats, app.WithSink(chk), app.WithMatchLogger(logger))
	if err != nil {
		return Report{Seed: seed}, err
	}

	rep := Report{Seed: seed}
	redeals := 0
	for opts.Rounds == 0 || rep.Rounds < opts.Rounds {
		if winner, over := m.Winner(); over {
			rep.Winner, rep.Over = winner, true
			break
		}
		out, err := m.PlayRound(ctx)
		if err != nil {
			return rep, err
		}
		if chk.err != nil {
			return rep, chk.err
		}
		rep.Rounds++
		if out.Redealt {
			rep.Redeals++
			redeals++
			if redeals >= app.MaxConsecutiveRedeals {
				return rep, app.ErrTooManyRedeals
			}
			continue
		}
		redeals = 0
		rep.Tricks += len(out.Result.Tricks)
	}
	rep.Score = m.Score()
	return rep, nil
}

// checker follows the event stream of one match.
type checker struct {
	seed    int64
	cfg     config.GameConfig
	profile rules.Profile

	round    int
	dealer   domain.Seat
	hands    map[domain.Seat][]domain.Card
	contract domain.Contract
	trick    domain.Trick
	tricks   int
	points   int
	err      error
}

func newChecker(seed int64, cfg config.GameConfig, profile rules.Profile) *checker {
	return &checker{seed: seed, cfg: cfg, profile: profile}
}

func (c *checker) fail(format string, args ...any) {
	if c.err == nil {
		c.err = &Failure{Seed: c.seed, Round: c.round, Trick: c.tricks, Err: fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)}
	}
}

// Publish implements app.EventSink.
func (c *checker) Publish(ev app.Event) {
	switch p := ev.Payload.(type) {
	case app.RoundStartedPayload:
		c.round, c.dealer = p.Round, p.Dealer
		c.hands = make(map[domain.Seat][]domain.Card, domain.NumSeats)
		c.tricks, c.points = 0, 0
	case app.HandDealtPayload:
		c.onHand(p)
	case app.ContractSetPayload:
		c.contract = p.Contract
		c.trick = domain.NewTrick(c.dealer.Next())
	case app.CardPlayedPayload:
		c.onCard(p)
	case app.TrickResolvedPayload:
		c.onTrick(p)
	case app.RoundEndedPayload:
		c.onRoundEnded(p)
	}
}

func (c *checker) onHand(p app.HandDealtPayload) {
	if len(p.Hand) != domain.HandSize {
		c.fail("%s dealt %d cards", p.Seat, len(p.Hand))
	}
	for _, h := range c.hands {
		for _, card := range p.Hand {
			if domain.ContainsCard(h, card) {
				c.fail("%s dealt twice", card)
			}
		}
	}
	c.hands[p.Seat] = append([]domain.Card(nil), p.Hand...)
}

func (c *checker) onCard(p app.CardPlayedPayload) {
	if p.Seat != c.trick.NextSeat() {
		c.fail("%s played out of turn, want %s", p.Seat, c.trick.NextSeat())
	}
	hand := c.hands[p.Seat]
	st := rules.State{Trump: c.contract.Trump, Contract: c.contract, Trick: c.trick, TrickIndex: c.tricks, Seat: p.Seat}
	legal := c.profile.LegalMoves.GetLegalMoves(st, hand, p.Seat)
	if len(legal) == 0 {
		c.fail("no legal move for %s holding %v", p.Seat, hand)
	}
	for _, l := range legal {
		if !domain.ContainsCard(hand, l) {
			c.fail("legal move %s not in %s's hand", l, p.Seat)
		}
	}
	if c.cfg.MustFollowSuit && len(c.trick.Plays) > 0 {
		lead := c.trick.LeadSuit()
		if domain.HasSuit(hand, lead) {
			for _, l := range legal {
				if l.Suit != lead {
					c.fail("%s may discard %s while holding %s", p.Seat, l, lead)
				}
			}
		}
	}
	if !domain.ContainsCard(legal, p.Card) {
		c.fail("%s played illegal %s", p.Seat, p.Card)
	}
	c.hands[p.Seat] = domain.RemoveCard(hand, p.Card)
	if err := c.trick.Add(p.Seat, p.Card); err != nil {
		c.fail("trick rejected %s: %v", p.Card, err)
	}
}

func (c *checker) onTrick(p app.TrickResolvedPayload) {
	winner, points, err := c.profile.Resolver.Resolve(c.trick, c.contract.Trump)
	if err != nil {
		c.fail("resolve: %v", err)
	}
	if winner != p.Winner || points != p.Points {
		c.fail("trick %d reported %s/%d, expected %s/%d", p.TrickIndex, p.Winner, p.Points, winner, points)
	}
	c.tricks++
	c.points += points
	c.trick = domain.NewTrick(p.Winner)
}

func (c *checker) onRoundEnded(p app.RoundEndedPayload) {
	if c.tricks != domain.HandSize {
		c.fail("round ended after %d tricks", c.tricks)
	}
	for seat, h := range c.hands {
		if len(h) != 0 {
			c.fail("%s still holds %v", seat, h)
		}
	}
	if got, want := p.Round.Total(), c.points+c.cfg.LastTrickBonus; got != want {
		c.fail("round total %d, tricks plus bonus %d", got, want)
	}
	if c.cfg.Variant == config.VariantClassic && !p.Contract.AllPassed() && p.Round.Total() != domain.ClassicRoundTotal {
		c.fail("classic round total %d", p.Round.Total())
	}
}
