package app

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"belote/internal/async"
	"belote/internal/bidding"
	"belote/internal/domain"
	"belote/internal/rules"
	"belote/internal/scoring"
)

// scriptedBids answers every request from one shared queue, checking that
// the asking seat matches the scripted seat.
type scriptedBids struct {
	w *acceptance
}

func (s scriptedBids) BeginBid(_ context.Context, req bidding.BidRequest) <-chan domain.Bid {
	s.w.asked++
	if len(s.w.script) == 0 {
		return async.Resolved(domain.Pass()).C()
	}
	next := s.w.script[0]
	s.w.script = s.w.script[1:]
	if next.seat != req.Seat {
		s.w.errs = append(s.w.errs, fmt.Errorf("asked %v, script expected %v", req.Seat, next.seat))
	}
	return async.Resolved(next.bid).C()
}
func (scriptedBids) Cancel()       {}
func (scriptedBids) IsHuman() bool { return true }

type scriptedBid struct {
	seat domain.Seat
	bid  domain.Bid
}

type acceptance struct {
	dealer   domain.Seat
	script   []scriptedBid
	asked    int
	errs     []error
	contract domain.Contract

	profile rules.Profile
	trump   domain.Suit
	trick   domain.Trick
	winner  domain.Seat
	points  int
	legal   []domain.Card

	scorer *scoring.RoundScorer
	score  domain.RoundScore
}

func parseBid(v string) (domain.Bid, error) {
	f := strings.Fields(v)
	switch {
	case len(f) == 1 && f[0] == "pass":
		return domain.Pass(), nil
	case len(f) == 1 && f[0] == "double":
		return domain.Double(), nil
	case len(f) == 1 && f[0] == "redouble":
		return domain.Redouble(), nil
	case len(f) == 3 && f[0] == "take":
		s, err := domain.ParseSuit(f[1])
		if err != nil {
			return domain.Bid{}, err
		}
		var level int
		if _, err := fmt.Sscanf(f[2], "%d", &level); err != nil {
			return domain.Bid{}, err
		}
		return domain.Take(s, level), nil
	}
	return domain.Bid{}, fmt.Errorf("bad bid %q", v)
}

func (w *acceptance) classicAuction(dealer string) error {
	s, err := domain.ParseSeat(dealer)
	w.dealer = s
	return err
}

func (w *acceptance) seatsAnswer(table *godog.Table) error {
	for _, row := range table.Rows[1:] {
		seat, err := domain.ParseSeat(row.Cells[0].Value)
		if err != nil {
			return err
		}
		b, err := parseBid(row.Cells[1].Value)
		if err != nil {
			return err
		}
		w.script = append(w.script, scriptedBid{seat: seat, bid: b})
	}
	return nil
}

func (w *acceptance) everySeatPasses() error {
	for _, s := range domain.Order(w.dealer.Next()) {
		w.script = append(w.script, scriptedBid{seat: s, bid: domain.Pass()})
	}
	return nil
}

func (w *acceptance) auctionRuns() error {
	reg := bidding.NewRegistry()
	for _, s := range domain.Seats {
		reg.Register(s, scriptedBids{w: w})
	}
	eng, err := bidding.NewEngine(bidding.NewClassicRules(bidding.Options{MaxLevel: 1}), reg)
	if err != nil {
		return err
	}
	w.contract, err = eng.Run(context.Background(), w.dealer)
	if err != nil {
		return err
	}
	if len(w.errs) > 0 {
		return w.errs[0]
	}
	return nil
}

func (w *acceptance) contractIs(seat, suit string, level int) error {
	s, err := domain.ParseSeat(seat)
	if err != nil {
		return err
	}
	tr, err := domain.ParseSuit(suit)
	if err != nil {
		return err
	}
	c := w.contract
	if c.Declarer != s || c.Trump != tr || c.Level != level {
		return fmt.Errorf("contract = %v, want %v %v %d", c, s, tr, level)
	}
	return nil
}

func (w *acceptance) contractAllPassed() error {
	if !w.contract.AllPassed() {
		return fmt.Errorf("contract %v is not all-passed", w.contract)
	}
	return nil
}

func (w *acceptance) bidsRequested(n int) error {
	if w.asked != n {
		return fmt.Errorf("asked %d times, want %d", w.asked, n)
	}
	return nil
}

func (w *acceptance) classicRound(suit string) error {
	s, err := domain.ParseSuit(suit)
	if err != nil {
		return err
	}
	w.profile, w.trump = rules.NewClassicProfile(rules.ClassicFlags(), 10), s
	return nil
}

func (w *acceptance) sunRound() error {
	w.profile, w.trump = rules.NewSunHokomProfile(rules.SunHokomFlags(), 10, 2, 1), domain.NoTrump
	return nil
}

func (w *acceptance) leadsTrick(seat, cards string) error {
	leader, err := domain.ParseSeat(seat)
	if err != nil {
		return err
	}
	w.trick = domain.NewTrick(leader)
	for i, c := range domain.MustParseCards(cards) {
		if err := w.trick.Add(domain.Order(leader)[i], c); err != nil {
			return err
		}
	}
	return nil
}

func (w *acceptance) trickResolved() (err error) {
	w.winner, w.points, err = w.profile.Resolver.Resolve(w.trick, w.trump)
	return err
}

func (w *acceptance) winsTrick(seat string, points int) error {
	s, err := domain.ParseSeat(seat)
	if err != nil {
		return err
	}
	if w.winner != s || w.points != points {
		return fmt.Errorf("winner %v with %d, want %v with %d", w.winner, w.points, s, points)
	}
	return nil
}

func (w *acceptance) asksLegal(seat, hand string) error {
	s, err := domain.ParseSeat(seat)
	if err != nil {
		return err
	}
	st := rules.State{Trump: w.trump, Trick: w.trick.Clone(), Seat: s}
	w.legal = w.profile.LegalMoves.GetLegalMoves(st, domain.MustParseCards(hand), s)
	return nil
}

func (w *acceptance) legalAre(cards string) error {
	want := domain.MustParseCards(cards)
	if len(want) != len(w.legal) {
		return fmt.Errorf("legal = %v, want %v", w.legal, want)
	}
	for _, c := range want {
		if !domain.ContainsCard(w.legal, c) {
			return fmt.Errorf("legal = %v, want %v", w.legal, want)
		}
	}
	return nil
}

func parseTeam(v string) (domain.Team, error) {
	switch v {
	case "us":
		return domain.Us, nil
	case "them":
		return domain.Them, nil
	}
	return 0, fmt.Errorf("unknown team %q", v)
}

func (w *acceptance) teamTook(team string, points, tricks int) error {
	t, err := parseTeam(team)
	if err != nil {
		return err
	}
	if w.scorer == nil {
		w.scorer = scoring.NewRoundScorer(10)
	}
	w.scorer.AddTrick(t, points)
	for i := 1; i < tricks; i++ {
		w.scorer.AddTrick(t, 0)
	}
	return nil
}

func (w *acceptance) teamTookPoints(team string, points int) error {
	return w.teamTook(team, points, 1)
}

func (w *acceptance) winsLastTrick(team string) error {
	t, err := parseTeam(team)
	if err != nil {
		return err
	}
	w.scorer.SetLastTrickWinner(t)
	w.score = w.scorer.Finalize()
	return nil
}

func (w *acceptance) roundScoreIs(us, them int) error {
	if w.score.Us != us || w.score.Them != them {
		return fmt.Errorf("score = %+v, want %d/%d", w.score, us, them)
	}
	return nil
}

func (w *acceptance) roundTotalIs(total int) error {
	if w.score.Total() != total {
		return fmt.Errorf("total = %d, want %d", w.score.Total(), total)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	w := &acceptance{}
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		*w = acceptance{}
		return ctx, nil
	})

	ctx.Step(`^a classic auction dealt by (\w+)$`, w.classicAuction)
	ctx.Step(`^the seats answer in order:$`, w.seatsAnswer)
	ctx.Step(`^every seat passes$`, w.everySeatPasses)
	ctx.Step(`^the auction runs$`, w.auctionRuns)
	ctx.Step(`^the contract is declared by (\w+) in (\w+) at level (\d+)$`, w.contractIs)
	ctx.Step(`^the contract is all-passed$`, w.contractAllPassed)
	ctx.Step(`^(\d+) bids were requested$`, w.bidsRequested)

	ctx.Step(`^a classic round with (\w+) as trump$`, w.classicRound)
	ctx.Step(`^a sun round$`, w.sunRound)
	ctx.Step(`^(\w+) leads a trick of "([^"]*)"$`, w.leadsTrick)
	ctx.Step(`^the trick is resolved$`, w.trickResolved)
	ctx.Step(`^(\w+) wins the trick with (\d+) points$`, w.winsTrick)
	ctx.Step(`^(\w+) holding "([^"]*)" asks for legal moves$`, w.asksLegal)
	ctx.Step(`^the legal moves are "([^"]*)"$`, w.legalAre)

	ctx.Step(`^(us|them) took (\d+) points over (\d+) tricks$`, w.teamTook)
	ctx.Step(`^(us|them) took (\d+) points$`, w.teamTookPoints)
	ctx.Step(`^(us|them) wins the last trick$`, w.winsLastTrick)
	ctx.Step(`^the round score is (\d+) to (\d+)$`, w.roundScoreIs)
	ctx.Step(`^the round total is (\d+)$`, w.roundTotalIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
