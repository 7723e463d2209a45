package bot

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"belote/internal/bidding"
	"belote/internal/domain"
	"belote/internal/play"
)

// ScriptBrain delegates decisions to Lua functions choose_bid(req) and
// choose_card(req). Each returns a 1-based index into req.allowed or
// req.legal. A missing function, a script error or an out-of-range answer
// falls back to the wrapped brain.
type ScriptBrain struct {
	mu       sync.Mutex
	state    *lua.LState
	fallback Brain
	logger   *zap.Logger
}

// NewScriptBrain compiles src.
func NewScriptBrain(src string, fallback Brain, logger *zap.Logger) (*ScriptBrain, error) {
	return newScriptBrain(fallback, logger, func(L *lua.LState) error { return L.DoString(src) })
}

// LoadScriptBrain compiles the script at path.
func LoadScriptBrain(path string, fallback Brain, logger *zap.Logger) (*ScriptBrain, error) {
	return newScriptBrain(fallback, logger, func(L *lua.LState) error { return L.DoFile(path) })
}

func newScriptBrain(fallback Brain, logger *zap.Logger, load func(*lua.LState) error) (*ScriptBrain, error) {
	if fallback == nil {
		fallback = &GoodBot{Tuning: DefaultTuning}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	L := lua.NewState()
	if err := load(L); err != nil {
		L.Close()
		return nil, fmt.Errorf("load bot script: %w", err)
	}
	return &ScriptBrain{state: L, fallback: fallback, logger: logger}, nil
}

// Close releases the Lua state.
func (s *ScriptBrain) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Close()
}

func (s *ScriptBrain) ChooseBid(v View, req bidding.BidRequest) domain.Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	L := s.state
	t := L.NewTable()
	t.RawSetString("seat", lua.LString(req.Seat.String()))
	t.RawSetString("hand", cardsTable(L, v.Hand))
	t.RawSetString("high", bidTable(L, req.High))
	t.RawSetString("multiplier", lua.LNumber(req.Auction.Multiplier))
	allowed := L.NewTable()
	for i, b := range req.Allowed {
		allowed.RawSetInt(i+1, bidTable(L, b))
	}
	t.RawSetString("allowed", allowed)

	idx, ok := s.call("choose_bid", t, len(req.Allowed))
	if !ok {
		return s.fallback.ChooseBid(v, req)
	}
	return req.Allowed[idx]
}

func (s *ScriptBrain) ChooseCard(v View, req play.ChooseRequest) domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	L := s.state
	st := req.State
	t := L.NewTable()
	t.RawSetString("seat", lua.LString(req.Seat.String()))
	t.RawSetString("trump", lua.LString(st.Trump.String()))
	t.RawSetString("trick_index", lua.LNumber(st.TrickIndex))
	t.RawSetString("hand", cardsTable(L, req.Hand))
	t.RawSetString("legal", cardsTable(L, req.Legal))
	t.RawSetString("trick", cardsTable(L, st.Trick.Cards()))
	if !st.Trick.IsLeading() {
		t.RawSetString("lead", lua.LString(st.Trick.LeadSuit().String()))
	}

	idx, ok := s.call("choose_card", t, len(req.Legal))
	if !ok {
		return s.fallback.ChooseCard(v, req)
	}
	return req.Legal[idx]
}

// call invokes fn and converts its 1-based answer to a slice index.
func (s *ScriptBrain) call(fn string, arg *lua.LTable, n int) (int, bool) {
	L := s.state
	f := L.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return 0, false
	}
	if err := L.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, arg); err != nil {
		s.logger.Warn("bot script failed", zap.String("fn", fn), zap.Error(err))
		return 0, false
	}
	ret := L.Get(-1)
	L.Pop(1)
	num, ok := ret.(lua.LNumber)
	if !ok || int(num) < 1 || int(num) > n {
		s.logger.Warn("bot script answer out of range", zap.String("fn", fn), zap.String("answer", ret.String()))
		return 0, false
	}
	return int(num) - 1, true
}

func cardsTable(L *lua.LState, cards []domain.Card) *lua.LTable {
	t := L.NewTable()
	for i, c := range cards {
		t.RawSetInt(i+1, lua.LString(c.String()))
	}
	return t
}

func bidTable(L *lua.LState, b domain.Bid) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("kind", lua.LString(b.Kind.String()))
	if b.IsTake() {
		t.RawSetString("suit", lua.LString(b.Suit.String()))
		t.RawSetString("level", lua.LNumber(b.Level))
	}
	return t
}
