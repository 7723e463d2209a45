package nakama

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"belote/internal/bot"
	"belote/internal/domain"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sent struct {
	op         int64
	data       []byte
	recipients []string
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []sent
	labelUpdates int
	lastLabel    string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	var ids []string
	for _, p := range presences {
		ids = append(ids, p.GetUserId())
	}
	md.messages = append(md.messages, sent{op: opCode, data: append([]byte(nil), data...), recipients: ids})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) count(op int64) int {
	n := 0
	for _, m := range md.messages {
		if m.op == op {
			n++
		}
	}
	return n
}

// fakePresence overrides only what the handler reads.
type fakePresence struct {
	runtime.Presence
	userID string
}

func (p fakePresence) GetUserId() string { return p.userID }

type fakeData struct {
	runtime.MatchData
	userID string
	op     int64
	data   []byte
}

func (d fakeData) GetUserId() string { return d.userID }
func (d fakeData) GetOpCode() int64  { return d.op }
func (d fakeData) GetData() []byte   { return d.data }

func init() {
	// Load bot identities for testing.
	if err := bot.LoadIdentities("test_bot_identities.json"); err != nil {
		panic(err)
	}
}

const testMatchID = "6f1e0a52-9a61-4c7b-8d55-2b1f0f4f7a10.nakama1"

func testCtx(extra map[string]string) context.Context {
	env := map[string]string{
		"belote_ticket_secret":               "test-secret",
		"belote_bot_auto_fill_delay_seconds": "1",
		"belote_ai_think_delay_ms":           "0",
		"belote_between_turns_delay_ms":      "0",
		"belote_after_play_delay_ms":         "0",
		"belote_after_trick_delay_ms":        "0",
		"belote_target_points":               "200",
	}
	for k, v := range extra {
		env[k] = v
	}
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, env)
	return context.WithValue(ctx, runtime.RUNTIME_CTX_MATCH_ID, testMatchID)
}

func newTestMatch(t *testing.T, extra map[string]string) (*matchHandler, *MatchState, context.Context) {
	t.Helper()
	ctx := testCtx(extra)
	mh := newMatchHandler()
	state, rate, label := mh.MatchInit(ctx, noopLogger{}, nil, nil, map[string]interface{}{})
	if state == nil {
		t.Fatal("MatchInit returned nil state")
	}
	if rate != TickRate || label == "" {
		t.Fatalf("MatchInit rate=%d label=%q", rate, label)
	}
	ms := state.(*MatchState)
	t.Cleanup(func() { mh.shutdown(ms) })
	return mh, ms, ctx
}

func join(ctx context.Context, mh *matchHandler, ms *MatchState, d *mockDispatcher, tick int64, users ...string) {
	var ps []runtime.Presence
	for _, u := range users {
		ps = append(ps, fakePresence{userID: u})
	}
	mh.MatchJoin(ctx, noopLogger{}, nil, nil, d, tick, ms, ps)
}

func TestMatchInitAppliesEnvAndVariant(t *testing.T) {
	_, ms, _ := newTestMatch(t, nil)
	if ms.Config.TargetPoints != 200 || ms.Config.AIThinkDelayMs != 0 {
		t.Fatalf("env not applied: %+v", ms.Config)
	}

	ctx := testCtx(nil)
	state, _, label := newMatchHandler().MatchInit(ctx, noopLogger{}, nil, nil, map[string]interface{}{"variant": "sun_hokom"})
	if got := state.(*MatchState).Config.Variant; got != "sun_hokom" {
		t.Fatalf("variant = %q", got)
	}
	body, err := decode([]byte(label))
	if err != nil {
		t.Fatal(err)
	}
	f := body.GetFields()
	if f["game"].GetStringValue() != "belote" || !f["open"].GetBoolValue() || f["variant"].GetStringValue() != "sun_hokom" {
		t.Fatalf("label = %s", label)
	}
}

func TestMatchInitRejectsBadEnv(t *testing.T) {
	state, _, _ := newMatchHandler().MatchInit(testCtx(map[string]string{"belote_target_points": "lots"}), noopLogger{}, nil, nil, nil)
	if state != nil {
		t.Fatal("expected nil state for a bad env")
	}
}

func TestJoinSeatsClockwiseAndKeepsHumanOwner(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, nil)
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "alice", "bob")

	if ms.Table.Seats[domain.South] != "alice" || ms.Table.Seats[domain.West] != "bob" {
		t.Fatalf("seats = %v", ms.Table.Seats)
	}
	if ms.Table.OwnerUserID != "alice" || !ms.Table.Players["alice"].IsOwner {
		t.Fatalf("owner = %q", ms.Table.OwnerUserID)
	}
	if d.labelUpdates != 1 || d.count(OpTableState) != 1 {
		t.Fatalf("labels=%d table states=%d", d.labelUpdates, d.count(OpTableState))
	}

	mh.MatchLeave(ctx, noopLogger{}, nil, nil, d, 2, ms, []runtime.Presence{fakePresence{userID: "alice"}})
	if ms.Table.OwnerUserID != "bob" || ms.Table.Seats[domain.South] != "" {
		t.Fatalf("after leave owner=%q seats=%v", ms.Table.OwnerUserID, ms.Table.Seats)
	}
	if !ms.Table.Players["bob"].IsOwner {
		t.Fatal("bob should be flagged owner")
	}
}

func TestLastHumanLeavingTerminates(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, nil)
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "alice")
	if got := mh.MatchLeave(ctx, noopLogger{}, nil, nil, d, 2, ms, []runtime.Presence{fakePresence{userID: "alice"}}); got != nil {
		t.Fatal("expected termination")
	}
}

func TestJoinAttempt(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, nil)
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "a", "b", "c", "d")

	if _, ok, reason := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, d, 2, ms, fakePresence{userID: "e"}, nil); ok {
		t.Fatal("full lobby admitted a fifth player")
	} else if reason != "Match full" {
		t.Fatalf("reason = %q", reason)
	}
	if _, ok, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, d, 2, ms, fakePresence{userID: "b"}, nil); !ok {
		t.Fatal("seated player should be readmitted to the lobby")
	}

	ms.Table.Phase = domain.PhasePlaying
	now := time.Now()
	good, err := IssueSeatTicket("test-secret", testMatchID, "c", domain.North, now)
	if err != nil {
		t.Fatal(err)
	}
	wrongSeat, _ := IssueSeatTicket("test-secret", testMatchID, "c", domain.East, now)
	otherMatch, _ := IssueSeatTicket("test-secret", "other.nakama1", "c", domain.North, now)
	forged, _ := IssueSeatTicket("not-the-secret", testMatchID, "c", domain.North, now)

	tests := []struct {
		name   string
		ticket string
		want   bool
	}{
		{"valid", good, true},
		{"missing", "", false},
		{"wrong seat", wrongSeat, false},
		{"other match", otherMatch, false},
		{"forged", forged, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, _ := mh.MatchJoinAttempt(ctx, noopLogger{}, nil, nil, d, 3, ms, fakePresence{userID: "c"}, map[string]string{"ticket": tt.ticket})
			if ok != tt.want {
				t.Fatalf("admitted = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestAutoFillSeatsBotsForSoloHuman(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, nil)
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 10, "alice")

	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 11, ms, nil)
	if ms.Table.HumanCount() != 1 || len(ms.Table.Players) != 1 {
		t.Fatal("bots seated before the delay")
	}

	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 10+TickRate, ms, nil)
	if len(ms.Table.Players) != domain.NumSeats {
		t.Fatalf("players = %d, want full table", len(ms.Table.Players))
	}
	for _, userID := range ms.Table.Seats[1:] {
		if !ms.Table.Players[userID].IsBot {
			t.Fatalf("%s should be a bot", userID)
		}
	}
	if ms.Table.Phase != domain.PhaseLobby {
		t.Fatal("auto fill must not start the match")
	}
}

func TestBotsDisabledBlocksShortStart(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, map[string]string{"belote_bots_enabled": "false"})
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "alice")
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 2, ms, []runtime.MatchData{fakeData{userID: "alice", op: OpStartMatch}})
	if ms.Table.Phase != domain.PhaseLobby || d.count(OpError) != 1 {
		t.Fatalf("phase=%s errors=%d", ms.Table.Phase, d.count(OpError))
	}
}

func TestOnlyOwnerStarts(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, nil)
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "alice", "bob")
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 2, ms, []runtime.MatchData{fakeData{userID: "bob", op: OpStartMatch}})
	if ms.Table.Phase != domain.PhaseLobby {
		t.Fatal("non-owner started the match")
	}
	last := d.messages[len(d.messages)-1]
	if last.op != OpError || len(last.recipients) != 1 || last.recipients[0] != "bob" {
		t.Fatalf("last message = %+v", last)
	}
}

// runUntilClosed ticks the loop until the handler returns nil.
func runUntilClosed(t *testing.T, ctx context.Context, mh *matchHandler, ms *MatchState, d *mockDispatcher, tick int64, onTick func()) {
	t.Helper()
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		tick++
		if onTick != nil {
			onTick()
		}
		if mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, tick, ms, nil) == nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("match did not finish in time")
}

func TestAwayHumanIsPlayedByShadowToTheEnd(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, nil)
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "alice")
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 2, ms, []runtime.MatchData{fakeData{userID: "alice", op: OpStartMatch}})
	if ms.Table.Phase != domain.PhasePlaying {
		t.Fatalf("phase = %s", ms.Table.Phase)
	}
	ms.net[domain.South].SetAutopilot(true)

	runUntilClosed(t, ctx, mh, ms, d, 2, nil)

	if d.count(OpMatchStarted) != 1 || d.count(OpMatchEnded) != 1 {
		t.Fatalf("started=%d ended=%d", d.count(OpMatchStarted), d.count(OpMatchEnded))
	}
	if d.count(OpRoundEnded) == 0 || d.count(OpCardPlayed) < 32 {
		t.Fatalf("rounds=%d cards=%d", d.count(OpRoundEnded), d.count(OpCardPlayed))
	}
	if ms.Table.Phase != domain.PhaseEnded {
		t.Fatalf("phase = %s", ms.Table.Phase)
	}
	for _, m := range d.messages {
		if m.op == OpHandDealt && (len(m.recipients) != 1 || m.recipients[0] != "alice") {
			t.Fatalf("hand sent to %v", m.recipients)
		}
	}
}

func TestHumanPlaysThroughMessages(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, map[string]string{"belote_target_points": "1"})
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "alice")
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 2, ms, []runtime.MatchData{fakeData{userID: "alice", op: OpStartMatch}})
	ns := ms.net[domain.South]

	// Answer each prompt with the first option the server offered.
	answer := func() {
		ns.mu.Lock()
		bidReq, cardReq := ns.bidReq, ns.cardReq
		ns.mu.Unlock()
		var msg runtime.MatchData
		switch {
		case bidReq != nil:
			data, _ := encode(map[string]any{"kind": "pass"})
			msg = fakeData{userID: "alice", op: OpPlaceBid, data: data}
		case cardReq != nil:
			data, _ := encode(map[string]any{"card": cardReq.Legal[0].String()})
			msg = fakeData{userID: "alice", op: OpPlayCard, data: data}
		default:
			return
		}
		mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, ms.Tick, ms, []runtime.MatchData{msg})
	}
	runUntilClosed(t, ctx, mh, ms, d, 2, answer)

	if d.count(OpMatchEnded) != 1 {
		t.Fatalf("ended = %d", d.count(OpMatchEnded))
	}
	if d.count(OpBidRequest) == 0 || d.count(OpCardRequest) == 0 {
		t.Fatalf("prompts: bids=%d cards=%d", d.count(OpBidRequest), d.count(OpCardRequest))
	}
	if d.count(OpError) != 0 {
		t.Fatalf("unexpected errors: %d", d.count(OpError))
	}
}

func TestStopMatchByOwner(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, nil)
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "alice")
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, 2, ms, []runtime.MatchData{fakeData{userID: "alice", op: OpStartMatch}})
	tick := int64(2)
	for d.count(OpMatchStarted) == 0 {
		tick++
		mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, tick, ms, nil)
		time.Sleep(time.Millisecond)
	}
	mh.MatchLoop(ctx, noopLogger{}, nil, nil, d, tick+1, ms, []runtime.MatchData{fakeData{userID: "alice", op: OpStopMatch}})

	runUntilClosed(t, ctx, mh, ms, d, tick+1, nil)
	if d.count(OpMatchStopped) != 1 || d.count(OpMatchEnded) != 0 {
		t.Fatalf("stopped=%d ended=%d", d.count(OpMatchStopped), d.count(OpMatchEnded))
	}
}

func TestMatchSignalSeatOf(t *testing.T) {
	mh, ms, ctx := newTestMatch(t, nil)
	d := &mockDispatcher{}
	join(ctx, mh, ms, d, 1, "alice", "bob")

	tests := []struct {
		data string
		want string
	}{
		{signalSeatOf + "alice", "0"},
		{signalSeatOf + "bob", strconv.Itoa(int(domain.West))},
		{signalSeatOf + "carol", ""},
		{"unknown", ""},
	}
	for _, tt := range tests {
		if _, got := mh.MatchSignal(ctx, noopLogger{}, nil, nil, d, 2, ms, tt.data); got != tt.want {
			t.Errorf("MatchSignal(%q) = %q, want %q", tt.data, got, tt.want)
		}
	}
}
