package nakama

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"belote/internal/app"
	"belote/internal/bidding"
	"belote/internal/bot"
	"belote/internal/config"
	"belote/internal/domain"
	"belote/internal/play"
)

const (
	envPrefix = app.EnvPrefix
	// endGraceTicks keeps an ended match alive long enough to flush results.
	endGraceTicks = 5 * TickRate
	maxBotPicks   = 16
)

// runResult is what the match goroutine reports when Run returns.
type runResult struct {
	winner domain.Team
	err    error
}

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Table     *domain.MatchState
	Config    config.GameConfig
	Presences map[string]runtime.Presence // UserId -> Presence for targeted messaging
	Tick      int64

	BotsEnabled          bool
	LastSinglePlayerTick int64
	EndedTick            int64

	matchID string
	secret  string
	logger  *zap.Logger
	rng     *rand.Rand
	svc     *app.Service
	match   *app.Match
	net     map[domain.Seat]*netSeat
	out     *outbox
	done    chan runResult
	cancel  context.CancelFunc
}

func (ms *MatchState) isOwner(userID string) bool {
	return userID != "" && ms.Table.OwnerUserID == userID
}

// assignOwner keeps the owner on a seated human, preferring the current one.
func (ms *MatchState) assignOwner() {
	if p, ok := ms.Table.Players[ms.Table.OwnerUserID]; !ok || p.IsBot {
		ms.Table.OwnerUserID = ""
		for _, userID := range ms.Table.Seats {
			if p, ok := ms.Table.Players[userID]; ok && !p.IsBot {
				ms.Table.OwnerUserID = userID
				break
			}
		}
	}
	for userID, p := range ms.Table.Players {
		p.IsOwner = userID == ms.Table.OwnerUserID
	}
}

// connectedHumans counts human players currently present.
func (ms *MatchState) connectedHumans() int {
	n := 0
	for _, p := range ms.Table.Players {
		if !p.IsBot && p.Connected {
			n++
		}
	}
	return n
}

type matchHandler struct{}

func newMatchHandler() *matchHandler { return &matchHandler{} }

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}

	cfg := config.GetGameConfig()
	if v, _ := params["variant"].(string); v == config.VariantSunHokom {
		cfg = config.DefaultSunHokom()
	}
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if err := cfg.ApplyEnv(env, envPrefix); err != nil {
		logger.Error("MatchInit: Bad game config in env: %v", err)
		return nil, 0, ""
	}
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)

	zlog := newZapLogger(logger, zapcore.InfoLevel).With(zap.String("match_id", matchID))
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	state := &MatchState{
		Table:       domain.NewMatchState(cfg.Variant),
		Config:      cfg,
		Presences:   make(map[string]runtime.Presence),
		BotsEnabled: env[envPrefix+"bots_enabled"] != "false",
		matchID:     matchID,
		secret:      ticketSecret(ctx, logger),
		logger:      zlog,
		rng:         rng,
		svc:         app.NewService(rand.New(rand.NewSource(rng.Int63())), zlog),
		net:         make(map[domain.Seat]*netSeat),
		out:         newOutbox(outboxSize),
		done:        make(chan runResult, 1),
	}

	label, err := encodeLabel(domain.ComputeLabel(state.Table))
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, TickRate, label
}

// MatchJoinAttempt admits lobby players while a seat is free or held by a
// bot. Once playing, only a valid seat ticket gets a player back in.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	ms, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	switch ms.Table.Phase {
	case domain.PhaseLobby:
		if _, seated := ms.Table.SeatOf(presence.GetUserId()); seated {
			return ms, true, ""
		}
		if _, free := domain.LowestAvailableSeat(&ms.Table.Seats); free {
			return ms, true, ""
		}
		if _, ok := firstBotSeat(ms); ok {
			return ms, true, ""
		}
		return ms, false, "Match full"
	case domain.PhasePlaying:
		claims, err := ParseSeatTicket(ms.secret, metadata["ticket"])
		if err != nil {
			logger.Warn("MatchJoinAttempt: Rejected %s: %v", presence.GetUserId(), err)
			return ms, false, "seat ticket required"
		}
		seat := domain.Seat(claims.Seat)
		if claims.MatchID != ms.matchID || claims.Subject != presence.GetUserId() || ms.Table.Seats[seat] != presence.GetUserId() {
			return ms, false, "seat ticket does not match"
		}
		return ms, true, ""
	default:
		return ms, false, "Match ended"
	}
}

func firstBotSeat(ms *MatchState) (domain.Seat, bool) {
	for i, userID := range ms.Table.Seats {
		if p, ok := ms.Table.Players[userID]; ok && p.IsBot {
			return domain.Seat(i), true
		}
	}
	return domain.South, false
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		ms.Presences[userID] = p

		if player, seated := ms.Table.Players[userID]; seated {
			player.Connected = true
			if ns, ok := ms.net[player.Seat]; ok {
				ns.SetAutopilot(false)
				logger.Info("MatchJoin: User %s reclaimed seat %s.", userID, player.Seat)
			}
			continue
		}
		if ms.Table.Phase != domain.PhaseLobby {
			continue
		}

		seat, free := domain.LowestAvailableSeat(&ms.Table.Seats)
		if !free {
			botSeat, ok := firstBotSeat(ms)
			if !ok {
				logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", userID)
				continue
			}
			logger.Info("MatchJoin: Replacing bot %s with human %s in seat %s", ms.Table.Seats[botSeat], userID, botSeat)
			delete(ms.Table.Players, ms.Table.Seats[botSeat])
			seat = botSeat
		}
		ms.Table.Seats[seat] = userID
		ms.Table.Players[userID] = &domain.Player{UserID: userID, Seat: seat, Connected: true}
	}

	ms.assignOwner()
	if ms.Table.HumanCount() == 1 {
		ms.LastSinglePlayerTick = tick
	}

	mh.updateLabel(ms, dispatcher, logger)
	mh.broadcastTableState(ms, dispatcher, logger)
	return ms
}

// MatchLeave frees lobby seats. During play the seat stays reserved and its
// shadow agent takes over until the player returns with a ticket.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		delete(ms.Presences, userID)
		player, seated := ms.Table.Players[userID]
		if !seated {
			continue
		}
		if ms.Table.Phase == domain.PhaseLobby {
			ms.Table.Seats[player.Seat] = ""
			delete(ms.Table.Players, userID)
			logger.Debug("MatchLeave: User %s left, seat %s freed.", userID, player.Seat)
			continue
		}
		player.Connected = false
		if ns, ok := ms.net[player.Seat]; ok {
			ns.SetAutopilot(true)
			logger.Info("MatchLeave: User %s left, seat %s on autopilot.", userID, player.Seat)
		}
	}

	if ms.connectedHumans() == 0 {
		logger.Info("MatchLeave: Terminating match with no humans.")
		mh.shutdown(ms)
		return nil
	}
	if ms.Table.Phase == domain.PhaseLobby {
		prev := ms.Table.OwnerUserID
		ms.assignOwner()
		if ms.Table.OwnerUserID != prev {
			logger.Debug("MatchLeave: Owner set to %s.", ms.Table.OwnerUserID)
		}
	}

	mh.updateLabel(ms, dispatcher, logger)
	mh.broadcastTableState(ms, dispatcher, logger)
	return ms
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		return state
	}
	ms.Tick = tick

	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartMatch:
			mh.handleStartMatch(ms, dispatcher, logger, msg)
		case OpPlaceBid:
			mh.handlePlaceBid(ms, dispatcher, logger, msg)
		case OpPlayCard:
			mh.handlePlayCard(ms, dispatcher, logger, msg)
		case OpStopMatch:
			mh.handleStopMatch(ms, dispatcher, logger, msg)
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	if ms.Table.Phase == domain.PhaseLobby && ms.BotsEnabled {
		mh.autoFill(ms, dispatcher, logger)
	}

	// Check for completion before draining so the final events go out with it.
	var finished *runResult
	select {
	case res := <-ms.done:
		finished = &res
	default:
	}
	ms.out.drain(func(m outMsg) { mh.dispatch(ms, dispatcher, logger, m) })

	if finished != nil {
		mh.finish(ms, dispatcher, logger, *finished)
	}
	if ms.Table.Phase == domain.PhaseEnded && tick-ms.EndedTick >= endGraceTicks {
		logger.Info("MatchLoop: Closing ended match.")
		return nil
	}
	return ms
}

// autoFill seats bots beside a lone human who has waited long enough.
func (mh *matchHandler) autoFill(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if ms.Table.HumanCount() != 1 {
		return
	}
	if ms.Tick-ms.LastSinglePlayerTick < int64(ms.Config.BotAutoFillDelaySeconds*TickRate) {
		return
	}
	if _, free := domain.LowestAvailableSeat(&ms.Table.Seats); !free {
		return
	}
	mh.fillBots(ms, logger)
	mh.updateLabel(ms, dispatcher, logger)
	mh.broadcastTableState(ms, dispatcher, logger)
}

func (mh *matchHandler) fillBots(ms *MatchState, logger runtime.Logger) {
	next := ms.rng.Intn(1 << 16)
	for {
		seat, free := domain.LowestAvailableSeat(&ms.Table.Seats)
		if !free {
			return
		}
		userID := ""
		for tries := 0; tries < maxBotPicks && userID == ""; tries++ {
			identity := bot.GetBotIdentity(next)
			next++
			if _, taken := ms.Table.Players[identity.UserID]; !taken {
				userID = identity.UserID
			}
		}
		if userID == "" {
			userID = "bot-" + uuid.NewString()
		}
		ms.Table.Seats[seat] = userID
		ms.Table.Players[userID] = &domain.Player{UserID: userID, Seat: seat, IsBot: true, Connected: true}
		logger.Debug("fillBots: Seated bot %s at %s.", userID, seat)
	}
}

func (mh *matchHandler) handleStartMatch(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	if !ms.isOwner(userID) {
		mh.sendError(ms, dispatcher, logger, userID, 403, "only the owner can start the match")
		return
	}
	if ms.Table.Phase != domain.PhaseLobby {
		mh.sendError(ms, dispatcher, logger, userID, 409, "match already started")
		return
	}
	if _, free := domain.LowestAvailableSeat(&ms.Table.Seats); free {
		if !ms.BotsEnabled {
			mh.sendError(ms, dispatcher, logger, userID, 409, "table is not full")
			return
		}
		mh.fillBots(ms, logger)
	}
	if err := mh.startMatch(ms); err != nil {
		logger.Error("handleStartMatch: %v", err)
		mh.sendError(ms, dispatcher, logger, userID, 500, "could not start match")
		return
	}
	mh.updateLabel(ms, dispatcher, logger)
	mh.broadcastTableState(ms, dispatcher, logger)
}

// startMatch wires every seat and runs the match on its own goroutine.
func (mh *matchHandler) startMatch(ms *MatchState) error {
	profile, _, err := app.BuildRules(ms.Config)
	if err != nil {
		return err
	}
	seats := app.Seats{Bidders: bidding.NewRegistry(), Choosers: play.NewRegistry()}
	for i, userID := range ms.Table.Seats {
		seat := domain.Seat(i)
		player := ms.Table.Players[userID]
		cfg := ms.Config
		name := bot.GetBotDisplayName(userID)
		if player.IsBot {
			if level := bot.GetBotLevel(userID); level != "" {
				cfg.BotLevel = level
			}
		} else {
			cfg.BotLevel = string(bot.BotLevelGood)
			name = userID
		}
		agent, err := bot.NewAgentFromConfig(userID, name, cfg, profile, rand.New(rand.NewSource(ms.rng.Int63())), ms.logger)
		if err != nil {
			return err
		}
		if player.IsBot {
			seats.Bidders.Register(seat, agent)
			seats.Choosers.Register(seat, agent)
			continue
		}
		ns := newNetSeat(seat, userID, agent, ms.out)
		ns.SetAutopilot(!player.Connected)
		ms.net[seat] = ns
		seats.Bidders.Register(seat, ns)
		seats.Choosers.Register(seat, ns)
		seats.UserIDs[seat] = userID
	}

	m, err := ms.svc.NewMatch(ms.Config, seats,
		app.WithSink(ms.out),
		app.WithMatchID(ms.matchID),
		app.WithMatchLogger(ms.logger),
	)
	if err != nil {
		return err
	}
	ms.match = m
	ms.Table.Phase = domain.PhasePlaying

	runCtx, cancel := context.WithCancel(context.Background())
	ms.cancel = cancel
	dealer := domain.Seat(ms.rng.Intn(domain.NumSeats))
	go func() {
		winner, err := m.Run(runCtx, dealer)
		ms.done <- runResult{winner: winner, err: err}
	}()
	return nil
}

func (mh *matchHandler) seatFor(ms *MatchState, userID string) (*netSeat, bool) {
	if ms.Table.Phase != domain.PhasePlaying {
		return nil, false
	}
	seat, ok := ms.Table.SeatOf(userID)
	if !ok {
		return nil, false
	}
	ns, ok := ms.net[seat]
	return ns, ok
}

func (mh *matchHandler) handlePlaceBid(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	ns, ok := mh.seatFor(ms, userID)
	if !ok {
		mh.sendError(ms, dispatcher, logger, userID, 409, "no active seat")
		return
	}
	body, err := decode(msg.GetData())
	if err != nil {
		mh.sendError(ms, dispatcher, logger, userID, 400, "malformed message")
		return
	}
	b, err := parseBid(body)
	if err != nil {
		mh.sendError(ms, dispatcher, logger, userID, 400, err.Error())
		return
	}
	if err := ns.ResolveBid(b); err != nil {
		mh.sendError(ms, dispatcher, logger, userID, 422, err.Error())
	}
}

func (mh *matchHandler) handlePlayCard(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	ns, ok := mh.seatFor(ms, userID)
	if !ok {
		mh.sendError(ms, dispatcher, logger, userID, 409, "no active seat")
		return
	}
	body, err := decode(msg.GetData())
	if err != nil {
		mh.sendError(ms, dispatcher, logger, userID, 400, "malformed message")
		return
	}
	c, err := parseCard(body)
	if err != nil {
		mh.sendError(ms, dispatcher, logger, userID, 400, err.Error())
		return
	}
	if err := ns.ResolveCard(c); err != nil {
		mh.sendError(ms, dispatcher, logger, userID, 422, err.Error())
	}
}

func (mh *matchHandler) handleStopMatch(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	userID := msg.GetUserId()
	if !ms.isOwner(userID) || ms.match == nil {
		mh.sendError(ms, dispatcher, logger, userID, 403, "only the owner can stop a running match")
		return
	}
	logger.Info("handleStopMatch: Owner %s stopped the match.", userID)
	ms.match.Stop()
}

// finish records the end of Run. The ended table closes after a grace period.
func (mh *matchHandler) finish(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, res runResult) {
	switch {
	case res.err == nil:
		logger.Info("finish: Match won by %s.", res.winner)
	case errors.Is(res.err, app.ErrMatchStopped), errors.Is(res.err, context.Canceled):
		logger.Info("finish: Match stopped.")
	default:
		logger.Error("finish: Match aborted: %v", res.err)
		mh.broadcast(ms, dispatcher, logger, OpError, map[string]any{"code": 500, "message": "match aborted"}, nil)
	}
	ms.Table.Phase = domain.PhaseEnded
	ms.EndedTick = ms.Tick
	if ms.cancel != nil {
		ms.cancel()
	}
	mh.updateLabel(ms, dispatcher, logger)
	mh.broadcastTableState(ms, dispatcher, logger)
}

func (mh *matchHandler) shutdown(ms *MatchState) {
	if ms.match != nil {
		ms.match.Stop()
	}
	if ms.cancel != nil {
		ms.cancel()
	}
	ms.out.close()
}

func (mh *matchHandler) tableState(ms *MatchState) map[string]any {
	seats := make([]any, domain.NumSeats)
	for i, userID := range ms.Table.Seats {
		entry := map[string]any{"seat": domain.Seat(i).String(), "user_id": userID}
		if p, ok := ms.Table.Players[userID]; ok {
			entry["is_bot"] = p.IsBot
			entry["connected"] = p.Connected
			if p.IsBot {
				entry["display_name"] = bot.GetBotDisplayName(userID)
			}
		}
		seats[i] = entry
	}
	fields := map[string]any{
		"phase":   string(ms.Table.Phase),
		"variant": ms.Table.Variant,
		"owner":   ms.Table.OwnerUserID,
		"target":  ms.Config.TargetPoints,
		"seats":   seats,
	}
	if ms.match != nil {
		score := ms.match.Score()
		fields["match"] = scoreValue(score.Us, score.Them)
		fields["dealer"] = ms.match.Dealer().String()
	}
	return fields
}

func (mh *matchHandler) broadcastTableState(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	mh.broadcast(ms, dispatcher, logger, OpTableState, mh.tableState(ms), nil)
}

func (mh *matchHandler) dispatch(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, m outMsg) {
	mh.broadcast(ms, dispatcher, logger, m.op, m.fields, m.recipients)
}

// broadcast sends to every presence when recipients is nil. Targeted
// messages to absent players are dropped.
func (mh *matchHandler) broadcast(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, op int64, fields map[string]any, recipients []string) {
	var presences []runtime.Presence
	if recipients != nil {
		for _, userID := range recipients {
			if p, ok := ms.Presences[userID]; ok {
				presences = append(presences, p)
			}
		}
		if len(presences) == 0 {
			return
		}
	}
	data, err := encode(fields)
	if err != nil {
		logger.Error("broadcast: Failed to encode op %d: %v", op, err)
		return
	}
	if err := dispatcher.BroadcastMessage(op, data, presences, nil, true); err != nil {
		logger.Warn("broadcast: Failed to send op %d: %v", op, err)
	}
}

// sendError sends an error event to a specific user.
func (mh *matchHandler) sendError(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	if _, ok := ms.Presences[userID]; !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	mh.broadcast(ms, dispatcher, logger, OpError, map[string]any{"code": code, "message": message}, []string{userID})
}

func (mh *matchHandler) updateLabel(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := encodeLabel(domain.ComputeLabel(ms.Table))
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with grace %d", graceSeconds)
	if ms, ok := state.(*MatchState); ok {
		mh.shutdown(ms)
	}
	return state
}

// MatchSignal answers "seat_of:<user id>" with the seat index, or an empty
// string when the user holds no seat.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	ms, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	userID, found := strings.CutPrefix(data, signalSeatOf)
	if !found {
		return ms, ""
	}
	seat, ok := ms.Table.SeatOf(userID)
	if !ok {
		return ms, ""
	}
	return ms, strconv.Itoa(int(seat))
}
