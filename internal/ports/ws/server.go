package ws

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"belote/internal/app"
	"belote/internal/bidding"
	"belote/internal/bot"
	"belote/internal/config"
	"belote/internal/domain"
	"belote/internal/play"
)

const (
	writeWait = 10 * time.Second
	// localUser addresses private events to the connected player.
	localUser = "local"
	humanSeat = domain.South
)

// Server upgrades each connection into its own table.
type Server struct {
	cfg      config.GameConfig
	svc      *app.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCheckOrigin overrides the upgrader's origin check.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// NewServer returns a handler that plays cfg matches over websockets.
func NewServer(cfg config.GameConfig, svc *app.Service, opts ...Option) *Server {
	s := &Server{cfg: cfg, svc: svc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err), zap.String("remote", r.RemoteAddr))
		return
	}
	t := &table{srv: s, conn: conn, logger: s.logger.With(zap.String("remote", r.RemoteAddr))}
	t.human = NewSeat(humanSeat, t.write)
	t.serve()
}

// table is one connection: the player at South and three bots.
type table struct {
	srv    *Server
	conn   *websocket.Conn
	logger *zap.Logger
	human  *Seat

	writeMu sync.Mutex

	mu    sync.Mutex
	match *app.Match
	done  chan struct{}
}

func (t *table) write(m ServerMessage) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteJSON(m)
}

func (t *table) writeError(code string, err error) {
	if werr := t.write(ServerMessage{Type: MsgError, Error: &ErrorView{Code: code, Message: err.Error()}}); werr != nil {
		t.logger.Debug("error not delivered", zap.Error(werr))
	}
}

// Publish implements app.EventSink.
func (t *table) Publish(ev app.Event) {
	if ev.Recipients != nil && !slices.Contains(ev.Recipients, localUser) {
		return
	}
	if err := t.write(ServerMessage{Type: string(ev.Kind), Data: ev.Payload}); err != nil {
		t.logger.Debug("event not delivered", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}

func (t *table) serve() {
	defer t.conn.Close()
	defer t.stop()

	hello := helloView{Seat: humanSeat, Variant: t.srv.cfg.Variant, Target: t.srv.cfg.TargetPoints}
	if err := t.write(ServerMessage{Type: MsgHello, Data: hello}); err != nil {
		return
	}
	for {
		var msg ClientMessage
		if err := t.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				t.logger.Warn("connection closed", zap.Error(err))
			}
			return
		}
		t.handle(msg)
	}
}

func (t *table) handle(msg ClientMessage) {
	switch msg.Type {
	case MsgStart:
		if err := t.start(); err != nil {
			t.writeError("start_failed", err)
		}
	case MsgBid:
		if msg.Bid == nil {
			t.writeError("bad_request", errors.New("bid required"))
			return
		}
		if err := t.human.ResolveBid(*msg.Bid); err != nil {
			t.writeError("bad_bid", err)
		}
	case MsgCard:
		if msg.Card == nil {
			t.writeError("bad_request", errors.New("card required"))
			return
		}
		if err := t.human.ResolveCard(*msg.Card); err != nil {
			t.writeError("bad_card", err)
		}
	case MsgStop:
		t.stop()
	default:
		t.writeError("unknown_type", fmt.Errorf("unknown message type %q", msg.Type))
	}
}

// start runs a new match on its own goroutine.
func (t *table) start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.match != nil {
		return app.ErrMatchRunning
	}

	cfg := t.srv.cfg
	profile, _, err := app.BuildRules(cfg)
	if err != nil {
		return err
	}
	seats := app.Seats{Bidders: bidding.NewRegistry(), Choosers: play.NewRegistry()}
	seats.UserIDs[humanSeat] = localUser
	seats.Bidders.Register(humanSeat, t.human)
	seats.Choosers.Register(humanSeat, t.human)
	for i, seat := range []domain.Seat{humanSeat.Next(), humanSeat.Partner(), humanSeat.Prev()} {
		identity := bot.GetBotIdentity(i)
		rng := rand.New(rand.NewSource(t.srv.svc.Int63()))
		agent, err := bot.NewAgentFromConfig(identity.UserID, identity.DisplayName, cfg, profile, rng, t.logger)
		if err != nil {
			return err
		}
		seats.Bidders.Register(seat, agent)
		seats.Choosers.Register(seat, agent)
	}

	m, err := t.srv.svc.NewMatch(cfg, seats, app.WithSink(t), app.WithMatchLogger(t.logger))
	if err != nil {
		return err
	}
	done := make(chan struct{})
	t.match, t.done = m, done
	dealer := domain.Seat(t.srv.svc.Int63() % domain.NumSeats)

	go func() {
		defer close(done)
		winner, err := m.Run(context.Background(), dealer)
		if err != nil {
			t.logger.Info("match finished early", zap.String("match_id", m.ID()), zap.Error(err))
		} else {
			t.logger.Info("match won", zap.String("match_id", m.ID()), zap.Stringer("winner", winner))
		}
		t.mu.Lock()
		t.match, t.done = nil, nil
		t.mu.Unlock()
	}()
	return nil
}

// stop halts the running match, if any, and waits for it to unwind.
func (t *table) stop() {
	t.mu.Lock()
	m, done := t.match, t.done
	t.mu.Unlock()
	if m == nil {
		return
	}
	m.Stop()
	<-done
}
