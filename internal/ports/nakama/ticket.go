package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/form3tech-oss/jwt-go"
	"github.com/heroiclabs/nakama-common/runtime"

	"belote/internal/domain"
)

const (
	seatTicketTTL = 10 * time.Minute
	ticketIssuer  = "belote"
	// signalSeatOf asks a match for the seat of a user; see MatchSignal.
	signalSeatOf = "seat_of:"
)

var (
	ErrBadTicket    = errors.New("invalid seat ticket")
	ErrTicketSecret = errors.New("seat ticket secret not configured")
)

// SeatClaims binds a user to a seat of one match.
type SeatClaims struct {
	MatchID string `json:"mid"`
	Seat    int    `json:"seat"`
	jwt.StandardClaims
}

// IssueSeatTicket signs an HS256 ticket for userID at seat.
func IssueSeatTicket(secret, matchID, userID string, seat domain.Seat, now time.Time) (string, error) {
	if secret == "" {
		return "", ErrTicketSecret
	}
	claims := SeatClaims{
		MatchID: matchID,
		Seat:    int(seat),
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Issuer:    ticketIssuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(seatTicketTTL).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSeatTicket verifies the signature and expiry of a ticket.
func ParseSeatTicket(secret, ticket string) (*SeatClaims, error) {
	if secret == "" {
		return nil, ErrTicketSecret
	}
	claims := &SeatClaims{}
	tok, err := jwt.ParseWithClaims(ticket, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("%w: %v", ErrBadTicket, err)
	}
	if claims.Issuer != ticketIssuer || !domain.Seat(claims.Seat).Valid() {
		return nil, ErrBadTicket
	}
	return claims, nil
}

// ticketSecret reads the signing secret from the runtime env, falling back to
// a development secret.
func ticketSecret(ctx context.Context, logger runtime.Logger) string {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if s := env["belote_ticket_secret"]; s != "" {
		return s
	}
	logger.Warn("belote_ticket_secret missing from env, using development default.")
	return "belote-dev-secret"
}

type seatTicketRequest struct {
	MatchID string `json:"match_id"`
}

type seatTicketResponse struct {
	Ticket string `json:"ticket"`
	Seat   string `json:"seat"`
}

// rpcSeatTicket returns a ticket for the caller's seat in the given match.
// Payload: {"match_id": "..."}
func rpcSeatTicket(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16) // UNAUTHENTICATED
	}
	var req seatTicketRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil || req.MatchID == "" {
		return "", runtime.NewError("match_id required", 3) // INVALID_ARGUMENT
	}

	reply, err := nk.MatchSignal(ctx, req.MatchID, signalSeatOf+userID)
	if err != nil {
		logger.Warn("rpcSeatTicket [User:%s]: signal failed: %v", userID, err)
		return "", runtime.NewError("match not found", 5) // NOT_FOUND
	}
	idx, err := strconv.Atoi(reply)
	if err != nil || !domain.Seat(idx).Valid() {
		return "", runtime.NewError("not seated in match", 9) // FAILED_PRECONDITION
	}
	seat := domain.Seat(idx)

	ticket, err := IssueSeatTicket(ticketSecret(ctx, logger), req.MatchID, userID, seat, time.Now())
	if err != nil {
		logger.Error("rpcSeatTicket [User:%s]: failed to sign: %v", userID, err)
		return "", runtime.NewError("internal error", 13) // INTERNAL
	}
	b, _ := json.Marshal(seatTicketResponse{Ticket: ticket, Seat: seat.String()})
	return string(b), nil
}
