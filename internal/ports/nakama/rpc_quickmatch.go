package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/heroiclabs/nakama-common/runtime"

	"belote/internal/config"
)

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
	Variant string `json:"variant"`
}

type quickMatchRequest struct {
	Variant string `json:"variant"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	if err := initializer.RegisterRpc(RpcQuickMatch, rpcQuickMatch); err != nil {
		return err
	}
	return initializer.RegisterRpc(RpcSeatTicket, rpcSeatTicket)
}

// quickMatchQuery finds open lobbies of a variant.
func quickMatchQuery(variant string) string {
	return "+label.open:T +label.game:belote +label.phase:lobby +label.variant:" + variant
}

// rpcQuickMatch joins an open lobby or creates one.
// Payload (optional): {"variant": "classic" | "sun_hokom"}
func rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	req := quickMatchRequest{Variant: config.VariantClassic}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
		}
	}
	switch req.Variant {
	case "":
		req.Variant = config.VariantClassic
	case config.VariantClassic, config.VariantSunHokom:
	default:
		return "", runtime.NewError("unknown variant", 3)
	}

	limit := 10
	minSize := 1
	maxSize := 3 // ensure < 4 players
	matches, err := nk.MatchList(ctx, limit, true, "", &minSize, &maxSize, quickMatchQuery(req.Variant))
	if err != nil {
		logger.Error("MatchList error: %v", err)
		return "", err
	}
	if len(matches) > 0 {
		b, _ := json.Marshal(QuickMatchResponse{MatchID: matches[0].MatchId, Variant: req.Variant})
		return string(b), nil
	}

	// Seat and owner assignment happen in MatchJoin.
	matchID, err := nk.MatchCreate(ctx, MatchNameBelote, map[string]interface{}{"variant": req.Variant})
	if err != nil {
		logger.Error("MatchCreate error: %v", err)
		return "", err
	}
	b, _ := json.Marshal(QuickMatchResponse{MatchID: matchID, IsNew: true, Variant: req.Variant})
	return string(b), nil
}
