package nakama

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"belote/internal/ports"
)

// NakamaAccountAdapter implements ports.TableNames using Nakama's account API.
type NakamaAccountAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaAccountAdapter creates a new account adapter.
func NewNakamaAccountAdapter(nk runtime.NakamaModule) *NakamaAccountAdapter {
	return &NakamaAccountAdapter{nk: nk}
}

// SetTableName sets the table name of a player. A rejected username is
// retried once with a short random suffix; the display name is kept as given.
func (a *NakamaAccountAdapter) SetTableName(ctx context.Context, userID, username, displayName string) error {
	meta := map[string]interface{}{"game": "belote"}
	err := a.nk.AccountUpdateId(ctx, userID, username, meta, displayName, "", "", "", "")
	if err == nil {
		return nil
	}
	alt := username + "_" + uuid.NewString()[:4]
	if retryErr := a.nk.AccountUpdateId(ctx, userID, alt, meta, displayName, "", "", "", ""); retryErr != nil {
		return fmt.Errorf("update account %s: %w", userID, err)
	}
	return nil
}

var _ ports.TableNames = (*NakamaAccountAdapter)(nil)
