package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Level       string `json:"level"` // "easy", "good", "script"
	AvatarIndex int    `json:"avatar_index"`
}

var (
	identitiesMu  sync.RWMutex
	botIdentities []BotIdentity
	botByID       = map[string]BotIdentity{}
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// botNamespace seeds deterministic fallback IDs.
var botNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("belote.bots"))

// LoadIdentities loads the bot profiles from the given path.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		var ids []BotIdentity
		if err := json.Unmarshal(data, &ids); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}
		identitiesMu.Lock()
		defer identitiesMu.Unlock()
		botIdentities = ids
		for _, identity := range ids {
			if identity.UserID != "" {
				botByID[identity.UserID] = identity
			}
		}
	})
	return loadErr
}

// ProvisionBots ensures that bot accounts exist in the Nakama database and have the is_bot metadata.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) {
	provisionOnce.Do(func() {
		identitiesMu.Lock()
		defer identitiesMu.Unlock()
		for i := range botIdentities {
			identity := &botIdentities[i]
			if identity.DeviceID == "" {
				continue
			}

			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("ProvisionBots: Failed to authenticate bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"level":        identity.Level,
				"avatar_index": identity.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("ProvisionBots: Failed to update bot account %s: %v", userID, err)
			}
			botByID[userID] = *identity
			logger.Info("ProvisionBots: Bot %s (%s) is ready. Level: %s", identity.DisplayName, userID, identity.Level)
		}
	})
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
// Without a loaded pool it returns a stable generated identity.
func GetBotIdentity(index int) BotIdentity {
	identitiesMu.RLock()
	defer identitiesMu.RUnlock()
	if len(botIdentities) == 0 {
		id := uuid.NewSHA1(botNamespace, []byte(fmt.Sprintf("bot-%d", index))).String()
		return BotIdentity{UserID: id, Username: fmt.Sprintf("bot%d", index), DisplayName: fmt.Sprintf("AI Player %d", index+1)}
	}
	return botIdentities[index%len(botIdentities)]
}

// GetBotDisplayName returns the display name for a bot ID, or an empty string if not a bot.
func GetBotDisplayName(userID string) string {
	identitiesMu.RLock()
	defer identitiesMu.RUnlock()
	identity, ok := botByID[userID]
	if !ok {
		return ""
	}
	if identity.DisplayName == "" {
		return identity.Username
	}
	return identity.DisplayName
}

// IsBot reports whether the given user ID belongs to the bot pool.
func IsBot(userID string) bool {
	identitiesMu.RLock()
	defer identitiesMu.RUnlock()
	_, ok := botByID[userID]
	return ok
}

// GetBotLevel returns the configured level of a pooled bot, or an empty
// string when the bot is unknown or has none.
func GetBotLevel(userID string) string {
	identitiesMu.RLock()
	defer identitiesMu.RUnlock()
	return botByID[userID].Level
}
