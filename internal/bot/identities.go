package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/heroiclabs/nakama-common/runtime"
)

// BotIdentity is one entry of the JSON bot pool shipped next to the server
// binary.
type BotIdentity struct {
	DeviceID    string `json:"device_id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Difficulty  string `json:"difficulty"` // easy, medium, hard
	AvatarIndex int    `json:"avatar_index"`
}

var (
	botIdentities []BotIdentity
	botConfigMap  map[string]BotIdentity
	loadOnce      sync.Once
	provisionOnce sync.Once
	loadErr       error
)

// LoadIdentities loads the bot pool from the given path. Safe to call more
// than once; only the first call reads the file.
func LoadIdentities(path string) error {
	loadOnce.Do(func() {
		data, err := os.ReadFile(path)
		if err != nil {
			loadErr = fmt.Errorf("failed to read bot identities: %w", err)
			return
		}
		if err := json.Unmarshal(data, &botIdentities); err != nil {
			loadErr = fmt.Errorf("failed to unmarshal bot identities: %w", err)
			return
		}

		botConfigMap = make(map[string]BotIdentity, len(botIdentities))
		for _, identity := range botIdentities {
			if identity.UserID != "" {
				botConfigMap[identity.UserID] = identity
			}
		}
	})
	return loadErr
}

// ProvisionBots ensures every pooled bot has a Nakama account carrying the
// is_bot metadata, so clients and the economy adapter can tell them apart
// from humans.
func ProvisionBots(ctx context.Context, nk runtime.NakamaModule, logger runtime.Logger) error {
	provisionOnce.Do(func() {
		for i := range botIdentities {
			identity := &botIdentities[i]
			if identity.DeviceID == "" {
				continue
			}

			userID, username, _, err := nk.AuthenticateDevice(ctx, identity.DeviceID, identity.Username, true)
			if err != nil {
				logger.Error("ProvisionBots: failed to authenticate bot %s: %v", identity.Username, err)
				continue
			}
			identity.UserID = userID
			identity.Username = username

			metadata := map[string]interface{}{
				"is_bot":       true,
				"difficulty":   identity.Difficulty,
				"avatar_index": identity.AvatarIndex,
			}
			if err := nk.AccountUpdateId(ctx, userID, identity.Username, metadata, identity.DisplayName, "", "", "", ""); err != nil {
				logger.Warn("ProvisionBots: failed to update bot account %s: %v", userID, err)
			}

			botConfigMap[identity.UserID] = *identity
			logger.Info("ProvisionBots: bot %s (%s) ready, difficulty %s", identity.DisplayName, userID, identity.Difficulty)
		}
	})
	return nil
}

// GetBotConfig returns the identity for a bot user ID.
func GetBotConfig(userID string) (BotIdentity, bool) {
	config, ok := botConfigMap[userID]
	return config, ok
}

// GetBotDisplayName returns a bot's display name, falling back to its
// username, or "" for non-bots.
func GetBotDisplayName(userID string) string {
	config, ok := botConfigMap[userID]
	if !ok {
		return ""
	}
	if config.DisplayName != "" {
		return config.DisplayName
	}
	return config.Username
}

// GetBotDifficulty returns a bot's difficulty tier, defaulting to medium
// when the pool entry does not carry one.
func GetBotDifficulty(userID string) string {
	config, ok := botConfigMap[userID]
	if !ok || config.Difficulty == "" {
		return DifficultyMedium
	}
	return config.Difficulty
}

// GetBotIdentity returns a pool identity by index (mod pool size), with a
// synthetic fallback when no pool is loaded.
func GetBotIdentity(index int) BotIdentity {
	if len(botIdentities) == 0 {
		return BotIdentity{
			UserID:      fmt.Sprintf("bot-%d", index),
			DisplayName: fmt.Sprintf("AI Player %d", index),
			Difficulty:  DifficultyMedium,
		}
	}
	return botIdentities[index%len(botIdentities)]
}

// IsBot reports whether the user ID belongs to the bot pool.
func IsBot(userID string) bool {
	_, ok := botConfigMap[userID]
	return ok
}

// GetAllBotIDs returns every provisioned bot user ID.
func GetAllBotIDs() []string {
	ids := make([]string, 0, len(botConfigMap))
	for id := range botConfigMap {
		ids = append(ids, id)
	}
	return ids
}
