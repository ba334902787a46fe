package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"remi/internal/app"

	"github.com/heroiclabs/nakama-common/runtime"
)

// sessionTokens is configured once in InitModule from the runtime environment.
var sessionTokens *app.SessionService

// rpcSessionToken mints a signed token binding the calling user to a match
// seat. Clients present it when reconnecting so the handler can re-send
// their private projection without waiting for a fresh join flow.
func rpcSessionToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", fmt.Errorf("no user in context")
	}

	var req struct {
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", fmt.Errorf("invalid payload: %w", err)
	}

	token, err := sessionTokens.GenerateToken(userID, req.MatchID)
	if err != nil {
		logger.Error("rpcSessionToken [User:%s]: %v", userID, err)
		return "", err
	}

	b, _ := json.Marshal(SessionTokenResponse{Token: token})
	return string(b), nil
}
