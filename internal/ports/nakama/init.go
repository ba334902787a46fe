package nakama

import (
	"context"
	"database/sql"
	"time"

	"remi/internal/app"
	"remi/internal/bot"
	"remi/internal/config"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule wires RPCs, hooks and match handlers for the Nakama runtime.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if secret := env["remi_session_token_secret"]; secret != "" {
		ttl := time.Duration(config.GetSessionTokenTTLMinutes()) * time.Minute
		sessionTokens = app.NewSessionService(secret, "remi", ttl)
	} else {
		logger.Warn("InitModule: remi_session_token_secret not set, session token RPC disabled.")
	}

	if err := RegisterRPCs(initializer); err != nil {
		return err
	}

	if err := initializer.RegisterAfterAuthenticateDevice(AfterAuthenticateDevice); err != nil {
		return err
	}

	if err := initializer.RegisterMatch(MatchNameRemi, NewMatch); err != nil {
		return err
	}

	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("InitModule: Could not load bot identities: %v", err)
	} else if err := bot.ProvisionBots(ctx, nk, logger); err != nil {
		logger.Warn("InitModule: Could not provision bots: %v", err)
	}

	logger.Info("Remi Go module loaded.")
	return nil
}
