package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"remi/internal/app"
	"remi/internal/bot"
	"remi/internal/bot/brain"
	"remi/internal/config"
	"remi/internal/domain"
	"remi/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Seats        [4]string                   `json:"seats"`          // Array of user IDs, empty string means seat is empty
	OwnerSeat    int                         `json:"owner_seat"`     // Seat index of the match owner
	LastWinnerID string                      `json:"last_winner_id"` // User ID of the previous round's winner
	Tick         int64                       `json:"tick"`           // Current tick of the match for turn-based logic
	Presences    map[string]runtime.Presence `json:"-"`              // Map UserId -> Presence for targeted messaging
	App          *app.Service                `json:"-"`              // Round use-cases
	Round        *domain.Round               `json:"-"`              // Current active round state (nil if in lobby)
	HandSize     int                         `json:"hand_size"`      // Cards dealt per seat
	Tier         string                      `json:"tier"`           // Stake tier chosen by the owner

	BotsEnabled          bool                  `json:"bots_enabled"`            // Whether AI players are allowed
	BotMinDelay          int                   `json:"bot_min_delay"`           // Min seconds a bot waits
	BotMaxDelay          int                   `json:"bot_max_delay"`           // Max seconds a bot waits
	BotAutoFillDelay     int                   `json:"bot_auto_fill_delay"`     // Seconds to wait before auto-filling with bots
	BotWaitUntil         int64                 `json:"bot_wait_until"`          // Tick when the bot should act
	BotWaitGeneration    int64                 `json:"bot_wait_generation"`     // Round generation the pending bot act belongs to
	RoundGeneration      int64                 `json:"round_generation"`        // Bumped whenever the round starts or ends
	LastSinglePlayerTick int64                 `json:"last_single_player_tick"` // Tick when a single player started waiting
	TurnSecondsRemaining int64                 `json:"turn_seconds_remaining"`  // Countdown for the current human turn
	TimedTurnCount       int                   `json:"timed_turn_count"`        // Turn the countdown was armed for
	Bots                 map[string]*bot.Agent `json:"-"`                       // Active bot agents
	Economy              ports.EconomyPort     `json:"-"`                       // Interface to Nakama wallet
	Rng                  *rand.Rand            `json:"-"`
}

func (ms *MatchState) GetOpenSeatsCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat == "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetOccupiedSeatCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" {
			count++
		}
	}
	return count
}

func (ms *MatchState) GetHumanPlayerCount() int {
	count := 0
	for _, seat := range ms.Seats {
		if seat != "" && !isBotUserId(seat) {
			count++
		}
	}
	return count
}

// isBotUserId reports whether the given user id represents a bot seat.
func isBotUserId(userId string) bool {
	return bot.IsBot(userId)
}

// isHumanSeat reports whether the seat index belongs to a human player.
func isHumanSeat(seats []string, seatIndex int) bool {
	if seatIndex < 0 || seatIndex >= len(seats) {
		return false
	}
	userId := seats[seatIndex]
	return userId != "" && !isBotUserId(userId)
}

// findFirstHumanSeat returns the first seat index with a human occupant or -1 if none exist.
func findFirstHumanSeat(seats []string) int {
	for i, userId := range seats {
		if userId != "" && !isBotUserId(userId) {
			return i
		}
	}
	return -1
}

// shouldTerminateNoHumans returns true when there are no humans in the match.
func shouldTerminateNoHumans(seats []string) bool {
	return findFirstHumanSeat(seats) == -1
}

// seatOf returns the seat index of a user or -1.
func seatOf(seats []string, userID string) int {
	for i, seatUserId := range seats {
		if seatUserId == userID {
			return i
		}
	}
	return -1
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	// Load bot identities from data folder
	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		logger.Warn("MatchInit: Could not load bot identities: %v", err)
	}

	// Load game configuration
	if err := config.LoadGameConfig("data/game_config.json"); err != nil {
		logger.Warn("MatchInit: Could not load game config: %v", err)
	}

	state := &MatchState{
		Tick:             time.Now().Unix(),
		Presences:        make(map[string]runtime.Presence),
		App:              app.NewService(nil),
		OwnerSeat:        -1,
		HandSize:         config.GetHandSize(),
		BotAutoFillDelay: config.GetBotAutoFillDelaySeconds(),
		Bots:             make(map[string]*bot.Agent),
		Economy:          NewNakamaEconomyAdapter(nk),
		Rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	// Bot thinking time comes from the game config in millis; the loop ticks
	// once a second, so round up to whole ticks. Env vars override below.
	minMillis, maxMillis := config.GetBotDelayMillis()
	state.BotMinDelay = delayTicks(minMillis)
	state.BotMaxDelay = delayTicks(maxMillis)

	// Read environment variables for bot configuration
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	if val, ok := env["remi_bots_enabled"]; ok {
		state.BotsEnabled = val == "true"
	}
	if val, ok := env["remi_bot_min_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMinDelay = i
		}
	}
	if val, ok := env["remi_bot_max_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotMaxDelay = i
		}
	}
	if val, ok := env["remi_bot_auto_fill_delay_sec"]; ok {
		if i, err := strconv.Atoi(val); err == nil {
			state.BotAutoFillDelay = i
		}
	}

	// Defaults if not set
	if state.BotMinDelay <= 0 {
		state.BotMinDelay = 1
	}
	if state.BotMaxDelay < state.BotMinDelay {
		state.BotMaxDelay = state.BotMinDelay
	}
	if state.BotAutoFillDelay == 0 {
		state.BotAutoFillDelay = 5
	}

	tickRate := 1
	return state, tickRate, marshalLabel(state, logger)
}

// delayTicks converts a millisecond delay into whole one-second loop ticks,
// never less than one.
func delayTicks(millis int) int {
	t := (millis + 999) / 1000
	if t < 1 {
		t = 1
	}
	return t
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	// A seated user reconnecting mid-round is always allowed back in. When
	// the client presents a session token it must bind to this user.
	if seatOf(matchState.Seats[:], presence.GetUserId()) >= 0 {
		if token := metadata["session_token"]; token != "" && sessionTokens != nil {
			userID, _, err := sessionTokens.VerifyToken(token)
			if err != nil || userID != presence.GetUserId() {
				return state, false, "invalid session token"
			}
		}
		return state, true, ""
	}

	if matchState.Round != nil {
		return state, false, "round in progress"
	}

	// Allow join if there is an empty seat OR a bot to replace.
	if matchState.GetOpenSeatsCount() <= 0 {
		hasBot := false
		for _, seat := range matchState.Seats {
			if isBotUserId(seat) {
				hasBot = true
				break
			}
		}
		if !hasBot {
			return state, false, "Match full"
		}
	}

	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		// Store presence
		matchState.Presences[p.GetUserId()] = p

		// Reconnect: the seat is still theirs, re-send the private view.
		if seat := seatOf(matchState.Seats[:], p.GetUserId()); seat >= 0 {
			if matchState.Round != nil {
				if player, exists := matchState.Round.Player(p.GetUserId()); exists {
					player.Connected = true
				}
				mh.sendProjection(matchState, dispatcher, logger, p.GetUserId())
			}
			continue
		}

		// Assign seat: Try empty seats first, then bots.
		assigned := false
		for i, seatUserId := range matchState.Seats {
			if seatUserId == "" {
				matchState.Seats[i] = p.GetUserId()
				assigned = true
				break
			}
		}

		if !assigned {
			for i, seatUserId := range matchState.Seats {
				if isBotUserId(seatUserId) {
					logger.Info("MatchJoin: Replacing bot %s with human %s in seat %d", seatUserId, p.GetUserId(), i)
					delete(matchState.Bots, seatUserId)
					matchState.Seats[i] = p.GetUserId()
					assigned = true
					break
				}
			}
		}

		if !assigned {
			logger.Warn("MatchJoin: User %s joined but no seat (empty or bot) was available.", p.GetUserId())
			continue
		}
	}

	// Ensure owner seat is assigned to a human player only.
	if !isHumanSeat(matchState.Seats[:], matchState.OwnerSeat) {
		matchState.OwnerSeat = findFirstHumanSeat(matchState.Seats[:])
		if matchState.OwnerSeat >= 0 {
			logger.Debug("MatchJoin: Owner set to human seat %d.", matchState.OwnerSeat)
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.broadcastMatchState(ctx, matchState, dispatcher, logger)

	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())

		seat := seatOf(matchState.Seats[:], p.GetUserId())
		if seat < 0 {
			continue
		}

		if matchState.Round != nil {
			// Keep the seat so the player can reconnect to the running round.
			if player, exists := matchState.Round.Player(p.GetUserId()); exists {
				player.Connected = false
			}
			logger.Debug("MatchLeave: User %s disconnected mid-round, seat %d held.", p.GetUserId(), seat)
			continue
		}

		matchState.Seats[seat] = ""
		logger.Debug("MatchLeave: User %s left, seat %d freed.", p.GetUserId(), seat)
	}

	newOwnerSeat := findFirstHumanSeat(matchState.Seats[:])
	if newOwnerSeat != matchState.OwnerSeat {
		matchState.OwnerSeat = newOwnerSeat
		if newOwnerSeat >= 0 {
			logger.Debug("MatchLeave: Owner set to human seat %d.", newOwnerSeat)
		}
	}

	if shouldTerminateNoHumans(matchState.Seats[:]) {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.updateLabel(matchState, dispatcher, logger)

	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	// Handle incoming messages
	for _, msg := range messages {
		switch msg.GetOpCode() {
		case OpStartRound:
			mh.handleStartRound(ctx, matchState, dispatcher, logger, msg)
		case OpDrawDeck, OpDrawDiscard, OpTakeFinishingCard:
			mh.handleDraw(ctx, matchState, dispatcher, logger, msg)
		case OpLayMelds:
			mh.handleLayMelds(ctx, matchState, dispatcher, logger, msg)
		case OpAddToMeld:
			mh.handleAddToMeld(ctx, matchState, dispatcher, logger, msg)
		case OpDiscard:
			mh.handleDiscard(ctx, matchState, dispatcher, logger, msg)
		case OpUndoSpecialDraw:
			mh.handleUndoSpecialDraw(ctx, matchState, dispatcher, logger, msg)
		case OpReorderHand:
			mh.handleReorderHand(ctx, matchState, dispatcher, logger, msg)
		case OpValidateMelds:
			mh.handleValidateMelds(matchState, dispatcher, logger, msg)
		case OpRequestState:
			mh.sendProjection(matchState, dispatcher, logger, msg.GetUserId())
		default:
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
		}
	}

	mh.tickTurnTimer(ctx, matchState, dispatcher, logger)

	// AI Logic
	if matchState.BotsEnabled {
		mh.processBots(ctx, matchState, dispatcher, logger)
	}

	return matchState
}

// tickTurnTimer counts down the current human turn and plays a safe move on
// expiry so one absent player cannot stall the table.
func (mh *matchHandler) tickTurnTimer(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if state.Round == nil || state.Round.Phase == domain.PhaseGameOver {
		return
	}

	currentUserID := state.Round.CurrentUserID()
	if isBotUserId(currentUserID) {
		return
	}

	if state.TimedTurnCount != state.Round.TurnCount {
		state.TimedTurnCount = state.Round.TurnCount
		state.TurnSecondsRemaining = int64(config.GetTurnDurationSeconds())
		return
	}

	state.TurnSecondsRemaining--
	if state.TurnSecondsRemaining > 0 {
		return
	}

	logger.Info("tickTurnTimer: Turn expired for %s, playing forced move.", currentUserID)

	if state.Round.Phase == domain.PhaseDraw {
		if events, err := state.App.DrawFromDeck(state.Round, currentUserID); err == nil {
			mh.applyEvents(ctx, state, dispatcher, logger, events)
		}
	}
	mh.forceDiscard(ctx, state, dispatcher, logger, currentUserID)
}

// forceDiscard throws the current player's cheapest non-joker card, rolling
// back an unmet forced-use draw first when needed.
func (mh *matchHandler) forceDiscard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	player, exists := state.Round.Player(userID)
	if !exists {
		return
	}

	cardID := cheapestCardID(player.Hand)
	if cardID < 0 {
		return
	}

	events, err := state.App.Discard(state.Round, userID, cardID)
	if err != nil {
		// A pending forced-use draw blocks discarding; undo it and retry.
		undoEvents, undoErr := state.App.UndoSpecialDraw(state.Round, userID)
		if undoErr != nil {
			logger.Error("forceDiscard: %s cannot discard (%v) or undo (%v)", userID, err, undoErr)
			return
		}
		mh.applyEvents(ctx, state, dispatcher, logger, undoEvents)

		cardID = cheapestCardID(player.Hand)
		events, err = state.App.Discard(state.Round, userID, cardID)
		if err != nil {
			logger.Error("forceDiscard: %s still cannot discard: %v", userID, err)
			return
		}
	}
	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

// cheapestCardID picks the lowest-point non-joker, or any card when only
// jokers remain.
func cheapestCardID(hand []domain.Card) int16 {
	best := int16(-1)
	var bestPoints int32
	for _, c := range hand {
		if c.IsJoker() {
			continue
		}
		if best < 0 || domain.CardPoints(c) < bestPoints {
			best = c.ID
			bestPoints = domain.CardPoints(c)
		}
	}
	if best < 0 && len(hand) > 0 {
		best = hand[0].ID
	}
	return best
}

func (mh *matchHandler) processBots(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	// 1. Auto-fill lobby with bots if there's only one human player after delay
	if state.Round == nil {
		humanCount := state.GetHumanPlayerCount()
		if humanCount == 1 {
			if state.LastSinglePlayerTick == 0 {
				state.LastSinglePlayerTick = state.Tick
				logger.Debug("processBots: Single player detected, starting auto-fill timer.")
			}

			if state.Tick-state.LastSinglePlayerTick >= int64(state.BotAutoFillDelay) {
				added := false
				for i, seat := range state.Seats {
					if seat == "" {
						identity := bot.GetBotIdentity(i)
						state.Seats[i] = identity.UserID
						logger.Info("processBots: Added bot %s (%s) to seat %d", identity.Username, identity.UserID, i)
						added = true
					}
				}
				if added {
					mh.updateLabel(state, dispatcher, logger)
					mh.broadcastMatchState(ctx, state, dispatcher, logger)
				}
				state.LastSinglePlayerTick = 0
			}
		} else {
			// Reset timer if 0 or >1 humans
			state.LastSinglePlayerTick = 0
		}
	}

	// 2. Handle bot turns in-round
	if state.Round == nil || state.Round.Phase == domain.PhaseGameOver {
		state.BotWaitUntil = 0
		return
	}

	currentUserID := state.Round.CurrentUserID()
	if !isBotUserId(currentUserID) {
		state.BotWaitUntil = 0
		return
	}

	if state.BotWaitUntil == 0 || state.BotWaitGeneration != state.RoundGeneration {
		delay := state.Rng.Intn(state.BotMaxDelay-state.BotMinDelay+1) + state.BotMinDelay
		state.BotWaitUntil = state.Tick + int64(delay)
		state.BotWaitGeneration = state.RoundGeneration
		logger.Debug("processBots: Bot %s will act at tick %d (current %d)", currentUserID, state.BotWaitUntil, state.Tick)
		return
	}

	if state.Tick < state.BotWaitUntil {
		return
	}
	state.BotWaitUntil = 0

	agent, exists := state.Bots[currentUserID]
	if !exists {
		var err error
		agent, err = mh.newAgentForSeat(state, currentUserID)
		if err != nil {
			logger.Error("processBots: Failed to create fallback agent: %v", err)
			return
		}
		state.Bots[currentUserID] = agent
	}

	mh.playBotTurn(ctx, state, dispatcher, logger, agent)
}

// playBotTurn runs one full bot turn: draw, lay, extend, discard.
func (mh *matchHandler) playBotTurn(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, agent *bot.Agent) {
	round := state.Round
	generation := state.RoundGeneration
	userID := agent.ID

	view := mh.buildBotView(state, userID)
	var events []app.Event
	var err error
	switch agent.ChooseDraw(view) {
	case bot.DrawFinishing:
		events, err = state.App.TakeFinishingCard(round, userID)
	case bot.DrawDiscard:
		events, err = state.App.DrawFromDiscard(round, userID)
	default:
		events, err = state.App.DrawFromDeck(round, userID)
	}
	if err != nil {
		// Fall back to the deck when the preferred source is not available.
		events, err = state.App.DrawFromDeck(round, userID)
		if err != nil {
			logger.Error("playBotTurn: Bot %s failed to draw: %v", userID, err)
			return
		}
	}
	mh.applyEvents(ctx, state, dispatcher, logger, events)
	if state.Round == nil || state.RoundGeneration != generation {
		return
	}

	plan := agent.PlanTurn(mh.buildBotView(state, userID))

	if len(plan.MeldGroups) > 0 {
		if events, err := state.App.LayMelds(round, userID, plan.MeldGroups); err != nil {
			logger.Warn("playBotTurn: Bot %s failed to lay melds: %v", userID, err)
		} else {
			mh.applyEvents(ctx, state, dispatcher, logger, events)
		}
	}

	for _, ext := range plan.Extensions {
		if events, err := state.App.AddToMeld(round, userID, ext.CardID, ext.OwnerID, ext.MeldIndex); err != nil {
			logger.Warn("playBotTurn: Bot %s failed to extend meld: %v", userID, err)
		} else {
			mh.applyEvents(ctx, state, dispatcher, logger, events)
		}
	}

	if state.Round == nil || state.RoundGeneration != generation {
		return
	}

	events, err = state.App.Discard(round, userID, plan.DiscardID)
	if err != nil {
		logger.Warn("playBotTurn: Bot %s failed to discard %d: %v", userID, plan.DiscardID, err)
		mh.forceDiscard(ctx, state, dispatcher, logger, userID)
		return
	}
	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

// buildBotView assembles the legal-information view a bot decides from.
func (mh *matchHandler) buildBotView(state *MatchState, userID string) *bot.View {
	round := state.Round
	player, _ := round.Player(userID)

	view := &bot.View{
		UserID:         userID,
		Hand:           player.Hand,
		HasOpened:      player.HasOpened,
		FinishingCard:  round.FinishingCard,
		FinishingTaken: round.FinishingCardTaken,
		HandCapacity:   state.HandSize,
		TurnCount:      round.TurnCount,
		DeckSize:       len(round.DrawPile),
	}
	if top, ok := round.DiscardTop(); ok {
		t := top
		view.DiscardTop = &t
	}
	for _, seatUserID := range round.Seats {
		p, exists := round.Player(seatUserID)
		if !exists {
			continue
		}
		for i, m := range p.Melds {
			view.TableMelds = append(view.TableMelds, bot.TableMeld{
				OwnerID: seatUserID,
				Index:   i,
				Meld:    m,
			})
		}
	}
	return view
}

// newAgentForSeat builds a bot agent from the identity pool entry.
func (mh *matchHandler) newAgentForSeat(state *MatchState, userID string) (*bot.Agent, error) {
	seats := make([]string, 0, len(state.Seats))
	for _, s := range state.Seats {
		if s != "" {
			seats = append(seats, s)
		}
	}
	return bot.NewAgent(userID, bot.GetBotDisplayName(userID), bot.GetBotDifficulty(userID), seats, state.HandSize, rand.New(rand.NewSource(state.Rng.Int63())))
}

// applyEvents feeds bot trackers and dispatches every event.
func (mh *matchHandler) applyEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.observeEvent(state, ev)
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// observeEvent translates a public event into tracker observations for every
// bot agent. Private events carry no opponent information worth feeding.
func (mh *matchHandler) observeEvent(state *MatchState, ev app.Event) {
	var actorID string
	var action brain.Action
	var card *domain.Card
	var melds []domain.Meld
	var opened bool

	switch ev.Kind {
	case app.EventDrawMade:
		p := ev.Payload.(app.DrawMadePayload)
		actorID = p.UserID
		card = p.Card
		switch p.Source {
		case app.DrawSourceDiscard:
			action = brain.ActionPickDiscard
		case app.DrawSourceFinishing:
			action = brain.ActionTakeFinishing
		default:
			action = brain.ActionDrawDeck
		}
	case app.EventMeldsLaid:
		p := ev.Payload.(app.MeldsLaidPayload)
		actorID = p.UserID
		melds = p.Melds
		action = brain.ActionLayMelds
		opened = p.Opened
	case app.EventMeldExtended:
		p := ev.Payload.(app.MeldExtendedPayload)
		actorID = p.UserID
		melds = []domain.Meld{p.Meld}
		action = brain.ActionLayMelds
	case app.EventDiscarded:
		p := ev.Payload.(app.DiscardedPayload)
		actorID = p.UserID
		c := p.Card
		card = &c
		action = brain.ActionDiscard
	default:
		return
	}

	for _, agent := range state.Bots {
		agent.Observe(actorID, action, card, melds)
		// An opening lay is two observations: the melds themselves and the
		// fact that the 51-point gate has been cleared.
		if opened {
			agent.Observe(actorID, brain.ActionOpen, nil, nil)
		}
	}
}

func (mh *matchHandler) broadcastMatchState(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	var players []SeatState
	for i, userId := range state.Seats {
		if userId == "" {
			continue
		}

		displayName := userId
		if p, exists := state.Presences[userId]; exists {
			displayName = p.GetUsername()
		} else if name := bot.GetBotDisplayName(userId); name != "" {
			displayName = name
		}

		handSize := 0
		if state.Round != nil {
			if p, exists := state.Round.Player(userId); exists {
				handSize = len(p.Hand)
			}
		}

		var balance int64
		if state.Economy != nil {
			if b, err := state.Economy.GetBalance(ctx, userId); err == nil {
				balance = b
			}
		}

		players = append(players, SeatState{
			UserID:      userId,
			Seat:        i,
			IsOwner:     i == state.OwnerSeat,
			DisplayName: displayName,
			IsBot:       isBotUserId(userId),
			Balance:     balance,
			HandSize:    handSize,
		})
	}

	phase := "lobby"
	if state.Round != nil {
		phase = "playing"
	}

	snapshot := MatchSnapshot{
		Seats:     state.Seats[:],
		OwnerSeat: state.OwnerSeat,
		Phase:     phase,
		Players:   players,
	}
	bytes, _ := json.Marshal(snapshot)
	dispatcher.BroadcastMessage(OpPlayerJoined, bytes, nil, nil, true)
}

func (mh *matchHandler) handleStartRound(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	senderSeat := seatOf(state.Seats[:], senderID)

	logger.Info("StartRound: Request received from %s (seat=%d, owner_seat=%d, occupied=%d)", senderID, senderSeat, state.OwnerSeat, state.GetOccupiedSeatCount())

	if state.Round != nil {
		logger.Warn("StartRound: Round already in progress.")
		return
	}

	request := StartRoundRequest{}
	if len(msg.GetData()) > 0 {
		if err := json.Unmarshal(msg.GetData(), &request); err != nil {
			logger.Warn("StartRound: Invalid request from %s: %v", senderID, err)
			return
		}
	}

	if senderSeat != state.OwnerSeat {
		logger.Warn("StartRound: User %s tried to start round but is not owner (owner_seat=%d)", senderID, state.OwnerSeat)
		return
	}

	activeCount := state.GetOccupiedSeatCount()
	if activeCount < app.MinPlayersToStartRound {
		logger.Warn("StartRound: Cannot start with %d players. Need at least %d.", activeCount, app.MinPlayersToStartRound)
		return
	}

	round, events, err := state.App.StartRound(state.Seats[:], state.HandSize)
	if err != nil {
		logger.Error("StartRound: Failed to start round: %v", err)
		return
	}
	round.SetOpenRequirement(config.GetOpeningThreshold())

	state.Round = round
	state.RoundGeneration++
	state.TimedTurnCount = -1
	state.Tier = request.Tier

	// Fresh agents per round so trackers start from a clean table.
	for _, seat := range state.Seats {
		if !isBotUserId(seat) {
			continue
		}
		agent, err := mh.newAgentForSeat(state, seat)
		if err != nil {
			logger.Error("StartRound: Failed to create bot agent for %s: %v", seat, err)
			continue
		}
		state.Bots[seat] = agent
	}

	mh.updateLabel(state, dispatcher, logger)
	mh.applyEvents(ctx, state, dispatcher, logger, events)

	logger.Info("StartRound: Round started with %d players.", activeCount)
}

func (mh *matchHandler) handleDraw(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Round == nil {
		logger.Warn("handleDraw: Round not started.")
		return
	}

	var events []app.Event
	var err error
	switch msg.GetOpCode() {
	case OpDrawDiscard:
		events, err = state.App.DrawFromDiscard(state.Round, senderID)
	case OpTakeFinishingCard:
		events, err = state.App.TakeFinishingCard(state.Round, senderID)
	default:
		events, err = state.App.DrawFromDeck(state.Round, senderID)
	}
	if err != nil {
		logger.Warn("handleDraw: User %s failed to draw: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleLayMelds(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Round == nil {
		logger.Warn("handleLayMelds: Round not started.")
		return
	}

	request := LayMeldsRequest{}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleLayMelds: Failed to unmarshal request: %v", err)
		return
	}

	events, err := state.App.LayMelds(state.Round, senderID, request.Groups)
	if err != nil {
		logger.Warn("handleLayMelds: User %s failed to lay melds: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleAddToMeld(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Round == nil {
		logger.Warn("handleAddToMeld: Round not started.")
		return
	}

	request := AddToMeldRequest{}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleAddToMeld: Failed to unmarshal request: %v", err)
		return
	}

	events, err := state.App.AddToMeld(state.Round, senderID, request.CardID, request.OwnerID, request.MeldIndex)
	if err != nil {
		logger.Warn("handleAddToMeld: User %s failed to extend meld: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleDiscard(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Round == nil {
		logger.Warn("handleDiscard: Round not started.")
		return
	}

	request := DiscardRequest{}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleDiscard: Failed to unmarshal request: %v", err)
		return
	}

	events, err := state.App.Discard(state.Round, senderID, request.CardID)
	if err != nil {
		logger.Warn("handleDiscard: User %s failed to discard %d: %v", senderID, request.CardID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleUndoSpecialDraw(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Round == nil {
		logger.Warn("handleUndoSpecialDraw: Round not started.")
		return
	}

	events, err := state.App.UndoSpecialDraw(state.Round, senderID)
	if err != nil {
		logger.Warn("handleUndoSpecialDraw: User %s failed to undo: %v", senderID, err)
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.applyEvents(ctx, state, dispatcher, logger, events)
}

func (mh *matchHandler) handleReorderHand(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Round == nil {
		return
	}

	request := ReorderHandRequest{}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleReorderHand: Failed to unmarshal request: %v", err)
		return
	}

	if _, err := state.App.ReorderHand(state.Round, senderID, request.From, request.To); err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
	}
}

func (mh *matchHandler) handleValidateMelds(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	senderID := msg.GetUserId()
	if state.Round == nil {
		return
	}

	request := ValidateMeldsRequest{}
	if err := json.Unmarshal(msg.GetData(), &request); err != nil {
		logger.Error("handleValidateMelds: Failed to unmarshal request: %v", err)
		return
	}

	result, err := state.App.ValidateMelds(state.Round, senderID, request.CardIDs)
	if err != nil {
		mh.sendError(state, dispatcher, logger, senderID, 400, err.Error())
		return
	}

	mh.sendPrivate(state, dispatcher, logger, senderID, OpMeldValidation, result)
}

// sendProjection sends the caller their private table view.
func (mh *matchHandler) sendProjection(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string) {
	if state.Round == nil {
		return
	}
	projection, err := state.App.StateFor(state.Round, userID)
	if err != nil {
		logger.Warn("sendProjection: No projection for %s: %v", userID, err)
		return
	}
	mh.sendPrivate(state, dispatcher, logger, userID, OpMatchState, projection)
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64

	switch ev.Kind {
	case app.EventRoundStarted:
		opCode = OpRoundStarted
	case app.EventHandDealt:
		opCode = OpHandDealt
	case app.EventCardDrawn:
		opCode = OpCardDrawn
	case app.EventDrawMade:
		opCode = OpDrawMade
	case app.EventMeldsLaid:
		opCode = OpMeldsLaid
	case app.EventMeldExtended:
		opCode = OpMeldExtended
	case app.EventDiscarded:
		opCode = OpDiscarded
	case app.EventSpecialDrawUndone:
		opCode = OpSpecialDrawUndone
	case app.EventRoundEnded:
		opCode = OpRoundEnded
		mh.settleRound(ctx, state, logger, ev.Payload.(app.RoundEndedPayload))
	case app.EventPlayerJoined:
		opCode = OpPlayerJoined
	case app.EventPlayerLeft:
		opCode = OpPlayerLeft
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(ev.Payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	// Determine recipients (default to broadcast)
	var recipients []runtime.Presence
	if len(ev.Recipients) > 0 {
		for _, uid := range ev.Recipients {
			if p, ok := state.Presences[uid]; ok {
				recipients = append(recipients, p)
			}
		}

		// If we had intended recipients but none are connected (e.g. they are
		// bots), we MUST NOT broadcast to everyone else.
		if len(recipients) == 0 {
			return
		}
	}

	dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true)

	if ev.Kind == app.EventRoundEnded {
		state.Round = nil
		state.RoundGeneration++
		state.BotWaitUntil = 0
		mh.updateLabel(state, dispatcher, logger)
	}
}

// settleRound applies the deadwood settlement to Nakama wallets, valued by
// the configured point rate. Bots carry no real wallets.
func (mh *matchHandler) settleRound(ctx context.Context, state *MatchState, logger runtime.Logger, payload app.RoundEndedPayload) {
	state.LastWinnerID = payload.WinnerUserID

	if state.Economy == nil {
		return
	}

	rate := config.GetPointRate(state.Tier)
	updates := make([]ports.WalletUpdate, 0, len(payload.Settlements))
	for _, settlement := range payload.Settlements {
		if isBotUserId(settlement.UserID) {
			continue
		}
		updates = append(updates, ports.WalletUpdate{
			UserID: settlement.UserID,
			Amount: settlement.Delta * rate,
			Metadata: map[string]interface{}{
				"match_id": ctx.Value(runtime.RUNTIME_CTX_MATCH_ID),
				"reason":   "round_settlement",
			},
		})
	}
	if err := state.Economy.UpdateBalances(ctx, updates); err != nil {
		logger.Error("Failed to update balances: %v", err)
	}
}

// sendError sends a private ErrorEvent to a specific user.
func (mh *matchHandler) sendError(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, code int, message string) {
	mh.sendPrivate(state, dispatcher, logger, userID, OpError, ErrorEvent{Code: code, Message: message})
}

func (mh *matchHandler) sendPrivate(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, opCode int64, payload interface{}) {
	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal private payload for opcode %d: %v", opCode, err)
		return
	}

	presence, ok := state.Presences[userID]
	if !ok {
		// Bots have no presence; nothing to deliver.
		return
	}

	dispatcher.BroadcastMessage(opCode, bytes, []runtime.Presence{presence}, nil, true)
}

func marshalLabel(state *MatchState, logger runtime.Logger) string {
	phase := "lobby"
	if state.Round != nil {
		phase = "playing"
	}

	bytes, err := json.Marshal(matchLabel{
		Open:  state.GetOpenSeatsCount(),
		Game:  "remi",
		Phase: phase,
	})
	if err != nil {
		logger.Error("Failed to marshal match label: %v", err)
		return ""
	}
	return string(bytes)
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(marshalLabel(state, logger)); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: Match terminated for reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
