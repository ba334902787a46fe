package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create a lobby-capable match.
	RpcQuickMatch = "quick_match"

	// RpcSessionToken is the Nakama RPC id clients call to mint a reconnect token for a match seat.
	RpcSessionToken = "session_token"

	// MatchNameRemi is the authoritative match handler name registered with Nakama.
	MatchNameRemi = "remi_match"
)

const (
	MatchLabelKey_OpenSeats = "open" // Key for the open seats in the match label
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartRound        int64 = 1
	OpDrawDeck          int64 = 2
	OpDrawDiscard       int64 = 3
	OpTakeFinishingCard int64 = 4
	OpLayMelds          int64 = 5
	OpAddToMeld         int64 = 6
	OpDiscard           int64 = 7
	OpUndoSpecialDraw   int64 = 8
	OpReorderHand       int64 = 9
	OpValidateMelds     int64 = 10
	OpRequestState      int64 = 11

	// Server -> Client events
	OpPlayerJoined      int64 = 101
	OpPlayerLeft        int64 = 102
	OpRoundStarted      int64 = 103
	OpHandDealt         int64 = 104 // send privately
	OpCardDrawn         int64 = 105 // send privately
	OpDrawMade          int64 = 106
	OpMeldsLaid         int64 = 107
	OpMeldExtended      int64 = 108
	OpDiscarded         int64 = 109
	OpSpecialDrawUndone int64 = 110
	OpRoundEnded        int64 = 111
	OpMatchState        int64 = 112
	OpMeldValidation    int64 = 113 // send privately
	OpError             int64 = 120 // send privately
)
