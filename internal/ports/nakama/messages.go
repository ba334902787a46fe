package nakama

// Client request payloads. All match traffic is JSON; opcodes identify the
// message shape.

type StartRoundRequest struct {
	Tier string `json:"tier,omitempty"`
}

type LayMeldsRequest struct {
	Groups [][]int16 `json:"groups"`
}

type AddToMeldRequest struct {
	CardID    int16  `json:"card_id"`
	OwnerID   string `json:"owner_id"`
	MeldIndex int    `json:"meld_index"`
}

type DiscardRequest struct {
	CardID int16 `json:"card_id"`
}

type ReorderHandRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type ValidateMeldsRequest struct {
	CardIDs []int16 `json:"card_ids"`
}

// ErrorEvent is sent privately to the player whose request was rejected.
type ErrorEvent struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SeatState is one seat in the public match snapshot.
type SeatState struct {
	UserID      string `json:"user_id"`
	Seat        int    `json:"seat"`
	IsOwner     bool   `json:"is_owner"`
	DisplayName string `json:"display_name"`
	IsBot       bool   `json:"is_bot"`
	Balance     int64  `json:"balance"`
	HandSize    int    `json:"hand_size"`
}

// MatchSnapshot is the public lobby/table state broadcast on joins, leaves
// and bot auto-fill.
type MatchSnapshot struct {
	Seats     []string    `json:"seats"`
	OwnerSeat int         `json:"owner_seat"`
	Phase     string      `json:"phase"`
	Players   []SeatState `json:"players"`
}

// SessionTokenResponse is returned by the session_token RPC.
type SessionTokenResponse struct {
	Token string `json:"token"`
}

// matchLabel is the indexed JSON label quick_match queries against.
type matchLabel struct {
	Open  int    `json:"open"`
	Game  string `json:"game"`
	Phase string `json:"phase"`
}
