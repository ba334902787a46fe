package bot

// Tuning holds the per-difficulty weights and gates the strategies share.
type Tuning struct {
	// Draw-from-discard gates.
	AcceptImmediateWin  bool
	DenyWantedCard      bool
	WantedCardThreshold int
	MinScoreGain        int32

	// Lay policy.
	NearWinRemainder int
	NearWinDeadwood  int32
	MinLayScore      int32
	HoldBackChance   float64

	// Extension valuation.
	JokerSwapBonus float64
	OwnMeldBonus   float64
	LateGameTurn   int
	LateGameBonus  float64

	// Discard scoring.
	UseDangerAvoidance     bool
	UseDiscardSafety       bool
	DeadCardPenalty        float64
	IsolationPenalty       float64
	AlternateDiscardChance float64
}

// NoviceTuning keeps the weakest tier honest but beatable: it never consults
// the opponent model and needs a bigger payoff before fishing the discard
// pile.
var NoviceTuning = Tuning{
	AcceptImmediateWin:     false,
	DenyWantedCard:         false,
	WantedCardThreshold:    70,
	MinScoreGain:           5,
	NearWinRemainder:       3,
	NearWinDeadwood:        15,
	MinLayScore:            15,
	HoldBackChance:         0,
	JokerSwapBonus:         0,
	OwnMeldBonus:           0,
	LateGameTurn:           0,
	LateGameBonus:          0,
	UseDangerAvoidance:     false,
	UseDiscardSafety:       false,
	DeadCardPenalty:        0,
	IsolationPenalty:       0,
	AlternateDiscardChance: 0.25,
}

// SmartTuning plays a solid positional game without card counting.
var SmartTuning = Tuning{
	AcceptImmediateWin:     true,
	DenyWantedCard:         false,
	WantedCardThreshold:    70,
	MinScoreGain:           5,
	NearWinRemainder:       3,
	NearWinDeadwood:        12,
	MinLayScore:            10,
	HoldBackChance:         0.15,
	JokerSwapBonus:         30,
	OwnMeldBonus:           5,
	LateGameTurn:           20,
	LateGameBonus:          8,
	UseDangerAvoidance:     false,
	UseDiscardSafety:       false,
	DeadCardPenalty:        25,
	IsolationPenalty:       5,
	AlternateDiscardChance: 0.15,
}

// MasterTuning adds the opponent model: it protects cards opponents chase,
// favors discards whose support is already burned, and denies wanted cards.
var MasterTuning = Tuning{
	AcceptImmediateWin:     true,
	DenyWantedCard:         true,
	WantedCardThreshold:    70,
	MinScoreGain:           3,
	NearWinRemainder:       3,
	NearWinDeadwood:        12,
	MinLayScore:            10,
	HoldBackChance:         0.25,
	JokerSwapBonus:         40,
	OwnMeldBonus:           5,
	LateGameTurn:           16,
	LateGameBonus:          10,
	UseDangerAvoidance:     true,
	UseDiscardSafety:       true,
	DeadCardPenalty:        25,
	IsolationPenalty:       5,
	AlternateDiscardChance: 0.1,
}
