package app

// MinPlayersToStartRound defines the minimum number of occupied seats
// required to start a round. Keep this centralized so tests or local runs
// can adjust the rule without touching multiple call sites.
const MinPlayersToStartRound = 2
