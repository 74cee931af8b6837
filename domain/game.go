package domain

// GameStatus is the top-level lifecycle state of a game document.
type GameStatus string

const (
	StatusLobby    GameStatus = "lobby"
	StatusPlaying  GameStatus = "playing"
	StatusFinished GameStatus = "finished"
)

// RoundPhase is the sub-state of a single round.
type RoundPhase string

const (
	PhaseSubmitting RoundPhase = "submitting"
	PhaseVoting     RoundPhase = "voting"
)

const (
	// MaxPlayers caps the lobby size, the synthesized AI player included.
	MaxPlayers = 8
	// MinHumanPlayers is the minimum number of seated humans required to start.
	MinHumanPlayers = 3
	// TotalRounds is the fixed game length.
	TotalRounds = 3
	// MaxAnswerLength bounds a single submission, in bytes after trimming.
	MaxAnswerLength = 500
)

type Player struct {
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsAI     bool   `json:"isAI"`
	JoinedAt int64  `json:"joinedAt"`
}

// RoundResults is written exactly once per round, when scoring completes.
// Its presence on a round is the guard against double scoring.
type RoundResults struct {
	AIPlayerID   string `json:"aiPlayerId"`
	VotesForAI   int    `json:"votesForAI"`
	TotalVotes   int    `json:"totalVotes"`
	CalculatedAt int64  `json:"calculatedAt"`
}

type Round struct {
	Prompt        string            `json:"prompt"`
	StartTime     int64             `json:"startTime"`
	Phase         RoundPhase        `json:"phase"`
	VoteStartTime int64             `json:"voteStartTime,omitempty"`
	Submissions   map[string]string `json:"submissions"`
	Votes         map[string]string `json:"votes"`
	Results       *RoundResults     `json:"results,omitempty"`
}

// Game is the whole stored document for one game, addressed by its 4-letter
// code. Clients subscribe to the full document and re-derive their UI state
// from status, currentRound and rounds[currentRound].
type Game struct {
	Status       GameStatus         `json:"status"`
	Host         string             `json:"host"`
	Players      map[string]*Player `json:"players"`
	CurrentRound int                `json:"currentRound"`
	AIPlayer     string             `json:"aiPlayer,omitempty"`
	Rounds       map[int]*Round     `json:"rounds,omitempty"`
	Winners      []string           `json:"winners,omitempty"`
	WinningScore int                `json:"winningScore,omitempty"`
	CreatedAt    int64              `json:"createdAt"`
	EndedAt      int64              `json:"endedAt,omitempty"`
}

// HumanCount returns the number of seated non-AI players.
func (g *Game) HumanCount() int {
	n := 0
	for _, p := range g.Players {
		if !p.IsAI {
			n++
		}
	}
	return n
}

// Clone deep-copies the document so stored state and handed-out snapshots
// never alias each other.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	clone := *g

	clone.Players = make(map[string]*Player, len(g.Players))
	for id, p := range g.Players {
		cp := *p
		clone.Players[id] = &cp
	}

	if g.Rounds != nil {
		clone.Rounds = make(map[int]*Round, len(g.Rounds))
		for n, r := range g.Rounds {
			cr := *r
			cr.Submissions = make(map[string]string, len(r.Submissions))
			for id, a := range r.Submissions {
				cr.Submissions[id] = a
			}
			cr.Votes = make(map[string]string, len(r.Votes))
			for id, t := range r.Votes {
				cr.Votes[id] = t
			}
			if r.Results != nil {
				res := *r.Results
				cr.Results = &res
			}
			clone.Rounds[n] = &cr
		}
	}

	if g.Winners != nil {
		clone.Winners = append([]string(nil), g.Winners...)
	}

	return &clone
}
