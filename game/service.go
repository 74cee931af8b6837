package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codebyksp/mafAI/domain"
)

// aiAnswerDelay paces the AI's submission so it lands roughly when human
// answers do. Pacing only, not a correctness requirement.
const aiAnswerDelay = 2 * time.Second

const codeAllocationAttempts = 5

// SubmitResult tells the submitting client where the round stands.
type SubmitResult struct {
	Phase               domain.RoundPhase
	SubmissionsReceived int
	SubmissionsRequired int
}

// Engine owns every state transition of a game document: lobby seating,
// round creation, the submitting->voting flip, scoring, and the AI's turn.
// Clients only ever request transitions through it.
type Engine struct {
	repo      GameRepo
	responder Responder
	sched     Scheduler
	codes     GameCodeGenerator
	now       func() time.Time
}

func NewEngine(repo GameRepo, rsp Responder, sched Scheduler, codes GameCodeGenerator) *Engine {
	return &Engine{
		repo:      repo,
		responder: rsp,
		sched:     sched,
		codes:     codes,
		now:       time.Now,
	}
}

// CreateGame allocates a code and seats the host as Player-1 in a fresh
// lobby. Allocation retries on code collision a few times before giving up.
func (e *Engine) CreateGame(ctx context.Context, hostID string) (string, error) {
	if hostID == "" {
		return "", fmt.Errorf("%w: hostId is required", domain.ErrValidation)
	}

	g := &domain.Game{
		Status: domain.StatusLobby,
		Host:   hostID,
		Players: map[string]*domain.Player{
			hostID: {Name: "Player-1", Score: 0, IsAI: false, JoinedAt: e.now().UnixMilli()},
		},
		CurrentRound: 0,
		CreatedAt:    e.now().UnixMilli(),
	}

	for attempt := 0; attempt < codeAllocationAttempts; attempt++ {
		code := e.codes.Generate()
		err := e.repo.Create(ctx, code, g)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return "", err
		}
		log.Info().Str("gameCode", code).Str("host", hostID).Msg("game created")
		return code, nil
	}
	return "", fmt.Errorf("%w: could not allocate a free game code", domain.ErrConflict)
}

// JoinGame seats a player in a lobby. Rejoining with an already-seated id
// succeeds without mutating the players map.
func (e *Engine) JoinGame(ctx context.Context, code, playerID string) error {
	if playerID == "" {
		return fmt.Errorf("%w: playerId is required", domain.ErrValidation)
	}

	_, err := e.repo.Update(ctx, code, func(g *domain.Game) error {
		if g.Status != domain.StatusLobby {
			return fmt.Errorf("%w: game already started", domain.ErrState)
		}
		if _, seated := g.Players[playerID]; seated {
			return nil
		}
		if len(g.Players) >= domain.MaxPlayers {
			return fmt.Errorf("%w: game is full", domain.ErrCapacity)
		}
		g.Players[playerID] = &domain.Player{
			Name:     fmt.Sprintf("Player-%d", len(g.Players)+1),
			Score:    0,
			IsAI:     false,
			JoinedAt: e.now().UnixMilli(),
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("gameCode", code).Str("player", playerID).Msg("player joined")
	return nil
}

// StartGame synthesizes the AI player, moves the game to playing and opens
// round 1. The AI's first answer is scheduled after a short delay.
func (e *Engine) StartGame(ctx context.Context, code string) (string, error) {
	aiID := "ai-" + uuid.NewString()

	_, err := e.repo.Update(ctx, code, func(g *domain.Game) error {
		if g.Status != domain.StatusLobby {
			return fmt.Errorf("%w: game already started", domain.ErrState)
		}
		if g.AIPlayer != "" {
			return fmt.Errorf("%w: AI player already assigned", domain.ErrConflict)
		}
		if g.HumanCount() < domain.MinHumanPlayers {
			return fmt.Errorf("%w: need at least %d players to start", domain.ErrCapacity, domain.MinHumanPlayers)
		}

		g.Players[aiID] = &domain.Player{
			Name:     fmt.Sprintf("Player-%d", len(g.Players)+1),
			Score:    0,
			IsAI:     true,
			JoinedAt: e.now().UnixMilli(),
		}
		g.Status = domain.StatusPlaying
		g.CurrentRound = 1
		g.AIPlayer = aiID
		g.Rounds = map[int]*domain.Round{1: e.newRound(1)}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Info().Str("gameCode", code).Str("aiPlayer", aiID).Msg("game started")
	e.scheduleAIAnswer(code, 1, promptForRound(1), aiAnswerDelay)
	return aiID, nil
}

// SubmitAnswer records one player's answer for the current round. When every
// expected submitter (all humans plus the AI) has answered and the round is
// still submitting, the phase flips to voting; the flip happens at most once
// per round.
func (e *Engine) SubmitAnswer(ctx context.Context, code string, round int, playerID, answer string) (SubmitResult, error) {
	answer = strings.TrimSpace(answer)
	if playerID == "" {
		return SubmitResult{}, fmt.Errorf("%w: playerId is required", domain.ErrValidation)
	}
	if answer == "" {
		return SubmitResult{}, fmt.Errorf("%w: answer must not be empty", domain.ErrValidation)
	}
	if len(answer) > domain.MaxAnswerLength {
		return SubmitResult{}, fmt.Errorf("%w: answer exceeds %d characters", domain.ErrValidation, domain.MaxAnswerLength)
	}

	var result SubmitResult
	_, err := e.repo.Update(ctx, code, func(g *domain.Game) error {
		if _, seated := g.Players[playerID]; !seated {
			return fmt.Errorf("%w: player %s is not in this game", domain.ErrValidation, playerID)
		}
		if round != g.CurrentRound {
			return fmt.Errorf("%w: round %d is not the current round", domain.ErrValidation, round)
		}
		r := g.Rounds[round]
		if r == nil {
			return fmt.Errorf("%w: round %d does not exist", domain.ErrValidation, round)
		}

		recordSubmission(g, r, playerID, answer, e.now().UnixMilli())
		result = SubmitResult{
			Phase:               r.Phase,
			SubmissionsReceived: len(r.Submissions),
			SubmissionsRequired: len(g.Players),
		}
		return nil
	})
	if err != nil {
		return SubmitResult{}, err
	}

	log.Debug().Str("gameCode", code).Int("round", round).Str("player", playerID).Msg("answer submitted")
	return result, nil
}

// recordSubmission stores an answer and flips submitting->voting once every
// seated player (the AI included) has one. Shared by the player path and the
// AI turn.
func recordSubmission(g *domain.Game, r *domain.Round, playerID, answer string, nowMillis int64) {
	if r.Submissions == nil {
		r.Submissions = map[string]string{}
	}
	r.Submissions[playerID] = answer

	if r.Phase != domain.PhaseSubmitting {
		return
	}
	for id := range g.Players {
		if _, ok := r.Submissions[id]; !ok {
			return
		}
	}
	r.Phase = domain.PhaseVoting
	r.VoteStartTime = nowMillis
}

// SubmitVote records one human's guess at who the AI is. The vote that
// completes the human set triggers scoring inside the same transactional
// update, so scoring runs at most once per round no matter how many votes
// land concurrently.
func (e *Engine) SubmitVote(ctx context.Context, code string, round int, voterID, targetID string) error {
	if voterID == "" || targetID == "" {
		return fmt.Errorf("%w: voterId and targetId are required", domain.ErrValidation)
	}
	if voterID == targetID {
		return fmt.Errorf("%w: you cannot vote for yourself", domain.ErrValidation)
	}

	var scored bool
	var nextRound int
	_, err := e.repo.Update(ctx, code, func(g *domain.Game) error {
		scored, nextRound = false, 0

		voter, seated := g.Players[voterID]
		if !seated {
			return fmt.Errorf("%w: voter %s is not in this game", domain.ErrValidation, voterID)
		}
		if voter.IsAI {
			return fmt.Errorf("%w: the AI player does not vote", domain.ErrValidation)
		}
		if _, seated := g.Players[targetID]; !seated {
			return fmt.Errorf("%w: target %s is not in this game", domain.ErrValidation, targetID)
		}
		if round != g.CurrentRound {
			return fmt.Errorf("%w: round %d is not the current round", domain.ErrValidation, round)
		}
		r := g.Rounds[round]
		if r == nil {
			return fmt.Errorf("%w: round %d does not exist", domain.ErrValidation, round)
		}

		if r.Votes == nil {
			r.Votes = map[string]string{}
		}
		r.Votes[voterID] = targetID

		if len(r.Votes) == g.HumanCount() && r.Results == nil {
			e.applyScores(g, round, r)
			scored = true
			if g.Status != domain.StatusFinished {
				nextRound = g.CurrentRound
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug().Str("gameCode", code).Int("round", round).Str("voter", voterID).Msg("vote recorded")
	if scored {
		log.Info().Str("gameCode", code).Int("round", round).Msg("round scored")
		if nextRound != 0 {
			e.scheduleAIAnswer(code, nextRound, promptForRound(nextRound), aiAnswerDelay)
		}
	}
	return nil
}

// applyScores awards points for one round and advances the game: voters who
// named the AI gain 100, humans who fooled a voter gain 50, the AI gains
// nothing. After round 3 the game finishes with its winner set; otherwise the
// next round opens.
func (e *Engine) applyScores(g *domain.Game, round int, r *domain.Round) {
	votesForAI := 0
	for voterID, targetID := range r.Votes {
		if targetID == g.AIPlayer {
			votesForAI++
			if p := g.Players[voterID]; p != nil {
				p.Score += 100
			}
		} else if p := g.Players[targetID]; p != nil && !p.IsAI {
			p.Score += 50
		}
	}

	r.Results = &domain.RoundResults{
		AIPlayerID:   g.AIPlayer,
		VotesForAI:   votesForAI,
		TotalVotes:   len(r.Votes),
		CalculatedAt: e.now().UnixMilli(),
	}

	if round < domain.TotalRounds {
		next := round + 1
		g.CurrentRound = next
		g.Rounds[next] = e.newRound(next)
		return
	}

	winners, winningScore := []string{}, 0
	for id, p := range g.Players {
		if p.IsAI {
			continue
		}
		switch {
		case p.Score > winningScore:
			winners, winningScore = []string{id}, p.Score
		case p.Score == winningScore:
			winners = append(winners, id)
		}
	}
	sort.Strings(winners)

	g.Status = domain.StatusFinished
	g.Winners = winners
	g.WinningScore = winningScore
	g.EndedAt = e.now().UnixMilli()
}

func (e *Engine) newRound(n int) *domain.Round {
	return &domain.Round{
		Prompt:      promptForRound(n),
		StartTime:   e.now().UnixMilli(),
		Phase:       domain.PhaseSubmitting,
		Submissions: map[string]string{},
		Votes:       map[string]string{},
	}
}

// GetGame returns a snapshot of the full game document.
func (e *Engine) GetGame(ctx context.Context, code string) (*domain.Game, error) {
	return e.repo.Get(ctx, code)
}
