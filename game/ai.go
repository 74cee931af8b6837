package game

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codebyksp/mafAI/domain"
	"github.com/codebyksp/mafAI/responder"
)

func (e *Engine) scheduleAIAnswer(code string, round int, prompt string, delay time.Duration) {
	e.sched.Schedule(delay, func() {
		e.GenerateAIAnswer(context.Background(), code, round, prompt)
	})
}

// GenerateAIAnswer runs the AI's turn for one round as a background task.
// A rate-limited responder reschedules the whole attempt after the suggested
// delay; any other failure writes the round's canned fallback answer. One way
// or another the AI always ends up with a submission, which is what lets the
// submitting->voting flip fire.
func (e *Engine) GenerateAIAnswer(ctx context.Context, code string, round int, prompt string) {
	answer, err := e.responder.Respond(ctx, personaPrompt(prompt))
	if err != nil {
		var rl *responder.RateLimitError
		if errors.As(err, &rl) {
			log.Warn().Str("gameCode", code).Int("round", round).
				Dur("retryAfter", rl.RetryAfter).Msg("responder rate limited, rescheduling AI answer")
			e.scheduleAIAnswer(code, round, prompt, rl.RetryAfter)
			return
		}
		log.Warn().Err(err).Str("gameCode", code).Int("round", round).
			Msg("responder failed, using fallback answer")
		answer = fallbackForRound(round)
	}

	answer = strings.TrimSpace(answer)
	if len(answer) > domain.MaxAnswerLength {
		answer = answer[:domain.MaxAnswerLength]
	}

	if err := e.writeAIAnswer(ctx, code, round, answer); err != nil {
		log.Error().Err(err).Str("gameCode", code).Int("round", round).Msg("failed to write AI answer")
	}
}

// writeAIAnswer stores the AI's submission. A game or round that has since
// disappeared, or a game that already finished, makes this a silent no-op:
// the task cannot be cancelled, only rendered harmless.
func (e *Engine) writeAIAnswer(ctx context.Context, code string, round int, answer string) error {
	_, err := e.repo.Update(ctx, code, func(g *domain.Game) error {
		if g.Status == domain.StatusFinished || g.AIPlayer == "" {
			return nil
		}
		r := g.Rounds[round]
		if r == nil {
			return nil
		}
		recordSubmission(g, r, g.AIPlayer, answer, e.now().UnixMilli())
		return nil
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err == nil {
		log.Info().Str("gameCode", code).Int("round", round).Msg("AI answer submitted")
	}
	return err
}
