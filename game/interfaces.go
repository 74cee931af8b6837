package game

import (
	"context"
	"time"

	"github.com/codebyksp/mafAI/domain"
)

// GameRepo is the store contract the engine runs against. Update must apply
// the mutation transactionally: concurrent updates to the same game are
// serialized, and a mutation error aborts the write entirely. That exclusivity
// is what makes the voting-complete scoring trigger at-most-once.
type GameRepo interface {
	Create(ctx context.Context, code string, g *domain.Game) error
	Get(ctx context.Context, code string) (*domain.Game, error)
	Update(ctx context.Context, code string, mutate func(g *domain.Game) error) (*domain.Game, error)
	Watch(ctx context.Context, code string) (<-chan *domain.Game, error)
}

// Responder produces generated text for a prompt. A rate-limited call fails
// with an error that unwraps to *responder.RateLimitError carrying the
// suggested retry delay; any other failure is terminal for that attempt.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// Scheduler runs fn after the given delay without blocking the caller.
type Scheduler interface {
	Schedule(delay time.Duration, fn func())
}

// GameCodeGenerator allocates join codes for new games.
type GameCodeGenerator interface {
	Generate() string
}
