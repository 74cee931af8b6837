package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/codebyksp/mafAI/domain"
)

// PostgresRepo persists each game as a JSONB document keyed by its code.
// Update runs inside a transaction with SELECT ... FOR UPDATE, which is the
// conditional-write contract the engine's at-most-once scoring relies on.
//
// Watch fan-out is in-process: watchers are notified after local writes
// commit. Running more than one instance against the same database would
// need LISTEN/NOTIFY instead.
type PostgresRepo struct {
	pool *pgxpool.Pool

	mu       sync.Mutex
	watchers map[string]map[chan *domain.Game]struct{}
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{
		pool:     pool,
		watchers: make(map[string]map[chan *domain.Game]struct{}),
	}, nil
}

func (s *PostgresRepo) Close() {
	s.pool.Close()
}

func (s *PostgresRepo) Create(ctx context.Context, code string, g *domain.Game) error {
	doc, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
	}

	_, err = s.pool.Exec(ctx, "INSERT INTO games(code, doc) VALUES($1, $2)", code, doc)
	if err != nil {
		var pgErr *pgconn.PgError
		// "23505" is the PostgreSQL error code for unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: game code %s already in use", domain.ErrConflict, code)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
	}

	s.notify(code, g.Clone())
	return nil
}

func (s *PostgresRepo) Get(ctx context.Context, code string) (*domain.Game, error) {
	row := s.pool.QueryRow(ctx, "SELECT doc FROM games WHERE code = $1", code)

	var doc []byte
	if err := row.Scan(&doc); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
		}
	}

	g := &domain.Game{}
	if err := json.Unmarshal(doc, g); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
	}
	return g, nil
}

func (s *PostgresRepo) Update(ctx context.Context, code string, mutate func(g *domain.Game) error) (*domain.Game, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, "SELECT doc FROM games WHERE code = $1 FOR UPDATE", code)
	var doc []byte
	if err := row.Scan(&doc); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, code)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		default:
			return nil, fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
		}
	}

	g := &domain.Game{}
	if err := json.Unmarshal(doc, g); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
	}

	if err := mutate(g); err != nil {
		return nil, err
	}

	next, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
	}
	if _, err := tx.Exec(ctx, "UPDATE games SET doc = $1, updated_at = now() WHERE code = $2", next, code); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnexpectedStore, err)
	}

	s.notify(code, g.Clone())
	return g, nil
}

func (s *PostgresRepo) Watch(ctx context.Context, code string) (<-chan *domain.Game, error) {
	g, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	ch := make(chan *domain.Game, 1)
	ch <- g

	s.mu.Lock()
	if s.watchers[code] == nil {
		s.watchers[code] = make(map[chan *domain.Game]struct{})
	}
	s.watchers[code][ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers[code], ch)
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

func (s *PostgresRepo) notify(code string, g *domain.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.watchers[code] {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- g.Clone():
		default:
		}
	}
}
