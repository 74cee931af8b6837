package storage_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/codebyksp/mafAI/domain"
	"github.com/codebyksp/mafAI/migrations"
	"github.com/codebyksp/mafAI/storage"
)

var pgRepo *storage.PostgresRepo

// runPostgres wraps postgres.Run so that a missing Docker host surfaces as an
// error instead of a panic (testcontainers panics when no Docker socket is
// found at all), letting the no-docker fallback below take effect.
func runPostgres(ctx context.Context, img string, opts ...testcontainers.ContainerCustomizer) (c *postgres.PostgresContainer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker unavailable: %v", r)
		}
	}()
	return postgres.Run(ctx, img, opts...)
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	postgresContainer, err := runPostgres(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		// no docker on this machine; the in-memory suite still runs
		fmt.Fprintf(os.Stderr, "skipping postgres tests: %v\n", err)
		os.Exit(m.Run())
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	if err := migrations.Migrate(connString); err != nil {
		panic(err)
	}

	pgRepo, err = storage.NewPostgresRepo(ctx, connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	pgRepo.Close()
	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

func requirePostgres(t *testing.T) {
	t.Helper()
	if pgRepo == nil {
		t.Skip("postgres container unavailable")
	}
}

func TestPostgresRepo_CreateAndGet(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	require.NoError(t, pgRepo.Create(ctx, "PGAA", lobbyGame("h1")))

	got, err := pgRepo.Get(ctx, "PGAA")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLobby, got.Status)
	assert.Equal(t, "h1", got.Host)
	require.Contains(t, got.Players, "h1")
	assert.Equal(t, "Player-1", got.Players["h1"].Name)
}

func TestPostgresRepo_CreateConflict(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	require.NoError(t, pgRepo.Create(ctx, "PGBB", lobbyGame("h1")))
	err := pgRepo.Create(ctx, "PGBB", lobbyGame("h2"))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPostgresRepo_NotFound(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	_, err := pgRepo.Get(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = pgRepo.Update(ctx, "NOPE", func(g *domain.Game) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostgresRepo_UpdateRoundtripsDocument(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	require.NoError(t, pgRepo.Create(ctx, "PGCC", lobbyGame("h1")))

	updated, err := pgRepo.Update(ctx, "PGCC", func(g *domain.Game) error {
		g.Status = domain.StatusPlaying
		g.CurrentRound = 1
		g.Rounds = map[int]*domain.Round{
			1: {
				Prompt:      "a prompt",
				Phase:       domain.PhaseSubmitting,
				Submissions: map[string]string{},
				Votes:       map[string]string{},
			},
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaying, updated.Status)

	got, err := pgRepo.Get(ctx, "PGCC")
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentRound)
	require.Contains(t, got.Rounds, 1)
	assert.Equal(t, "a prompt", got.Rounds[1].Prompt)
	assert.Equal(t, domain.PhaseSubmitting, got.Rounds[1].Phase)
}

func TestPostgresRepo_UpdateAbortsOnMutateError(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	require.NoError(t, pgRepo.Create(ctx, "PGDD", lobbyGame("h1")))

	boom := fmt.Errorf("%w: game already started", domain.ErrState)
	_, err := pgRepo.Update(ctx, "PGDD", func(g *domain.Game) error {
		g.Status = domain.StatusPlaying
		return boom
	})
	assert.ErrorIs(t, err, domain.ErrState)

	got, err := pgRepo.Get(ctx, "PGDD")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLobby, got.Status)
}

func TestPostgresRepo_ConcurrentUpdatesSerialize(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()

	require.NoError(t, pgRepo.Create(ctx, "PGEE", lobbyGame("h1")))

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pgRepo.Update(ctx, "PGEE", func(g *domain.Game) error {
				g.Players["h1"].Score++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := pgRepo.Get(ctx, "PGEE")
	require.NoError(t, err)
	assert.Equal(t, writers, got.Players["h1"].Score, "row locking serializes read-modify-write cycles")
}

func TestPostgresRepo_WatchDeliversSnapshots(t *testing.T) {
	requirePostgres(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pgRepo.Create(ctx, "PGFF", lobbyGame("h1")))

	snapshots, err := pgRepo.Watch(ctx, "PGFF")
	require.NoError(t, err)
	first := <-snapshots
	assert.Equal(t, domain.StatusLobby, first.Status)

	_, err = pgRepo.Update(ctx, "PGFF", func(g *domain.Game) error {
		g.Status = domain.StatusPlaying
		return nil
	})
	require.NoError(t, err)

	second := <-snapshots
	assert.Equal(t, domain.StatusPlaying, second.Status)
}
