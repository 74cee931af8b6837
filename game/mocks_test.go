package game

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/codebyksp/mafAI/domain"
)

// --- Responder ---

type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) Respond(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// --- GameCodeGenerator ---

type MockCodeGen struct {
	mock.Mock
}

func (m *MockCodeGen) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- Scheduler ---

type scheduledTask struct {
	delay time.Duration
	fn    func()
}

// manualScheduler captures scheduled work so tests fire delayed tasks
// explicitly instead of sleeping.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []scheduledTask
}

func (s *manualScheduler) Schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, scheduledTask{delay: delay, fn: fn})
}

func (s *manualScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *manualScheduler) lastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return 0
	}
	return s.tasks[len(s.tasks)-1].delay
}

// runNext pops and runs the oldest task. Returns false when nothing is
// pending.
func (s *manualScheduler) runNext() bool {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		return false
	}
	task := s.tasks[0]
	s.tasks = s.tasks[1:]
	s.mu.Unlock()

	task.fn()
	return true
}

func (s *manualScheduler) runAll() {
	for s.runNext() {
	}
}

// --- RoundEngine ---

type MockRoundEngine struct {
	mock.Mock
}

func (m *MockRoundEngine) CreateGame(ctx context.Context, hostID string) (string, error) {
	args := m.Called(ctx, hostID)
	return args.String(0), args.Error(1)
}

func (m *MockRoundEngine) JoinGame(ctx context.Context, code, playerID string) error {
	args := m.Called(ctx, code, playerID)
	return args.Error(0)
}

func (m *MockRoundEngine) StartGame(ctx context.Context, code string) (string, error) {
	args := m.Called(ctx, code)
	return args.String(0), args.Error(1)
}

func (m *MockRoundEngine) SubmitAnswer(ctx context.Context, code string, round int, playerID, answer string) (SubmitResult, error) {
	args := m.Called(ctx, code, round, playerID, answer)
	return args.Get(0).(SubmitResult), args.Error(1)
}

func (m *MockRoundEngine) SubmitVote(ctx context.Context, code string, round int, voterID, targetID string) error {
	args := m.Called(ctx, code, round, voterID, targetID)
	return args.Error(0)
}

func (m *MockRoundEngine) GetGame(ctx context.Context, code string) (*domain.Game, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Game), args.Error(1)
}
