package game

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/codebyksp/mafAI/domain"
)

// RoundEngine is the engine surface the HTTP gateway forwards to.
type RoundEngine interface {
	CreateGame(ctx context.Context, hostID string) (string, error)
	JoinGame(ctx context.Context, code, playerID string) error
	StartGame(ctx context.Context, code string) (string, error)
	SubmitAnswer(ctx context.Context, code string, round int, playerID, answer string) (SubmitResult, error)
	SubmitVote(ctx context.Context, code string, round int, voterID, targetID string) error
	GetGame(ctx context.Context, code string) (*domain.Game, error)
}

type GameHandler struct {
	engine RoundEngine
	repo   GameRepo
}

func NewGameHandler(engine RoundEngine, repo GameRepo) *GameHandler {
	return &GameHandler{engine: engine, repo: repo}
}

// RegisterRoutes mounts the game API onto a router group.
func (h *GameHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.HealthHandler)
	rg.POST("/game/create", h.CreateGameHandler)
	rg.POST("/game/join", h.JoinGameHandler)
	rg.POST("/game/start", h.StartGameHandler)
	rg.POST("/game/submit", h.SubmitAnswerHandler)
	rg.POST("/game/vote", h.SubmitVoteHandler)
	rg.GET("/game/:code", h.GetGameHandler)
	rg.GET("/game/:code/watch", h.WatchGameHandler)
}

// statusForError maps the domain taxonomy onto HTTP statuses. Everything
// outside the taxonomy is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrState),
		errors.Is(err, domain.ErrCapacity),
		errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(ctx *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", ctx.FullPath()).Msg("request failed")
		ctx.AbortWithStatusJSON(status, gin.H{"error": "internal-error"})
		return
	}
	ctx.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *GameHandler) HealthHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}

type createGameRequest struct {
	HostID string `json:"hostId"`
}

func (h *GameHandler) CreateGameHandler(ctx *gin.Context) {
	req := createGameRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}

	code, err := h.engine.CreateGame(ctx.Request.Context(), req.HostID)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"gameCode": code, "hostId": req.HostID})
}

type joinGameRequest struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
}

func (h *GameHandler) JoinGameHandler(ctx *gin.Context) {
	req := joinGameRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}
	if req.GameCode == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "gameCode is required"})
		return
	}

	if err := h.engine.JoinGame(ctx.Request.Context(), req.GameCode, req.PlayerID); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

type startGameRequest struct {
	GameCode string `json:"gameCode"`
}

func (h *GameHandler) StartGameHandler(ctx *gin.Context) {
	req := startGameRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}
	if req.GameCode == "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "gameCode is required"})
		return
	}

	aiID, err := h.engine.StartGame(ctx.Request.Context(), req.GameCode)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "aiId": aiID})
}

type submitAnswerRequest struct {
	GameCode string `json:"gameCode"`
	Round    int    `json:"round"`
	PlayerID string `json:"playerId"`
	Answer   string `json:"answer"`
}

func (h *GameHandler) SubmitAnswerHandler(ctx *gin.Context) {
	req := submitAnswerRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}
	if req.GameCode == "" || req.Round == 0 {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "gameCode and round are required"})
		return
	}

	result, err := h.engine.SubmitAnswer(ctx.Request.Context(), req.GameCode, req.Round, req.PlayerID, req.Answer)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"success":             true,
		"phase":               result.Phase,
		"submissionsReceived": result.SubmissionsReceived,
		"submissionsRequired": result.SubmissionsRequired,
	})
}

type submitVoteRequest struct {
	GameCode string `json:"gameCode"`
	Round    int    `json:"round"`
	VoterID  string `json:"voterId"`
	TargetID string `json:"targetId"`
}

func (h *GameHandler) SubmitVoteHandler(ctx *gin.Context) {
	req := submitVoteRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}
	if req.GameCode == "" || req.Round == 0 {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "gameCode and round are required"})
		return
	}

	if err := h.engine.SubmitVote(ctx.Request.Context(), req.GameCode, req.Round, req.VoterID, req.TargetID); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GameHandler) GetGameHandler(ctx *gin.Context) {
	g, err := h.engine.GetGame(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, g)
}
