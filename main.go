package main

import (
	"context"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/codebyksp/mafAI/game"
	"github.com/codebyksp/mafAI/migrations"
	"github.com/codebyksp/mafAI/responder"
	"github.com/codebyksp/mafAI/shared/configs"
	"github.com/codebyksp/mafAI/shared/logger"
	"github.com/codebyksp/mafAI/storage"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if len(allowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowedOrigins,
			AllowCredentials: true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{
				"Content-Type",
				"Upgrade",
				"Connection",
				"Sec-WebSocket-Key",
				"Sec-WebSocket-Version",
				"Sec-WebSocket-Extensions",
				"Sec-WebSocket-Protocol",
			},
		}))
	} else {
		r.Use(cors.Default())
	}

	return r
}

func main() {
	envs := configs.Load()
	logger.Setup(envs.Debug)

	if envs.GinMode != "" {
		gin.SetMode(envs.GinMode)
	}

	var repo game.GameRepo
	if envs.PostgresURL != "" {
		if err := migrations.Migrate(envs.PostgresURL); err != nil {
			log.Fatal().Err(err).Msg("migrations failed")
		}
		pgRepo, err := storage.NewPostgresRepo(context.Background(), envs.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		defer pgRepo.Close()
		repo = pgRepo
		log.Info().Msg("using postgres game store")
	} else {
		repo = storage.NewMemoryRepo()
		log.Warn().Msg("POSTGRES_URL not set, games are stored in memory only")
	}

	if envs.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, the AI player will only use fallback answers")
	}
	rsp := responder.NewGeminiResponder(envs.GeminiAPIKey, envs.GeminiModel)

	engine := game.NewEngine(repo, rsp, game.NewTimerScheduler(), game.NewCodeGen())
	handler := game.NewGameHandler(engine, repo)

	var allowedOrigins []string
	if envs.AllowedOrigins != "" {
		allowedOrigins = strings.Split(envs.AllowedOrigins, ",")
	}

	r := CreateServer(allowedOrigins)
	handler.RegisterRoutes(r.Group("/api"))

	log.Info().Str("port", envs.Port).Msg("server listening")
	if err := r.Run(":" + envs.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
