package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/lshigami/voicequiz/config"
	"github.com/lshigami/voicequiz/database"
	_ "github.com/lshigami/voicequiz/docs" // Swagger docs - auto-generated
	adminctrl "github.com/lshigami/voicequiz/internal/controller/admin"
	userctrl "github.com/lshigami/voicequiz/internal/controller/user"
	"github.com/lshigami/voicequiz/internal/logger"
	"github.com/lshigami/voicequiz/internal/model"
	"github.com/lshigami/voicequiz/internal/repository"
	"github.com/lshigami/voicequiz/internal/service"
	"github.com/lshigami/voicequiz/internal/store"
)

// @title Voice Quiz API
// @version 1.0
// @description Voice-driven trivia quiz backend: sessions, natural-language input, answer grading and speech in/out.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase, // Provides *gorm.DB
			NewGinEngine,
			NewSessionStore,
		),

		// Repositories layer
		fx.Provide(
			repository.NewQuestionRepository,
			repository.NewRatingRepository,
		),

		// Services layer
		fx.Provide(
			service.NewGeminiAnswerJudge,
			service.NewGeminiIntentClassifier,
			service.NewIntentParser,
			func(cfg *config.Config, judge service.AnswerJudge) service.EvaluatorService {
				return service.NewEvaluatorService(judge, cfg.JudgeTimeout())
			},
			service.NewGeminiTranslator,
			service.NewWhisperTranscriber,
			func(cfg *config.Config) service.Synthesizer {
				return service.NewCachingSynthesizer(service.NewSpeechSynthesizer(cfg), cfg.TTSCacheMaxMB*1024*1024)
			},
			service.NewGeneratorService,
			service.NewSessionService,
		),

		// API controllers layer
		fx.Provide(
			userctrl.NewSessionController,
			userctrl.NewVoiceController,
			adminctrl.NewAdminQuestionController,
		),

		fx.Invoke(AutoMigrateDB),
		fx.Invoke(ManageSessionStore),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI at /swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func NewSessionStore(cfg *config.Config) store.SessionStore {
	return store.NewMemoryStore(store.Options{
		LockWait: cfg.SessionLockWait(),
		Sliding:  cfg.Session.SlidingTTL,
	})
}

func AutoMigrateDB(db *gorm.DB) {
	if err := db.AutoMigrate(&model.Question{}, &model.Rating{}); err != nil {
		log.Fatal().Err(err).Msg("Failed to auto-migrate database schema")
	}
	log.Info().Msg("Database schema migrated")
}

// ManageSessionStore ties the expiry sweeper to the application lifecycle.
func ManageSessionStore(lc fx.Lifecycle, cfg *config.Config, sessions store.SessionStore) {
	ms, ok := sessions.(*store.MemoryStore)
	if !ok {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ms.StartSweeper(cfg.SessionSweepInterval())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ms.StopSweeper()
			return nil
		},
	})
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	sessionCtrl *userctrl.SessionController,
	voiceCtrl *userctrl.VoiceController,
	adminQuestionCtrl *adminctrl.AdminQuestionController,
) {
	api := router.Group("/api/v1")
	{
		sessions := api.Group("/sessions")
		sessions.POST("", sessionCtrl.CreateSession)
		sessions.GET("/:session_id", sessionCtrl.GetSession)
		sessions.DELETE("/:session_id", sessionCtrl.DeleteSession)
		sessions.POST("/:session_id/start", sessionCtrl.StartSession)
		sessions.POST("/:session_id/input", sessionCtrl.SubmitInput)
		sessions.POST("/:session_id/voice", voiceCtrl.SubmitVoice)
		sessions.POST("/:session_id/rate", sessionCtrl.RateQuestion)
		sessions.POST("/:session_id/end", sessionCtrl.EndSession)
		sessions.POST("/:session_id/extend", sessionCtrl.ExtendSession)
		sessions.POST("/:session_id/participants", sessionCtrl.AddParticipant)
		sessions.DELETE("/:session_id/participants/:participant_id", sessionCtrl.RemoveParticipant)

		api.POST("/transcribe", voiceCtrl.Transcribe)
	}

	admin := router.Group("/api/v1/admin")
	{
		questions := admin.Group("/questions")
		questions.POST("", adminQuestionCtrl.CreateQuestion)
		questions.GET("", adminQuestionCtrl.ListQuestions)
		questions.GET("/:question_id", adminQuestionCtrl.GetQuestion)
		questions.PUT("/:question_id/review", adminQuestionCtrl.SetReviewStatus)
		questions.DELETE("/:question_id", adminQuestionCtrl.DeleteQuestion)
		questions.POST("/generate", adminQuestionCtrl.GenerateQuestions)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Voice Quiz API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}
