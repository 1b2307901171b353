package console

import (
	"github.com/anayy09/Navigator-AI-Console/internal/config"
	relayhttp "github.com/anayy09/Navigator-AI-Console/internal/http"
	"github.com/anayy09/Navigator-AI-Console/internal/http/api/console/handlers"
	"github.com/anayy09/Navigator-AI-Console/internal/identity"
	"github.com/anayy09/Navigator-AI-Console/internal/quota"
	"github.com/anayy09/Navigator-AI-Console/internal/relay"
	"github.com/anayy09/Navigator-AI-Console/internal/usage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps collects the explicitly constructed dependencies the console routes
// need. Everything is injected so tests can substitute fakes.
type Deps struct {
	DB       *gorm.DB           // Relational store.
	Redis    *redis.Client      // Counter store client, used for health checks.
	Gate     *quota.Gate        // Usage gate.
	Relay    *relay.Client      // Upstream relay client.
	Recorder *usage.Recorder    // Request log recorder.
	Resolver *identity.Resolver // Identity resolver.
	Cfg      config.Config      // Runtime configuration.
}

// RegisterConsoleRoutes registers the console API under /api.
func RegisterConsoleRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil {
		return
	}

	api := r.Group("/api")
	api.Use(relayhttp.IdentityMiddleware(deps.Resolver))

	authHandler := handlers.NewAuthHandler(deps.DB, deps.Cfg.SessionSecret)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	chatHandler := handlers.NewChatHandler(deps.Gate, deps.Relay, deps.Recorder, deps.Cfg.ChatModel)
	api.POST("/chat", chatHandler.Completions)

	embeddingsHandler := handlers.NewEmbeddingsHandler(deps.Gate, deps.Relay, deps.Recorder, deps.Cfg.EmbeddingModel)
	api.POST("/embeddings", embeddingsHandler.Create)

	transcribeHandler := handlers.NewTranscribeHandler(deps.Gate, deps.Relay, deps.Recorder, deps.Cfg.TranscribeModel)
	api.POST("/transcribe", transcribeHandler.Create)

	usageHandler := handlers.NewUsageHandler(deps.Gate)
	api.GET("/usage", usageHandler.Get)

	statusHandler := handlers.NewStatusHandler(deps.DB, deps.Redis, deps.Relay)
	api.GET("/status", statusHandler.Get)
}
