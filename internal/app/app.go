package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/anayy09/Navigator-AI-Console/internal/config"
	"github.com/anayy09/Navigator-AI-Console/internal/db"
	relayhttp "github.com/anayy09/Navigator-AI-Console/internal/http"
	"github.com/anayy09/Navigator-AI-Console/internal/http/api/console"
	"github.com/anayy09/Navigator-AI-Console/internal/identity"
	"github.com/anayy09/Navigator-AI-Console/internal/logging"
	"github.com/anayy09/Navigator-AI-Console/internal/quota"
	"github.com/anayy09/Navigator-AI-Console/internal/relay"
	"github.com/anayy09/Navigator-AI-Console/internal/usage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Migrate opens the database and runs schema migrations.
func Migrate(ctx context.Context, cfg config.Config) error {
	conn, errOpen := db.Open(cfg.DatabaseURL)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the console gateway with explicitly constructed,
// injected dependencies.
func RunServer(ctx context.Context, cfg config.Config) error {
	if errValidate := cfg.Validate(); errValidate != nil {
		return errValidate
	}
	logging.Setup(cfg.Log)

	conn, errOpen := db.Open(cfg.DatabaseURL)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	redisOpts, errParse := redis.ParseURL(cfg.RedisURL)
	if errParse != nil {
		return errParse
	}
	redisClient := redis.NewClient(redisOpts)
	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if errPing := redisClient.Ping(pingCtx).Err(); errPing != nil {
		return errPing
	}

	relayClient := relay.New(cfg.LLMBaseURL, cfg.LLMAPIKey)
	gate := quota.NewGate(conn, quota.NewRedisCounterStore(redisClient))
	recorder := usage.NewRecorder(conn)
	resolver := identity.NewResolver(cfg.SessionSecret, cfg.AnonTokenSecret)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		relayhttp.RequestIDMiddleware(),
		relayhttp.AccessLogMiddleware(),
	)
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	console.RegisterConsoleRoutes(engine, console.Deps{
		DB:       conn,
		Redis:    redisClient,
		Gate:     gate,
		Relay:    relayClient,
		Recorder: recorder,
		Resolver: resolver,
		Cfg:      cfg,
	})

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Warn("server shutdown")
		}
	}()

	log.Infof("starting console on %s", cfg.Listen)
	if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		return errServe
	}
	return nil
}
