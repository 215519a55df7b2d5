package main

import (
	"log"
	"net/http"

	"github.com/agensea/agency-nexus-flow/internal/config"
	"github.com/agensea/agency-nexus-flow/internal/constants"
	"github.com/agensea/agency-nexus-flow/internal/database"
	"github.com/agensea/agency-nexus-flow/internal/logger"
	"github.com/agensea/agency-nexus-flow/internal/notify"
	"github.com/agensea/agency-nexus-flow/internal/repository"
	"github.com/agensea/agency-nexus-flow/internal/services"
	"github.com/agensea/agency-nexus-flow/internal/storage"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat, "agencyos-api")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.MigrateDatabase(db, appLogger); err != nil {
		appLogger.Fatal("failed to run migrations", zap.Error(err))
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		appLogger.Fatal("failed to create session store", zap.Error(err))
	}

	objectStore := storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+constants.UploadsRoutePrefix)

	var notifier notify.Notifier
	if cfg.InviteFunctionURL != "" {
		notifier = notify.NewFunctionNotifier(cfg.InviteFunctionURL, cfg.InviteFunctionSecret, cfg.InviteFunctionTTL, appLogger)
	} else {
		appLogger.Warn("INVITE_FUNCTION_URL not set, invites will only be logged")
		notifier = notify.NewLogNotifier(appLogger)
	}

	// A nil *AIService must not reach the TaskGenerator interface.
	var taskGenerator services.TaskGenerator
	if cfg.OpenAIAPIKey != "" {
		taskGenerator = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		appLogger.Warn("OPENAI_API_KEY not set, task generation is disabled")
	}

	repos := repositories{
		users:    repository.NewUserRepository(db),
		orgs:     repository.NewOrganizationRepository(db),
		team:     repository.NewTeamRepository(db),
		invites:  repository.NewInviteRepository(db),
		tasks:    repository.NewTaskRepository(db),
		clients:  repository.NewClientRepository(db),
		invoices: repository.NewInvoiceRepository(db),
		chat:     repository.NewChatRepository(db),
	}

	r := newRouter(routerDeps{
		cfg:           cfg,
		logger:        appLogger,
		sessionStore:  store,
		repos:         repos,
		objectStore:   objectStore,
		notifier:      notifier,
		taskGenerator: taskGenerator,
	})

	appLogger.Info("server starting", zap.String("addr", cfg.HTTPAddr))
	if err := r.Run(cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
		appLogger.Fatal("failed to start server", zap.Error(err))
	}
}

// newSessionStore builds the redis store in production setups and a signed
// cookie store when SESSION_STORE=cookie.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.SessionStore == "cookie" {
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(options)
		return store, nil
	}

	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		redisAddr,
		"", // username
		"", // password
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, err
	}
	store.Options(options)
	return store, nil
}
