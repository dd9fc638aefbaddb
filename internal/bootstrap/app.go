package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "leadertalk-backend/internal/auth"
	"leadertalk-backend/internal/leaders"
	"leadertalk-backend/internal/llm"
	openai "leadertalk-backend/internal/llm/openai"
	"leadertalk-backend/internal/plans"
	"leadertalk-backend/internal/queue"
	"leadertalk-backend/internal/recordings"
	"leadertalk-backend/internal/shared/config"
	"leadertalk-backend/internal/shared/server"
	"leadertalk-backend/internal/shared/storage/db"
	"leadertalk-backend/internal/shared/storage/object"
	localstore "leadertalk-backend/internal/shared/storage/object/local"
	s3store "leadertalk-backend/internal/shared/storage/object/s3"
	"leadertalk-backend/internal/subscriptions"
	"leadertalk-backend/internal/transcribe"
	"leadertalk-backend/internal/usage"
	"leadertalk-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config               config.Config
	Router               *gin.Engine
	DB                   *sql.DB
	Store                object.ObjectStore
	Queue                queue.Client
	LeadersRepo          leaders.Repo
	UsersRepo            users.Repo
	RecordingsRepo       recordings.Repo
	SubscriptionsRepo    subscriptions.Repo
	UsageService         *usage.Service
	UsersService         *users.Service
	RecordingsService    *recordings.Service
	SubscriptionsService *subscriptions.Service
	LeadersHandler       *leaders.Handler
	PlansHandler         *plans.Handler
	RecordingsHandler    *recordings.Handler
	UsageHandler         *usage.Handler
	UsersHandler         *users.Handler
	SubscriptionsHandler *subscriptions.Handler
	GoogleAuth           *googleauth.GoogleService
	RecordingProcessor   RecordingProcessor
}

// RecordingProcessor allows callers to override recording processing for tests.
type RecordingProcessor interface {
	ProcessRecording(ctx context.Context, recordingID string) error
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:               app.Config,
		LeadersHandler:       app.LeadersHandler,
		PlansHandler:         app.PlansHandler,
		RecordingsHandler:    app.RecordingsHandler,
		UsageHandler:         app.UsageHandler,
		UsersHandler:         app.UsersHandler,
		SubscriptionsHandler: app.SubscriptionsHandler,
		GoogleAuth:           app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("LT_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var leadersRepo leaders.Repo
	var usersRepo users.Repo
	var recordingsRepo recordings.Repo
	var subscriptionsRepo subscriptions.Repo

	if app.DB != nil {
		leadersRepo = &leaders.PGRepo{DB: app.DB}
		usersRepo = &users.PGRepo{DB: app.DB}
		recordingsRepo = &recordings.PGRepo{DB: app.DB}
		subscriptionsRepo = &subscriptions.PGRepo{DB: app.DB}
	} else {
		leadersRepo = leaders.NewMemoryRepo()
		usersRepo = users.NewMemoryRepo()
		recordingsRepo = recordings.NewMemoryRepo()
		subscriptionsRepo = subscriptions.NewMemoryRepo()
	}

	var usageSvc *usage.Service
	if app.DB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		usageSvc = usage.NewService()
	}

	llmClient := llm.Client(llm.PlaceholderClient{})
	transcriber := transcribe.Client(transcribe.PlaceholderClient{})
	if app.Config.LLMProvider == "openai" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			return err
		}
		llmClient = openaiClient

		openaiTranscriber, err := transcribe.NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), app.Config.TranscriptionModel)
		if err != nil {
			return err
		}
		transcriber = openaiTranscriber
	}

	userSvc := users.NewService(usersRepo, leadersRepo)

	recordingSvc := &recordings.Service{
		Repo:            recordingsRepo,
		Usage:           usageSvc,
		Users:           userSvc,
		Leaders:         leadersRepo,
		Store:           app.Store,
		Transcriber:     transcriber,
		LLM:             llmClient,
		Queue:           app.Queue,
		Provider:        app.Config.LLMProvider,
		Model:           app.Config.LLMModel,
		AnalysisVersion: app.Config.AnalysisVersion,
		PromptVersion:   app.Config.PromptVersion,
	}

	subscriptionSvc := subscriptions.NewService(subscriptionsRepo, usageSvc)

	googleAuthSvc := googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)

	app.LeadersRepo = leadersRepo
	app.UsersRepo = usersRepo
	app.RecordingsRepo = recordingsRepo
	app.SubscriptionsRepo = subscriptionsRepo
	app.UsageService = usageSvc
	app.UsersService = userSvc
	app.RecordingsService = recordingSvc
	app.SubscriptionsService = subscriptionSvc
	app.LeadersHandler = leaders.NewHandler(leadersRepo)
	app.PlansHandler = plans.NewHandler()
	app.RecordingsHandler = recordings.NewHandler(recordingSvc)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.SubscriptionsHandler = subscriptions.NewHandler(subscriptionSvc, app.Config.BillingWebhookSecret)
	app.GoogleAuth = googleAuthSvc
	app.RecordingProcessor = recordingSvc

	if app.RecordingsHandler == nil || app.UsageHandler == nil || app.LeadersHandler == nil {
		return errors.New("failed to initialize handlers")
	}

	return nil
}
