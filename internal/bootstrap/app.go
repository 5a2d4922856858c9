package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shadowpixel-backend/internal/github"
	"shadowpixel-backend/internal/llm"
	openai "shadowpixel-backend/internal/llm/openai"
	"shadowpixel-backend/internal/shared/config"
	"shadowpixel-backend/internal/shared/server"
	"shadowpixel-backend/internal/shared/storage/db"
	"shadowpixel-backend/internal/shared/storage/object"
	localstore "shadowpixel-backend/internal/shared/storage/object/local"
	s3store "shadowpixel-backend/internal/shared/storage/object/s3"
	"shadowpixel-backend/internal/submissions"
)

const (
	githubMaxRetries = 2
	githubBaseDelay  = 2 * time.Second
)

// App holds the wired dependencies of the service.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	SubmissionsRepo    submissions.Repo
	StepsRepo          submissions.StepsRepo
	GitHub             github.UserFetcher
	LLM                llm.Client
	SubmissionsService *submissions.Service
	SubmissionsHandler *submissions.Handler
}

// Build prepares all dependencies and the router.
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

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	ghClient := github.WithRetry(
		github.NewClient(cfg.GitHubBaseURL, cfg.GitHubToken, cfg.GitHubRepoLimit),
		githubMaxRetries,
		githubBaseDelay,
	)

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		GitHub: ghClient,
		LLM:    llmClient,
	}

	if sqlDB != nil {
		app.SubmissionsRepo = &submissions.PGRepo{DB: sqlDB}
		app.StepsRepo = &submissions.PGStepsRepo{DB: sqlDB}
	} else {
		app.SubmissionsRepo = submissions.NewMemoryRepo()
		app.StepsRepo = submissions.NewMemoryStepsRepo()
	}

	app.SubmissionsService = &submissions.Service{
		Store:           app.Store,
		Repo:            app.SubmissionsRepo,
		Steps:           app.StepsRepo,
		GitHub:          app.GitHub,
		LLM:             app.LLM,
		StorageProvider: cfg.ObjectStoreType,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	}
	app.SubmissionsHandler = submissions.NewHandler(app.SubmissionsService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      app.Config,
		Submissions: app.SubmissionsHandler,
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

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
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

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" {
		return llm.PlaceholderClient{}, nil
	}
	return openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
