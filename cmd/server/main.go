package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/JackobAssis/Joburguers/internal/config"
	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/handler"
	"github.com/JackobAssis/Joburguers/internal/localstore"
	"github.com/JackobAssis/Joburguers/internal/loyalty"
	"github.com/JackobAssis/Joburguers/internal/server"
	"github.com/JackobAssis/Joburguers/internal/service"
	"github.com/JackobAssis/Joburguers/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	local, err := localstore.Open(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open local store", "err", err)
		os.Exit(1)
	}

	// Remote document store (optional). Without DATABASE_URL the server
	// runs entirely on the local JSON store.
	var remote *docstore.Remote
	var remoteIface storage.Remote
	if cfg.DatabaseURL != "" {
		pg, err := docstore.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect database", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		remote = docstore.NewRemote(pg, logger, docstore.Options{
			Attempts:  cfg.RetryAttempts,
			Backoff:   cfg.RetryBackoff,
			OpTimeout: cfg.OpTimeout,
			CacheTTL:  cfg.CacheTTL,
		})
		remote.StartHealthLoop(ctx, cfg.HealthInterval)
		remoteIface = remote
	} else {
		logger.Warn("no DATABASE_URL configured, running in local-only mode")
	}

	store := storage.New(remoteIface, local, logger)
	if err := store.EnsureDefaults(ctx); err != nil {
		logger.Error("failed to seed defaults", "err", err)
		os.Exit(1)
	}

	// Firebase Auth (optional)
	var firebaseAuth *auth.Client
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		client, err := app.Auth(ctx)
		if err != nil {
			logger.Error("failed to init firebase auth", "err", err)
			os.Exit(1)
		}
		firebaseAuth = client
	}

	engine := loyalty.NewEngine(store, logger)
	authSvc := service.AuthService{
		Config:       cfg,
		Store:        store,
		Engine:       engine,
		Logger:       logger,
		FirebaseAuth: firebaseAuth,
	}

	router := server.NewRouter(cfg, logger,
		handler.HealthHandler{Remote: remote},
		handler.HomeHandler{},
		handler.AuthHandler{Auth: authSvc},
		handler.ProductHandler{Store: store},
		handler.ProductAdminHandler{Store: store},
		handler.PromotionHandler{Store: store},
		handler.PromotionAdminHandler{Store: store},
		handler.ClientAdminHandler{Store: store, Engine: engine},
		handler.RedeemAdminHandler{Store: store},
		handler.AdminAccountHandler{Store: store},
		handler.MeHandler{Store: store, Engine: engine},
		handler.SettingsHandler{Store: store},
		handler.TransactionHandler{Store: store},
		handler.ExportHandler{Store: store},
		handler.ReportHandler{Store: store},
		handler.UploadHandler{UploadDir: cfg.UploadDir, PublicBaseURL: cfg.PublicBaseURL},
	)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
