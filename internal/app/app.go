package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"parentcoach/internal/coach"
	"parentcoach/internal/coach/crisis"
	"parentcoach/internal/config"
	"parentcoach/internal/handler"
	"parentcoach/internal/llm"
	"parentcoach/internal/repository/lexicon"
	"parentcoach/internal/repository/profilestore"
	"parentcoach/internal/repository/sessionstore"
	"parentcoach/internal/server"
)

type App struct {
	server   *server.Server
	sessions *sessionstore.Store
	profiles *profilestore.Store
	client   llm.Client
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Dependencies
	sessions := sessionstore.NewFromEnv(filepath.Join(cfg.DataDir, "sessions.json"))
	profiles := profilestore.NewFromEnv(filepath.Join(cfg.DataDir, "profiles.json"))

	client, err := newLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}

	lex := lexicon.Load(ctx, newLexiconSource(cfg.Lexicon))
	classifier := crisis.NewClassifier(lex, crisis.NewLLMAssessor(client))

	coachCfg := coach.DefaultConfig()
	if cfg.Coach.CompletenessThreshold > 0 {
		coachCfg.CompletenessThreshold = cfg.Coach.CompletenessThreshold
	}
	if cfg.Coach.MinutesPerTurn > 0 {
		coachCfg.Phase.MinutesPerTurn = cfg.Coach.MinutesPerTurn
	}
	if cfg.Coach.HistoryWindow > 0 {
		coachCfg.HistoryWindow = cfg.Coach.HistoryWindow
	}
	orch := coach.NewOrchestrator(sessions, profiles, classifier, client, coachCfg)

	messageHandler := handler.NewMessageHandler(orch)
	conversationHandler := handler.NewConversationHandler(orch)

	// Routing & Server
	mux := server.NewMux(messageHandler, conversationHandler)
	srv := server.New(cfg.Port, mux)

	return &App{
		server:   srv,
		sessions: sessions,
		profiles: profiles,
		client:   client,
	}, nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Backend {
	case "groq":
		return llm.NewGroqClient(cfg.APIKey, cfg.Model)
	case "fake":
		log.Println("llm: using fake client; replies are canned")
		return llm.NewFakeClient(), nil
	default:
		return llm.NewGeminiClient(ctx, cfg.Model)
	}
}

func newLexiconSource(cfg config.LexiconConfig) lexicon.Source {
	if cfg.Path != "" {
		return lexicon.FileSource{Path: cfg.Path}
	}
	if cfg.S3Enabled {
		src, err := lexicon.NewS3Source(lexicon.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Object:    cfg.S3Object,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Printf("lexicon: s3 source unavailable: %v", err)
			return nil
		}
		return src
	}
	return nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if closeErr := a.sessions.Close(); err == nil {
		err = closeErr
	}
	if closeErr := a.profiles.Close(); err == nil {
		err = closeErr
	}
	if a.client != nil {
		_ = a.client.Close()
	}
	return err
}
