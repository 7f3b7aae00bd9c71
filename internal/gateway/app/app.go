// Package app wires the gateway together: config, storage, the LLM client
// and the HTTP surface.
package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"requify/internal/gateway/config"
	"requify/internal/gateway/handler"
	"requify/internal/gateway/middleware"
	"requify/internal/gateway/run"
	"requify/internal/gateway/server"
	"requify/internal/llm"
	"requify/internal/store"
	"requify/internal/validation"
)

const (
	llmRetryAttempts = 3
	llmRetryBase     = 500 * time.Millisecond
	llmCallTimeout   = 30 * time.Second
)

type App struct {
	server *server.Server
	store  *store.Store
	client llm.Client
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	st := store.NewFromEnv(cfg.DataDir)
	if cfg.Blob.Enabled {
		blobs, err := store.NewBlobStore(store.BlobConfig{
			Endpoint:  cfg.Blob.Endpoint,
			Region:    cfg.Blob.Region,
			AccessKey: cfg.Blob.AccessKey,
			SecretKey: cfg.Blob.SecretKey,
			Bucket:    cfg.Blob.Bucket,
			UseSSL:    cfg.Blob.UseSSL,
		})
		if err != nil {
			log.Printf("gateway: blob store disabled: %v", err)
		} else {
			st.AttachBlobStore(blobs)
		}
	}

	client := buildClient(cfg)
	h := &handler.Handler{
		Store:     st,
		Client:    client,
		Validator: validation.RuleValidator{},
		Broker:    run.NewEventBroker(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/expand", h.HandleExpand)
		r.Get("/progress", h.HandleProgressWS)
		r.Get("/projects", h.HandleListProjects)
		r.Route("/projects/{projectID}", func(r chi.Router) {
			r.Get("/", h.HandleGetProject)
			r.Post("/turns", h.HandleTurn)
		})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &App{
		server: server.New(cfg.Port, r),
		store:  st,
		client: client,
	}, nil
}

func buildClient(cfg *config.Config) llm.Client {
	var base llm.Client
	if cfg.GeminiAPIKey != "" {
		gc, err := llm.NewGeminiClient(context.Background(), cfg.GeminiModel)
		if err != nil {
			log.Printf("gateway: gemini client init failed, using offline client: %v", err)
			base = llm.NewFakeClient()
		} else {
			base = gc
		}
	} else {
		log.Printf("gateway: GEMINI_API_KEY not set, using offline client")
		base = llm.NewFakeClient()
	}
	return llm.Chain(base,
		llm.Retry(llmRetryAttempts, llmRetryBase),
		llm.Timeout(llmCallTimeout),
	)
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.client.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if serr := a.store.Close(); serr != nil && err == nil {
		err = serr
	}
	return err
}
