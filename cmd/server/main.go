package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/inamate/vecta/backend-go/internal/auth"
	"github.com/inamate/vecta/backend-go/internal/collab"
	"github.com/inamate/vecta/backend-go/internal/config"
	"github.com/inamate/vecta/backend-go/internal/export"
	mw "github.com/inamate/vecta/backend-go/internal/middleware"
	"github.com/inamate/vecta/backend-go/internal/project"
	"github.com/inamate/vecta/backend-go/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level, _ := cfg.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Without a database the server still edits live, nothing is persisted.
	var (
		hubStore  collab.Store
		snapshots project.Snapshots
	)
	if cfg.DatabaseURL != "" {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		st := store.New(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		hubStore, snapshots = st, st
	} else {
		slog.Warn("DATABASE_URL not set, documents are kept in memory only")
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.SessionTTL)
	authHandler := auth.NewHandler(authService)

	editorOpts := cfg.EditorOptions()
	editorOpts.Logger = slog.Default().With("component", "editor")
	hub := collab.NewHub(hubStore, collab.Options{
		Editor:       editorOpts,
		SaveInterval: cfg.AutosaveInterval,
	})

	projectService := project.NewService(snapshots, hub)
	projectHandler := project.NewHandler(projectService)
	exportHandler := export.NewHandler(projectService)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)

	r.HandleFunc("/auth/session", authHandler.CreateSession).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}/document", projectHandler.GetDocument).Methods("GET")
	api.HandleFunc("/projects/{projectId}/document", projectHandler.PutDocument).Methods("PUT")
	api.HandleFunc("/projects/{projectId}/export.svg", exportHandler.ExportSVG).Methods("GET")
	api.HandleFunc("/import", projectHandler.ImportSVG).Methods("POST")

	originHosts := cfg.OriginHosts()
	r.HandleFunc("/ws/project/{projectId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, originHosts)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		// CORS wraps the router so preflights reach it before route matching.
		Handler:      mw.CORS(cfg.Origins())(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	runErr := g.Wait()

	// Save all dirty documents once no client can submit anymore.
	slog.Info("saving all documents...")
	saveCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return errors.Join(runErr, hub.Stop(saveCtx))
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, originHosts []string) {
	projectID := mux.Vars(r)["projectId"]
	if !project.ValidID(projectID) {
		http.Error(w, "invalid project id", http.StatusBadRequest)
		return
	}

	// Browsers cannot set headers on a websocket handshake.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	user, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originHosts,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, user.UserID, user.DisplayName, projectID)
	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
