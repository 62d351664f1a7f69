package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Trackshelf/config"
	"Trackshelf/core/auth"
	"Trackshelf/core/session"
	"Trackshelf/logger"
	"Trackshelf/repository"
	"Trackshelf/storage"

	"github.com/gorilla/mux"
)

// NewRouter wires every route of the application. metrics may be nil.
func NewRouter(h *APIHandler, metrics *Metrics, publicDir string) *mux.Router {
	router := mux.NewRouter()

	// CORS
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	if metrics != nil {
		router.Use(metrics.Middleware)
		router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	// API Endpoints
	router.HandleFunc("/api/tracks", h.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks", h.AdminMiddleware(h.CreateTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/tracks/{artistSlug}/{songSlug}", h.AdminMiddleware(h.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/upload-song", h.AdminMiddleware(h.UploadSongHandler)).Methods(http.MethodPost)

	router.HandleFunc("/api/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/logout", h.LogoutHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/is-admin", h.IsAdminHandler).Methods(http.MethodGet)

	router.HandleFunc("/api/events", h.events.ServeWS).Methods(http.MethodGet)

	// Unknown API paths never fall through to the client bundle.
	router.PathPrefix("/api/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	router.PathPrefix(storage.URLPrefix).Handler(NewAudioHandler(h.audioStore)).Methods(http.MethodGet, http.MethodHead)

	// Frontend UI serving
	router.PathPrefix("/").Handler(NewSPAHandler(publicDir)).Methods(http.MethodGet, http.MethodHead)

	return router
}

// Start initializes and starts the HTTP server, blocking until SIGINT or
// SIGTERM.
func Start(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ensureDirExists(cfg.PublicDir)

	trackRepo, err := repository.NewJSONTrackRepository(cfg.DataFile)
	if err != nil {
		return fmt.Errorf("failed to load tracks: %w", err)
	}

	audioStore, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize audio store: %w", err)
	}

	store, closeStore, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	sessions := session.NewManager(store, cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure)

	admin, err := auth.NewAdminCredential(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to prepare admin credential: %w", err)
	}
	if !admin.Enabled() {
		logger.Warn("[Auth] ADMIN_PASSWORD is empty, admin login is disabled")
	}

	metrics := NewMetrics()
	metrics.SetCatalogSize(trackRepo.Count())

	events := NewEventHub(func(n int) { metrics.eventClients.Set(float64(n)) })
	go events.Run()
	defer events.Stop()

	if err := trackRepo.Watch(ctx, func(count int) {
		metrics.SetCatalogSize(count)
		events.PublishReload(count)
	}); err != nil {
		logger.Warn("[Tracks] file watcher disabled", logger.ErrorField(err))
	}

	apiHandler := NewAPIHandler(trackRepo, audioStore, sessions, admin, events, cfg)
	router := NewRouter(apiHandler, metrics, cfg.PublicDir)

	// timeouts
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// wait for an interrupt or terminate signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("[Server] listening",
			logger.String("addr", server.Addr),
			logger.String("data", cfg.DataFile),
			logger.String("audioStore", cfg.AudioStore),
			logger.String("sessionStore", cfg.SessionStore))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.Info("[Server] shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	// graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("[Server] stopped")
	return nil
}

func newSessionStore(cfg *config.Config) (session.Store, func(), error) {
	switch cfg.SessionStore {
	case "", "memory":
		return session.NewMemoryStore(), func() {}, nil
	case "redis":
		client, err := session.ConnectRedis(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("[Session] using Redis store",
			logger.String("host", cfg.RedisHost),
			logger.String("port", cfg.RedisPort))
		return session.NewRedisStore(client), func() { client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("[Server] creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("[Server] failed to create directory", logger.String("path", path), logger.ErrorField(err))
		}
	} else if err != nil {
		logger.Fatal("[Server] failed to check directory", logger.String("path", path), logger.ErrorField(err))
	}
}
