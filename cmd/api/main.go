package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"playlater/internal/catalog"
	"playlater/internal/config"
	apphttp "playlater/internal/http"
	"playlater/internal/httpx"
	"playlater/internal/igdb"
	"playlater/internal/library"
	"playlater/internal/store"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dbPool := mustOpenDB(cfg.DatabaseDSN)
	defer dbPool.Close()

	userRepository := store.NewUserPG(dbPool)
	gameRepository := store.NewGamePG(dbPool)
	libraryRepository := store.NewLibraryPG(dbPool)

	igdbClient := igdb.NewClient(cfg.IGDBClientID, cfg.IGDBClientSecret, cfg.IGDBRequestsPS)
	resolver := catalog.NewResolver(gameRepository, igdbClient)
	libraryService := library.NewService(userRepository, libraryRepository, resolver)

	userHandler := apphttp.NewUserHandler(userRepository, cfg.JWTSecret)
	gameHandler := apphttp.NewGameHandler(resolver, gameRepository)
	libraryHandler := apphttp.NewLibraryHandler(libraryService)

	router := http.NewServeMux()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.HandleFunc("/users/register", userHandler.RegisterUser)
	router.HandleFunc("/users/login", userHandler.LoginUser)
	router.HandleFunc("/games/search", gameHandler.Search)
	router.HandleFunc("/games/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gameHandler.Get(w, r)
	})

	authRequired := apphttp.AuthMiddleware(cfg.JWTSecret)

	router.Handle("/me", authRequired(http.HandlerFunc(userHandler.GetCurrentUser)))

	libraryMux := http.NewServeMux()
	libraryMux.HandleFunc("/library", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			libraryHandler.AddEntry(w, r)
		case http.MethodGet:
			libraryHandler.ListEntries(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	libraryMux.HandleFunc("/library/count", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		libraryHandler.CountEntries(w, r)
	})
	libraryMux.HandleFunc("/library/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		libraryHandler.UpdateStatusByIGDB(w, r)
	})
	libraryMux.HandleFunc("/library/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPatch:
			libraryHandler.UpdateStatus(w, r)
		case http.MethodDelete:
			libraryHandler.DeleteEntry(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	router.Handle("/library", authRequired(libraryMux))
	router.Handle("/library/", authRequired(libraryMux))

	rateLimit := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var handler http.Handler = router
	handler = httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes)(handler)
	handler = rateLimit.Middleware(handler)
	handler = httpx.SecurityHeadersMiddleware(handler)
	handler = httpx.CORSMiddleware(cfg.AllowedOrigins)(handler)
	handler = httpx.AccessLogMiddleware(handler)
	handler = httpx.RecoveryMiddleware(handler)
	handler = httpx.RequestIDMiddleware(handler)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", cfg.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func mustOpenDB(dsn string) *pgxpool.Pool {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("cannot create db pool: %v", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		log.Fatalf("cannot ping database (%s): %v", redactDSN(dsn), err)
	}
	log.Println("database connection OK")
	return pool
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
