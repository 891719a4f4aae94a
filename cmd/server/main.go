package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"quiz-modes/internal/auth"
	"quiz-modes/internal/config"
	"quiz-modes/internal/logger"
	"quiz-modes/internal/metrics"
	"quiz-modes/internal/quiz"
	"quiz-modes/internal/session"
	"quiz-modes/internal/web"
	"quiz-modes/pkg/cache"
	"quiz-modes/pkg/database"
	"quiz-modes/pkg/websocket"
)

func main() {
	// Load configuration
	cfg, envFound, err := config.Load()
	if err != nil {
		logger.New("quiz-modes", "info").WithError(err).Fatal("invalid configuration")
	}
	log := logger.New("quiz-modes", cfg.LogLevel)
	if !envFound {
		log.Warn(".env file not found")
	}

	// Initialize database
	db, err := database.NewPostgresDB(&database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Session store: Redis when configured, process memory otherwise
	var store session.Store
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr)
		redisStore := cache.NewRedisSessionStore(client, cfg.SessionTTL)
		if err := redisStore.Ping(context.Background()); err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer client.Close()
		store = redisStore
	} else {
		log.Warn("REDIS_ADDR not set, sessions are kept in memory")
		store = session.NewMemoryStore(session.WithTTL(cfg.SessionTTL))
	}

	templates, err := web.NewTemplates()
	if err != nil {
		log.WithError(err).Fatal("failed to parse templates")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize repositories
	authRepo := auth.NewRepository(db)
	quizRepo := quiz.NewRepository(db)

	// Initialize services
	authService := auth.NewService(authRepo, auth.BcryptHasher{}, log.WithField("component", "auth"))
	machine := quiz.NewMachine(store, quizRepo,
		quiz.WithRecorder(m),
		quiz.WithLogger(log.WithField("component", "quiz")),
	)

	// Initialize handlers
	authHandler := auth.NewHandler(authService, store, templates, log)
	quizHandler := quiz.NewHandler(machine, quizRepo, templates, log)
	timerStream := websocket.NewTimerStream(machine, cfg.AllowedOrigins, log.WithField("component", "ws"))
	sessions := session.NewManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookie)

	// Setup router
	router := mux.NewRouter()
	router.Use(logger.Middleware(log), m.Middleware, sessions.Middleware)

	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	router.HandleFunc("/healthz", healthz(db)).Methods("GET")

	// Public pages
	router.HandleFunc("/", authHandler.Index).Methods("GET")
	router.HandleFunc("/login", authHandler.Login).Methods("GET", "POST")
	router.HandleFunc("/register", authHandler.Register).Methods("GET", "POST")
	router.HandleFunc("/logout", authHandler.Logout).Methods("GET")

	// Pages that need a logged in user
	userRouter := router.NewRoute().Subrouter()
	userRouter.Use(session.RequireUser(store, log))

	userRouter.HandleFunc("/dashboard", quizHandler.Dashboard).Methods("GET", "POST")
	userRouter.HandleFunc("/settings", authHandler.Settings).Methods("GET")
	userRouter.HandleFunc("/change_password", authHandler.ChangePassword).Methods("GET", "POST")
	userRouter.HandleFunc("/delete_account", authHandler.DeleteAccount).Methods("GET")
	userRouter.HandleFunc("/profile", authHandler.Profile).Methods("GET")
	userRouter.HandleFunc("/questions", quizHandler.Questions).Methods("GET")
	userRouter.HandleFunc("/quiz", quizHandler.Quiz).Methods("GET", "POST")
	// WebSocket endpoint
	userRouter.Handle("/ws/timer", timerStream).Methods("GET")

	// CORS middleware configuration
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.WithField("addr", cfg.Addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	// Graceful shutdown setup
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server shutdown gracefully")
}

func healthz(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}
}
