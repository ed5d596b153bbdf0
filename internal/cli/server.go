package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/config"
	"quizdeck-service/internal/domain"
	"quizdeck-service/internal/infra/memory"
	pgstore "quizdeck-service/internal/infra/postgres"
	rediscache "quizdeck-service/internal/infra/redis"
	transport "quizdeck-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var (
		loader       rediscache.QuizLoader
		sessionStore app.SessionStore
		quizWriter   app.QuizWriter
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB := bun.NewDB(sqldb, pgdialect.New())
		defer bunDB.Close()

		loader = pgstore.NewQuizLoader(pool)
		sessionStore = pgstore.NewSessionStore(bunDB)
		quizWriter = pgstore.NewQuizStore(bunDB)
	} else {
		store := memory.NewSeededQuizStore(sampleQuizzes())
		loader = store
		quizWriter = store
		sessionStore = memory.NewSessionStore()
	}

	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizCache(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizCache(loader, quizTTL)
	}

	service := app.NewQuizService(sessionStore, quizRepo, quizWriter)
	router := transport.NewRouter(service, transport.NewHeaderAuthenticator())

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizdeck service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds the in-memory store for the no-Postgres dev mode.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:         "quiz-1",
			Title:      "Arithmetic Basics",
			Category:   "math",
			Difficulty: "easy",
			Questions: []*domain.Question{
				{
					ID:     "q1",
					QuizID: "quiz-1",
					Prompt: "What is 2 + 2?",
					Ord:    1,
					Answers: []*domain.Answer{
						{ID: "a1", QuestionID: "q1", Text: "3", Ord: 1},
						{ID: "a2", QuestionID: "q1", Text: "4", Ord: 2, IsCorrect: true, Explanation: "2 + 2 = 4."},
						{ID: "a3", QuestionID: "q1", Text: "5", Ord: 3},
					},
				},
				{
					ID:     "q2",
					QuizID: "quiz-1",
					Prompt: "What is 3 * 3?",
					Ord:    2,
					Answers: []*domain.Answer{
						{ID: "a4", QuestionID: "q2", Text: "6", Ord: 1},
						{ID: "a5", QuestionID: "q2", Text: "9", Ord: 2, IsCorrect: true, Explanation: "3 * 3 = 9."},
					},
				},
			},
		},
	}
}
