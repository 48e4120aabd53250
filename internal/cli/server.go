package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-engine/internal/app"
	"quiz-engine/internal/auth"
	"quiz-engine/internal/config"
	"quiz-engine/internal/infra/memory"
	"quiz-engine/internal/infra/postgres"
	rediscache "quiz-engine/internal/infra/redis"
	"quiz-engine/internal/logging"
	transport "quiz-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type repositories struct {
	users       app.UserRepository
	quizzes     app.QuizRepository
	completions app.CompletionRepository
	close       func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level).With("service", "quiz-engine")

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.close()

	handler := buildHandler(cfg, repos, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting quiz engine", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case <-stop:
		log.Info(ctx, "shutting down server")
	case <-ctx.Done():
		log.Info(ctx, "context canceled, shutting down server")
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openRepositories picks postgres when a URL is configured and memory otherwise,
// then puts the quiz store behind a redis or in-process read cache.
func openRepositories(ctx context.Context, cfg config.Config, log logging.Logger) (repositories, error) {
	var repos repositories
	var closers []func()
	repos.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return repos, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return repos, fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		repos.users = postgres.NewUserRepository(pool)
		repos.quizzes = postgres.NewQuizRepository(pool)
		repos.completions = postgres.NewCompletionRepository(pool)
		log.Info(ctx, "using postgres storage")
	} else {
		db := memory.NewDatabase()
		repos.users = memory.NewUserRepository(db)
		repos.quizzes = memory.NewQuizRepository(db)
		repos.completions = memory.NewCompletionRepository(db)
		log.Info(ctx, "using in-memory storage")
	}

	var client *redis.Client
	if cfg.Redis.Addr != "" {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = client.Close() })
	}
	repos.quizzes = cacheQuizzes(ctx, cfg, repos.quizzes, client, log)
	return repos, nil
}

// cacheQuizzes puts a read cache in front of quizzes. Redis is shared by every instance.
// The in-process cache is only safe when this process owns the data, so in front of
// postgres it needs quiz.local_cache: other instances would keep serving deleted quizzes
// until the entry expires.
func cacheQuizzes(ctx context.Context, cfg config.Config, quizzes app.QuizRepository, client *redis.Client, log logging.Logger) app.QuizRepository {
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	switch {
	case client != nil:
		log.Info(ctx, "caching quizzes in redis", "addr", cfg.Redis.Addr, "ttl", quizTTL)
		return rediscache.NewQuizCache(client, quizzes, quizTTL)
	case cfg.Postgres.URL == "" || cfg.Quiz.LocalCache:
		log.Info(ctx, "caching quizzes in process", "ttl", quizTTL)
		return memory.NewQuizCache(quizzes, quizTTL)
	default:
		return quizzes
	}
}

func buildHandler(cfg config.Config, repos repositories, log logging.Logger) http.Handler {
	users := app.NewUserService(repos.users, auth.NewBcryptHasher(cfg.Auth.BcryptCost), log)
	quizzes := app.NewQuizService(repos.quizzes, repos.completions, app.NewCompletionFeed(), log)

	var tokens *auth.TokenIssuer
	if cfg.Auth.TokenSecret != "" {
		tokens = auth.NewTokenIssuer(cfg.Auth.TokenSecret, config.TTLDuration(cfg.Auth.TokenTTL, time.Hour))
	}
	gate := auth.NewGate(users, tokens)

	return transport.NewAPI(users, quizzes, gate, log).Routes(cfg.CORS.AllowedOrigins)
}
