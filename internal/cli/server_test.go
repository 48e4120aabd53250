package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"quiz-engine/internal/config"
	"quiz-engine/internal/infra/memory"
	rediscache "quiz-engine/internal/infra/redis"
	"quiz-engine/internal/logging"
)

func TestOpenRepositoriesInMemory(t *testing.T) {
	repos, err := openRepositories(context.Background(), config.Default(), logging.Nop())
	require.NoError(t, err)
	defer repos.close()

	assert.IsType(t, &memory.UserRepository{}, repos.users)
	assert.IsType(t, &memory.QuizCache{}, repos.quizzes)
	assert.IsType(t, &memory.CompletionRepository{}, repos.completions)
}

func TestCacheQuizzesSelection(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuizRepository(memory.NewDatabase())

	cfg := config.Default()
	assert.IsType(t, &memory.QuizCache{}, cacheQuizzes(ctx, cfg, store, nil, logging.Nop()))

	cfg.Postgres.URL = "postgres://quiz@localhost/quizdb"
	assert.Same(t, store, cacheQuizzes(ctx, cfg, store, nil, logging.Nop()), "no per-instance cache in front of a shared database")

	cfg.Quiz.LocalCache = true
	assert.IsType(t, &memory.QuizCache{}, cacheQuizzes(ctx, cfg, store, nil, logging.Nop()))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	assert.IsType(t, &rediscache.QuizCache{}, cacheQuizzes(ctx, cfg, store, client, logging.Nop()))
}

func TestBuildHandlerServesAPI(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.BcryptCost = 4
	repos, err := openRepositories(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	defer repos.close()

	srv := httptest.NewServer(buildHandler(cfg, repos, logging.Nop()))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Post(srv.URL+"/api/register", "application/json",
		strings.NewReader(`{"email":"a@b.co","password":"secret"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// no token secret configured, so the token endpoint is not mounted
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/token", nil)
	require.NoError(t, err)
	req.SetBasicAuth("a@b.co", "secret")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCmd()
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "start")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("port"))
}
