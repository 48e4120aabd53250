package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
)

// QuizCache keeps quizzes in Redis as JSON under quiz:{id} and reads through to next on a miss.
// The stored document includes the answer and owner, so the keyspace must stay private.
// A delete leaves a quiz:{id}:deleted tombstone; fills watch it so a load that raced
// with the delete never writes the quiz back.
type QuizCache struct {
	client *redis.Client
	next   app.QuizRepository
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type cachedQuiz struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  []int    `json:"answer"`
	Owner   string   `json:"owner"`
}

func NewQuizCache(client *redis.Client, next app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		next:   next,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	return c.next.Create(ctx, quiz)
}

func (c *QuizCache) ListPage(ctx context.Context, page, size int) ([]domain.Quiz, int, error) {
	return c.next.ListPage(ctx, page, size)
}

// DeleteByID drops the cache entry after the backing delete, even when the delete failed.
func (c *QuizCache) DeleteByID(ctx context.Context, id int64) error {
	err := c.next.DeleteByID(ctx, id)
	_, delErr := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tombstoneKey(id), 1, c.tombstoneTTL())
		pipe.Del(ctx, quizKey(id))
		return nil
	})
	if delErr != nil {
		return errors.Join(err, fmt.Errorf("invalidate quiz %d: %w", id, delErr))
	}
	return err
}

func (c *QuizCache) GetByID(ctx context.Context, id int64) (domain.Quiz, bool, error) {
	if quiz, ok := c.lookup(ctx, id); ok {
		return quiz, true, nil
	}

	type loadResult struct {
		quiz domain.Quiz
		ok   bool
	}
	result, err, _ := c.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		// another caller may have filled it while we waited
		if quiz, ok := c.lookup(ctx, id); ok {
			return loadResult{quiz: quiz, ok: true}, nil
		}

		quiz, ok, err := c.next.GetByID(ctx, id)
		if err != nil || !ok {
			return loadResult{}, err
		}

		raw, err := json.Marshal(cachedQuiz{
			ID:      quiz.ID,
			Title:   quiz.Title,
			Text:    quiz.Text,
			Options: quiz.Options,
			Answer:  quiz.Answer,
			Owner:   quiz.Owner,
		})
		if err == nil {
			_ = c.fill(ctx, id, raw)
		}
		return loadResult{quiz: quiz, ok: true}, nil
	})
	if err != nil {
		return domain.Quiz{}, false, err
	}
	res := result.(loadResult)
	return res.quiz, res.ok, nil
}

// lookup treats any Redis failure as a miss so the backing store keeps serving.
func (c *QuizCache) lookup(ctx context.Context, id int64) (domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, quizKey(id)).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var cached cachedQuiz
	if err := json.Unmarshal(raw, &cached); err != nil {
		return domain.Quiz{}, false
	}
	if cached.Answer == nil {
		cached.Answer = []int{}
	}
	return domain.Quiz{
		ID:      cached.ID,
		Title:   cached.Title,
		Text:    cached.Text,
		Options: cached.Options,
		Answer:  cached.Answer,
		Owner:   cached.Owner,
	}, true
}

// fill stores raw unless the quiz was deleted. A tombstone written after the WATCH
// aborts the transaction with redis.TxFailedErr.
func (c *QuizCache) fill(ctx context.Context, id int64, raw []byte) error {
	tomb := tombstoneKey(id)
	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		deleted, err := tx.Exists(ctx, tomb).Result()
		if err != nil || deleted > 0 {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, quizKey(id), raw, c.ttlWithJitter())
			return nil
		})
		return err
	}, tomb)
}

func quizKey(id int64) string {
	return "quiz:" + strconv.FormatInt(id, 10)
}

func tombstoneKey(id int64) string {
	return quizKey(id) + ":deleted"
}

// tombstoneTTL outlives any load that started before the delete.
func (c *QuizCache) tombstoneTTL() time.Duration {
	if c.ttl < time.Minute {
		return time.Minute
	}
	return c.ttl
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
