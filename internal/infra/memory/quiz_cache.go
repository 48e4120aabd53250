package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
)

// QuizCache is a read-through cache in front of an app.QuizRepository.
// Only GetByID is cached; deletes invalidate the entry.
type QuizCache struct {
	next  app.QuizRepository
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu      sync.RWMutex
	rndMu   sync.Mutex
	cache   map[int64]cachedQuiz
	version uint64
}

type cachedQuiz struct {
	quiz      domain.Quiz
	expiresAt time.Time
}

type loadResult struct {
	quiz domain.Quiz
	ok   bool
}

func NewQuizCache(next app.QuizRepository, ttl time.Duration) *QuizCache {
	return &QuizCache{
		next:  next,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[int64]cachedQuiz),
	}
}

func (c *QuizCache) Create(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	return c.next.Create(ctx, quiz)
}

func (c *QuizCache) ListPage(ctx context.Context, page, size int) ([]domain.Quiz, int, error) {
	return c.next.ListPage(ctx, page, size)
}

func (c *QuizCache) DeleteByID(ctx context.Context, id int64) error {
	err := c.next.DeleteByID(ctx, id)
	c.mu.Lock()
	delete(c.cache, id)
	c.version++
	c.mu.Unlock()
	return err
}

func (c *QuizCache) GetByID(ctx context.Context, id int64) (domain.Quiz, bool, error) {
	if quiz, ok := c.lookup(id); ok {
		return cloneQuiz(quiz), true, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		if quiz, ok := c.lookup(id); ok {
			return loadResult{quiz: quiz, ok: true}, nil
		}

		c.mu.RLock()
		version := c.version
		c.mu.RUnlock()

		quiz, ok, err := c.next.GetByID(ctx, id)
		if err != nil || !ok {
			return loadResult{}, err
		}

		c.mu.Lock()
		// a delete that raced with the load must not be undone
		if c.version == version {
			c.cache[id] = cachedQuiz{quiz: quiz, expiresAt: c.clock().Add(c.ttlWithJitter())}
		}
		c.mu.Unlock()
		return loadResult{quiz: quiz, ok: true}, nil
	})
	if err != nil {
		return domain.Quiz{}, false, err
	}
	res := result.(loadResult)
	return cloneQuiz(res.quiz), res.ok, nil
}

func (c *QuizCache) lookup(id int64) (domain.Quiz, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(now) {
		return domain.Quiz{}, false
	}
	return entry.quiz, true
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
