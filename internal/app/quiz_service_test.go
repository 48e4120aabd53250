package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"quiz-engine/internal/app"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/infra/memory"
	"quiz-engine/internal/logging"
)

var (
	alice = domain.User{Email: "alice@example.com"}
	bob   = domain.User{Email: "bob@example.com"}
)

func capitals() domain.QuizInput {
	return domain.QuizInput{
		Title:   "Capitals",
		Text:    "Pick the capital of France",
		Options: []string{"Paris", "London", "Berlin"},
		Answer:  []int{0},
	}
}

func TestSolveScenario(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	quiz, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)

	fb, err := service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{0}}, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.Feedback{Success: true, Feedback: "Congratulations, you're right!"}, fb)

	fb, err = service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{1}}, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.Feedback{Success: false, Feedback: "Wrong answer! Please, try again."}, fb)

	page, err := service.ListCompletions(ctx, bob.Email, domain.NewPageRequest())
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalElements)
	assert.Equal(t, quiz.ID, page.Content[0].QuizID)
}

func TestGradingIsOrderSensitive(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	input := capitals()
	input.Options = []string{"a", "b", "c"}
	input.Answer = []int{0, 2}
	quiz, err := service.CreateQuiz(ctx, input, alice)
	require.NoError(t, err)

	cases := []struct {
		answer []int
		want   bool
	}{
		{[]int{0, 2}, true},
		{[]int{2, 0}, false},
		{[]int{0}, false},
		{[]int{0, 2, 2}, false},
		{nil, false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprint(tc.answer), func(t *testing.T) {
			fb, err := service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: tc.answer}, bob)
			require.NoError(t, err)
			assert.Equal(t, tc.want, fb.Success)
		})
	}
}

func TestEmptyAnswerMatchesMissingAnswer(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	input := capitals()
	input.Answer = nil
	quiz, err := service.CreateQuiz(ctx, input, alice)
	require.NoError(t, err)

	fb, err := service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{}, bob)
	require.NoError(t, err)
	assert.True(t, fb.Success)

	fb, err = service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{}}, bob)
	require.NoError(t, err)
	assert.True(t, fb.Success)

	fb, err = service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{0}}, bob)
	require.NoError(t, err)
	assert.False(t, fb.Success)
}

func TestWrongAnswerNeverRecords(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	quiz, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		fb, err := service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{2}}, bob)
		require.NoError(t, err)
		assert.False(t, fb.Success)
	}

	page, err := service.ListCompletions(ctx, bob.Email, domain.NewPageRequest())
	require.NoError(t, err)
	assert.Zero(t, page.TotalElements)
	assert.True(t, page.Empty)
}

func TestRepeatedCorrectSolvesAreAllRecorded(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	quiz, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{0}}, bob)
		require.NoError(t, err)
	}

	page, err := service.ListCompletions(ctx, bob.Email, domain.NewPageRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalElements)
}

func TestCompletionsMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	db := memory.NewDatabase()
	service := app.NewQuizServiceWithClock(
		memory.NewQuizRepository(db), memory.NewCompletionRepository(db), nil, logging.Nop(),
		func() time.Time { now = now.Add(time.Minute); return now },
	)

	first, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)
	second, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)

	_, err = service.SolveQuiz(ctx, first.ID, domain.QuizAnswer{Answer: []int{0}}, bob)
	require.NoError(t, err)
	_, err = service.SolveQuiz(ctx, second.ID, domain.QuizAnswer{Answer: []int{0}}, bob)
	require.NoError(t, err)

	page, err := service.ListCompletions(ctx, bob.Email, domain.NewPageRequest())
	require.NoError(t, err)
	require.Len(t, page.Content, 2)
	assert.Equal(t, second.ID, page.Content[0].QuizID)
	assert.Equal(t, first.ID, page.Content[1].QuizID)
	assert.True(t, page.Content[0].CompletedAt.After(page.Content[1].CompletedAt))
}

func TestSolveUnknownQuiz(t *testing.T) {
	service, _ := newTestService()
	_, err := service.SolveQuiz(context.Background(), 404, domain.QuizAnswer{Answer: []int{0}}, bob)
	require.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestCreateQuizValidation(t *testing.T) {
	service, _ := newTestService()

	input := capitals()
	input.Title = " "
	input.Options = []string{"only"}
	input.Answer = nil
	_, err := service.CreateQuiz(context.Background(), input, alice)
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "options")

	page, err := service.ListQuizzes(context.Background(), domain.NewPageRequest())
	require.NoError(t, err)
	assert.Zero(t, page.TotalElements, "nothing stored on validation failure")
}

func TestAnswerNeverExposed(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	created, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)
	fetched, err := service.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	listed, err := service.ListQuizzes(ctx, domain.NewPageRequest())
	require.NoError(t, err)

	for _, v := range []any{created, fetched, listed} {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "answer")
		assert.NotContains(t, string(raw), alice.Email)
	}
}

func TestDeleteByOwnerCascades(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	quiz, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)
	other, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)
	for _, id := range []int64{quiz.ID, other.ID} {
		_, err = service.SolveQuiz(ctx, id, domain.QuizAnswer{Answer: []int{0}}, bob)
		require.NoError(t, err)
	}

	require.NoError(t, service.DeleteQuiz(ctx, quiz.ID, alice.Email))

	_, err = service.GetQuiz(ctx, quiz.ID)
	require.ErrorIs(t, err, domain.ErrQuizNotFound)

	page, err := service.ListCompletions(ctx, bob.Email, domain.NewPageRequest())
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalElements)
	assert.Equal(t, other.ID, page.Content[0].QuizID)

	require.ErrorIs(t, service.DeleteQuiz(ctx, quiz.ID, alice.Email), domain.ErrQuizNotFound)
}

func TestDeleteByNonOwnerIsForbidden(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	quiz, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)
	_, err = service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{0}}, bob)
	require.NoError(t, err)

	err = service.DeleteQuiz(ctx, quiz.ID, bob.Email)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = service.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	page, err := service.ListCompletions(ctx, bob.Email, domain.NewPageRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalElements)
}

func TestListQuizzesPagesWithoutGaps(t *testing.T) {
	ctx := context.Background()

	for _, total := range []int{0, 1, 10, 11, 47} {
		t.Run(fmt.Sprint(total), func(t *testing.T) {
			service, _ := newTestService()
			want := make([]int64, 0, total)
			for i := 0; i < total; i++ {
				q, err := service.CreateQuiz(ctx, capitals(), alice)
				require.NoError(t, err)
				want = append(want, q.ID)
			}

			for _, size := range []int{10, 13, 30} {
				var got []int64
				for p := 0; ; p++ {
					page, err := service.ListQuizzes(ctx, domain.PageRequest{Page: p, Size: size})
					require.NoError(t, err)
					assert.Equal(t, total, page.TotalElements)
					for _, q := range page.Content {
						got = append(got, q.ID)
					}
					if page.Last {
						break
					}
				}
				assert.Equal(t, want, append([]int64{}, got...), "size %d", size)
			}
		})
	}
}

func TestListRejectsBadPageSize(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	_, err := service.ListQuizzes(ctx, domain.PageRequest{Page: 0, Size: 5})
	require.ErrorIs(t, err, domain.ErrValidationFailed)
	_, err = service.ListQuizzes(ctx, domain.PageRequest{Page: -1, Size: 10})
	require.ErrorIs(t, err, domain.ErrValidationFailed)
	_, err = service.ListCompletions(ctx, bob.Email, domain.PageRequest{Page: 0, Size: 31})
	require.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestSolvePublishesToFeed(t *testing.T) {
	ctx := context.Background()
	service, feed := newTestService()
	quiz, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)

	ch, cancel := service.SubscribeCompletions(bob.Email)
	defer cancel()
	require.Equal(t, 1, feed.Subscribers(bob.Email))

	_, err = service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{1}}, bob)
	require.NoError(t, err)
	_, err = service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{0}}, bob)
	require.NoError(t, err)

	select {
	case c := <-ch:
		assert.Equal(t, quiz.ID, c.QuizID)
		assert.Equal(t, bob.Email, c.UserEmail)
	case <-time.After(time.Second):
		t.Fatal("expected a completion on the feed")
	}
	select {
	case c := <-ch:
		t.Fatalf("wrong answer must not publish, got %+v", c)
	default:
	}
}

func newTestService() (*app.QuizService, *app.CompletionFeed) {
	db := memory.NewDatabase()
	feed := app.NewCompletionFeed()
	quizzes := memory.NewQuizCache(memory.NewQuizRepository(db), 5*time.Minute)
	return app.NewQuizService(quizzes, memory.NewCompletionRepository(db), feed, logging.Nop()), feed
}

func TestListPastTheEnd(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	quiz, err := service.CreateQuiz(ctx, capitals(), alice)
	require.NoError(t, err)
	_, err = service.SolveQuiz(ctx, quiz.ID, domain.QuizAnswer{Answer: []int{0}}, bob)
	require.NoError(t, err)

	for _, p := range []int{1, 1 << 62, math.MaxInt} {
		quizzes, err := service.ListQuizzes(ctx, domain.PageRequest{Page: p, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, quizzes.Content)
		assert.Equal(t, 1, quizzes.TotalElements)
		assert.True(t, quizzes.Last)

		done, err := service.ListCompletions(ctx, bob.Email, domain.PageRequest{Page: p, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, done.Content)
		assert.Equal(t, 1, done.TotalElements)
	}
}
