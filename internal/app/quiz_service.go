package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"quiz-engine/internal/domain"
	"quiz-engine/internal/logging"
)

const (
	correctFeedback = "Congratulations, you're right!"
	wrongFeedback   = "Wrong answer! Please, try again."
)

// QuizService contains the core quiz use cases.
type QuizService struct {
	quizzes     QuizRepository
	completions CompletionRepository
	feed        *CompletionFeed
	log         logging.Logger
	now         func() time.Time
}

// NewQuizService wires the quiz use cases. feed may be nil when nobody listens for completions.
func NewQuizService(quizzes QuizRepository, completions CompletionRepository, feed *CompletionFeed, log logging.Logger) *QuizService {
	return NewQuizServiceWithClock(quizzes, completions, feed, log, time.Now)
}

// NewQuizServiceWithClock is used by tests for deterministic completion timestamps.
func NewQuizServiceWithClock(quizzes QuizRepository, completions CompletionRepository, feed *CompletionFeed, log logging.Logger, now func() time.Time) *QuizService {
	return &QuizService{quizzes: quizzes, completions: completions, feed: feed, log: log, now: now}
}

// CreateQuiz validates the input and stores it owned by caller.
func (s *QuizService) CreateQuiz(ctx context.Context, input domain.QuizInput, caller domain.User) (domain.Quiz, error) {
	if err := domain.ValidateQuizInput(input); err != nil {
		return domain.Quiz{}, err
	}

	answer := input.Answer
	if answer == nil {
		answer = []int{}
	}
	quiz, err := s.quizzes.Create(ctx, domain.Quiz{
		Title:   input.Title,
		Text:    input.Text,
		Options: slices.Clone(input.Options),
		Answer:  slices.Clone(answer),
		Owner:   caller.Email,
	})
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	s.log.Info(ctx, "quiz created", "quiz_id", quiz.ID, "owner", quiz.Owner)
	return quiz, nil
}

// ListQuizzes returns one page of quizzes ordered by id.
func (s *QuizService) ListQuizzes(ctx context.Context, req domain.PageRequest) (domain.Page[domain.Quiz], error) {
	if err := req.Validate(); err != nil {
		return domain.Page[domain.Quiz]{}, err
	}
	items, total, err := s.quizzes.ListPage(ctx, req.Page, req.Size)
	if err != nil {
		return domain.Page[domain.Quiz]{}, fmt.Errorf("list quizzes: %w", err)
	}
	return domain.NewPage(items, req, total), nil
}

// GetQuiz returns domain.ErrQuizNotFound when id is unknown.
func (s *QuizService) GetQuiz(ctx context.Context, id int64) (domain.Quiz, error) {
	quiz, ok, err := s.quizzes.GetByID(ctx, id)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("get quiz %d: %w", id, err)
	}
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// SolveQuiz grades the answer and, only when it is correct, records a completion for caller.
func (s *QuizService) SolveQuiz(ctx context.Context, id int64, answer domain.QuizAnswer, caller domain.User) (domain.Feedback, error) {
	quiz, err := s.GetQuiz(ctx, id)
	if err != nil {
		return domain.Feedback{}, err
	}

	if !gradeAnswer(quiz.Answer, answer.Answer) {
		return domain.Feedback{Success: false, Feedback: wrongFeedback}, nil
	}

	completion, err := s.completions.Record(ctx, caller.Email, quiz.ID, s.now().UTC())
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("record completion: %w", err)
	}
	s.log.Debug(ctx, "quiz solved", "quiz_id", quiz.ID, "user", caller.Email)
	if s.feed != nil {
		s.feed.Publish(completion)
	}
	return domain.Feedback{Success: true, Feedback: correctFeedback}, nil
}

// DeleteQuiz removes the quiz and its completions if callerEmail owns it.
func (s *QuizService) DeleteQuiz(ctx context.Context, id int64, callerEmail string) error {
	quiz, err := s.GetQuiz(ctx, id)
	if err != nil {
		return err
	}
	if quiz.Owner != callerEmail {
		s.log.Warn(ctx, "quiz delete denied", "quiz_id", id, "caller", callerEmail)
		return domain.ErrForbidden
	}
	if err := s.quizzes.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete quiz %d: %w", id, err)
	}
	s.log.Info(ctx, "quiz deleted", "quiz_id", id, "owner", callerEmail)
	return nil
}

// ListCompletions returns the caller's completions, most recent first.
func (s *QuizService) ListCompletions(ctx context.Context, callerEmail string, req domain.PageRequest) (domain.Page[domain.Completion], error) {
	if err := req.Validate(); err != nil {
		return domain.Page[domain.Completion]{}, err
	}
	items, total, err := s.completions.ListPageForUser(ctx, callerEmail, req.Page, req.Size)
	if err != nil {
		return domain.Page[domain.Completion]{}, fmt.Errorf("list completions: %w", err)
	}
	return domain.NewPage(items, req, total), nil
}

// SubscribeCompletions streams new completions recorded for email.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) SubscribeCompletions(email string) (<-chan domain.Completion, func()) {
	if s.feed == nil {
		ch := make(chan domain.Completion)
		close(ch)
		return ch, func() {}
	}
	return s.feed.Subscribe(email)
}

// gradeAnswer compares the index sequences exactly: same length, same values, same order.
// A missing answer is the empty sequence.
func gradeAnswer(stored, submitted []int) bool {
	return slices.Equal(stored, submitted)
}
