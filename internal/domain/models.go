package domain

import "time"

// AuthorityUser is the single authority every registered user holds.
const AuthorityUser = "ROLE_USER"

// User is a registered account. The password is only ever held as a bcrypt hash.
type User struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

func (u User) Identifier() string     { return u.Email }
func (u User) CredentialHash() string { return u.PasswordHash }
func (u User) Authority() string      { return AuthorityUser }

// Quiz is a multiple-choice question owned by its creator.
// Answer and Owner never leave the service in JSON form.
type Quiz struct {
	ID      int64    `json:"id"`
	Title   string   `json:"title"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Answer  []int    `json:"-"`
	Owner   string   `json:"-"`
}

// QuizInput is the create payload; the answer is write-only.
type QuizInput struct {
	Title   string   `json:"title" validate:"notblank"`
	Text    string   `json:"text" validate:"notblank"`
	Options []string `json:"options" validate:"required,min=2"`
	Answer  []int    `json:"answer"`
}

// QuizAnswer is the option index sequence submitted by a solver.
type QuizAnswer struct {
	Answer []int `json:"answer"`
}

// Feedback is the grading result returned to a solver.
type Feedback struct {
	Success  bool   `json:"success"`
	Feedback string `json:"feedback"`
}

// Completion records that a user correctly solved a quiz at a point in time.
// Clients see the quiz id under "id".
type Completion struct {
	ID          int64     `json:"-"`
	QuizID      int64     `json:"id"`
	UserEmail   string    `json:"-"`
	CompletedAt time.Time `json:"completedAt"`
}

// Credentials is the email/password pair used for registration and basic auth.
type Credentials struct {
	Email    string `json:"email" validate:"required,email_dotted"`
	Password string `json:"password" validate:"required,min=5"`
}
