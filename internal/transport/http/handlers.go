// Package http exposes the quiz use cases over a chi router.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"quiz-engine/internal/app"
	"quiz-engine/internal/auth"
	"quiz-engine/internal/domain"
	"quiz-engine/internal/logging"
)

type API struct {
	users   *app.UserService
	quizzes *app.QuizService
	gate    *auth.Gate
	log     logging.Logger
}

func NewAPI(users *app.UserService, quizzes *app.QuizService, gate *auth.Gate, log logging.Logger) *API {
	return &API{users: users, quizzes: quizzes, gate: gate, log: log}
}

// Routes builds the full handler tree. An empty allowedOrigins disables CORS headers.
func (a *API) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.log))
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	live := NewLiveHandler(a.quizzes, a.log, allowedOrigins)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", a.register)

		r.Group(func(r chi.Router) {
			r.Use(a.requireUser)
			if a.gate.Tokens() != nil {
				r.Post("/token", a.issueToken)
			}
			r.Route("/quizzes", func(r chi.Router) {
				r.Post("/", a.createQuiz)
				r.Get("/", a.listQuizzes)
				r.Get("/completed", a.listCompletions)
				r.Get("/completed/live", live.ServeWS)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", a.getQuiz)
					r.Delete("/", a.deleteQuiz)
					r.Post("/solve", a.solveQuiz)
				})
			})
		})
	})
	return r
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeJSON(w, r, &creds); err != nil {
		a.writeError(w, r, err)
		return
	}
	user, err := a.users.Register(r.Context(), creds.Email, creds.Password)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) issueToken(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	token, err := a.gate.IssueToken(user)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(a.gate.Tokens().TTL() / time.Second),
	})
}

func (a *API) createQuiz(w http.ResponseWriter, r *http.Request) {
	var input domain.QuizInput
	if err := decodeJSON(w, r, &input); err != nil {
		a.writeError(w, r, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	quiz, err := a.quizzes.CreateQuiz(r.Context(), input, user)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) listQuizzes(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	page, err := a.quizzes.ListQuizzes(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (a *API) getQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := quizID(w, r)
	if !ok {
		return
	}
	quiz, err := a.quizzes.GetQuiz(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) solveQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := quizID(w, r)
	if !ok {
		return
	}
	var answer domain.QuizAnswer
	if err := decodeJSON(w, r, &answer); err != nil {
		a.writeError(w, r, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	feedback, err := a.quizzes.SolveQuiz(r.Context(), id, answer, user)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (a *API) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := quizID(w, r)
	if !ok {
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	if err := a.quizzes.DeleteQuiz(r.Context(), id, user.Email); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listCompletions(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	user, _ := auth.UserFromContext(r.Context())
	page, err := a.quizzes.ListCompletions(r.Context(), user.Email, req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func quizID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid quiz id")
		return 0, false
	}
	return id, true
}

// pageRequest reads page and pageSize, defaulting to the first page of DefaultPageSize.
func pageRequest(r *http.Request) (domain.PageRequest, error) {
	req := domain.NewPageRequest()
	verr := &domain.ValidationError{}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("page", "must be an integer")
		}
		req.Page = n
	}
	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("pageSize", "must be an integer")
		}
		req.Size = n
	}
	return req, verr.OrNil()
}
