package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/account"
	forgotPassword "github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server/handlers/forgot_password"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server/handlers/login"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server/handlers/logout"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server/handlers/register"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server/handlers/resend"
	resetPassword "github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server/handlers/reset_password"
	validateSession "github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server/handlers/validate_session"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/http_server/handlers/verify"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/mail"
	rateLimit "github.com/chevrutah247/crownheightsgroups-sub001/internal/middleware/ratelimit"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/session"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

func NewRouter(
	log *slog.Logger,
	accounts *account.Manager,
	sessions *session.Manager,
	sender mail.Sender,
	store storage.Store,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	validate := validator.New()

	r.With(rateLimit.Register()).Post("/auth/register",
		register.New(log, validate, accounts, sender),
	)
	r.Post("/auth/verify",
		verify.New(log, validate, accounts, sessions),
	)
	// No server-side limit here, the client enforces a resend cooldown.
	r.Post("/auth/verify/resend",
		resend.New(log, validate, accounts, sender),
	)
	r.With(rateLimit.Login()).Post("/auth/login",
		login.New(log, validate, accounts, sessions),
	)
	r.With(rateLimit.ForgotPassword()).Post("/auth/password/forgot",
		forgotPassword.New(log, validate, accounts, sender),
	)
	r.Post("/auth/password/reset",
		resetPassword.New(log, validate, accounts, sessions),
	)
	r.Post("/auth/session/validate",
		validateSession.New(log, validate, sessions),
	)
	r.Post("/auth/logout",
		logout.New(log, validate, sessions),
	)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
	})

	return r
}
