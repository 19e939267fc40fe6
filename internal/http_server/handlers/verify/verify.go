package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/account"
	resp "github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/api/response"
	sl "github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/logger"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/models"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/session"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// Verification doubles as the first login: a successful code check returns a
// session token alongside the profile.
type Response struct {
	resp.Response
	Token string         `json:"token"`
	User  models.Profile `json:"user"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	accounts *account.Manager,
	sessions *session.Manager,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		user, err := accounts.VerifyUser(ctx, req.Email, req.Code)
		if err != nil {
			switch {
			case errors.Is(err, account.ErrUserNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("user not found"))
			case errors.Is(err, account.ErrAlreadyVerified):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("email already verified"))
			case errors.Is(err, account.ErrNoPendingCode):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("no verification code outstanding, request a new one"))
			case errors.Is(err, account.ErrCodeExpired):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("verification code expired, request a new one"))
			case errors.Is(err, account.ErrCodeMismatch):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("invalid verification code"))
			default:
				log.Error("failed to verify user", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		token, err := sessions.Create(ctx, user.Email)
		if err != nil {
			log.Error("failed to create session", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("email verified successfully", slog.String("uid", user.ID))

		ResponseOK(w, r, token, user.Profile())
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, token string, user models.Profile) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Token:    token,
		User:     user,
	})
}
