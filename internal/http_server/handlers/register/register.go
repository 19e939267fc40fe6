package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/account"
	resp "github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/api/response"
	sl "github.com/chevrutah247/crownheightsgroups-sub001/internal/lib/logger"
	"github.com/chevrutah247/crownheightsgroups-sub001/internal/mail"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type Response struct {
	resp.Response
	Message string `json:"message"`
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	accounts *account.Manager,
	sender mail.Sender,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		existing, err := accounts.UserByEmail(ctx, req.Email)
		if err == nil {
			if existing.IsVerified {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("email already registered"))

				return
			}

			render.Status(r, http.StatusConflict)
			render.JSON(w, r, resp.Error("email already registered but not verified, request a new code"))

			return
		}
		if !errors.Is(err, account.ErrUserNotFound) {
			log.Error("failed to look up user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		user, err := accounts.CreateUser(ctx, req.Email, req.Password, req.Name)
		if err != nil {
			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User registered", slog.String("id", user.ID))

		msg := mail.Verification(user.Email, user.Name, user.VerificationCode)
		if err := sender.SendMessage(ctx, msg); err != nil {
			log.Error("Failed to send verification email", sl.Err(err))
		}

		ResponseOK(w, r)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Message:  "verification code sent",
	})
}
