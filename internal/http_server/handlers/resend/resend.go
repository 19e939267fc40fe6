package resend

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
	Email string `json:"email" validate:"required,email"`
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
		const op = "handlers.resend.New"

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

		user, err := accounts.UserByEmail(ctx, req.Email)
		if err != nil {
			if errors.Is(err, account.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("user not found"))

				return
			}

			log.Error("failed to look up user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		code, err := accounts.RegenerateCode(ctx, req.Email)
		if err != nil {
			if errors.Is(err, account.ErrAlreadyVerified) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("email already verified"))

				return
			}

			log.Error("failed to regenerate verification code", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		msg := mail.Verification(user.Email, user.Name, code)
		if err := sender.SendMessage(ctx, msg); err != nil {
			log.Error("Failed to send verification email", sl.Err(err))
		}

		log.Info("verification code resent", slog.String("uid", user.ID))

		ResponseOK(w, r)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, Response{
		Response: resp.OK(),
		Message:  "new verification code sent",
	})
}
