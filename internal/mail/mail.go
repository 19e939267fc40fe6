package mail

import (
	"context"
	"fmt"
	"log/slog"
)

type Message struct {
	Email   string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a message to one recipient. Implementations are
// fire-and-forget from the caller's point of view: a failed send is logged by
// the caller and never blocks the primary outcome.
type Sender interface {
	SendMessage(ctx context.Context, msg Message) error
}

func Verification(email, name, code string) Message {
	return Message{
		Email:   email,
		Subject: "Confirm your email address",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour verification code is %s. It expires in 30 minutes.\n",
			name, code,
		),
	}
}

func PasswordReset(email, code string) Message {
	return Message{
		Email:   email,
		Subject: "Password reset code",
		Body: fmt.Sprintf(
			"Your password reset code is %s. It expires in 15 minutes.\n\nIf you did not request a reset, ignore this email.\n",
			code,
		),
	}
}

// LogSender is the transport used when no email backend is configured. It
// records the recipient and subject only, never the body with the code in it.
type LogSender struct {
	log *slog.Logger
}

func NewLogSender(log *slog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendMessage(_ context.Context, msg Message) error {
	s.log.Info("email suppressed, no transport configured",
		slog.String("to", msg.Email),
		slog.String("subject", msg.Subject),
	)

	return nil
}
