package smtp

import (
	"context"

	"github.com/chevrutah247/crownheightsgroups-sub001/internal/mail"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func New(host string, port int, username, password, from string) *Mailer {
	if from == "" {
		from = username
	}

	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *Mailer) SendMessage(_ context.Context, msg mail.Message) error {
	message := gomail.NewMessage()
	message.SetHeader("To", msg.Email)
	message.SetHeader("From", m.from)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.Body)

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)

	return dialer.DialAndSend(message)
}
