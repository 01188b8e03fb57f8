package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	gomail "gopkg.in/gomail.v2"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for transactional mail.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes one outgoing message.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// Mailer delivers queued mail over SMTP. Without a dialer it logs the message
// instead, so local runs work without a relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

// NewMailer builds a Mailer for the given relay. An empty host disables
// delivery.
func NewMailer(host string, port int, from string, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Mailer{from: from, logger: logger}
	if host != "" {
		m.dialer = gomail.NewDialer(host, port, "", "")
	}
	return m
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return m.send(payload)
}

func (m *Mailer) send(payload SendEmailPayload) error {
	if m == nil || m.dialer == nil {
		logger := slog.Default()
		if m != nil && m.logger != nil {
			logger = m.logger
		}
		logger.Info("mail dry run",
			slog.String("to", payload.To), slog.String("subject", payload.Subject))
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", payload.To)
	msg.SetHeader("Subject", payload.Subject)
	msg.SetBody("text/plain", payload.Body)
	return m.dialer.DialAndSend(msg)
}
