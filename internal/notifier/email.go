package notifier

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"

	"github.com/AureRaso/padel-club-api/internal/models"
)

// EmailChannel delivers waitlist notifications through the Resend API.
type EmailChannel struct {
	client *resend.Client
	from   string
	logger *zap.Logger
}

// NewEmailChannel constructs an EmailChannel.
func NewEmailChannel(apiKey, from string, logger *zap.Logger) *EmailChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailChannel{client: resend.NewClient(apiKey), from: from, logger: logger}
}

// Name implements Channel.
func (c *EmailChannel) Name() string { return "email" }

// Send implements Channel.
func (c *EmailChannel) Send(ctx context.Context, msg Message) error {
	subject, html := renderEmail(msg)
	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{msg.RecipientEmail},
		Subject: subject,
		Html:    html,
	}
	sent, err := c.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	c.logger.Info("email sent",
		zap.String("message_id", sent.Id),
		zap.String("to", msg.RecipientEmail),
		zap.String("kind", string(msg.Kind)))
	return nil
}

// renderEmail builds the subject and HTML body for a message. Expired entries
// reuse the rejection wording: from the student's perspective the spot was
// filled by someone else.
func renderEmail(msg Message) (string, string) {
	when := fmt.Sprintf("%s a las %s", msg.Class.ClassDate, msg.Class.ClassTime)
	switch msg.Kind {
	case models.NotificationWaitlistAccepted:
		subject := fmt.Sprintf("Plaza confirmada en %s", msg.Class.ClassName)
		html := fmt.Sprintf(
			`<p>Hola %s,</p><p>Se ha liberado una plaza y has sido aceptado en la clase <strong>%s</strong> (%s) el %s.</p><p>¡Te esperamos en %s!</p>`,
			msg.RecipientName, msg.Class.ClassName, msg.Class.ClubName, when, msg.Class.ClubName)
		return subject, html
	default:
		subject := fmt.Sprintf("Lista de espera de %s", msg.Class.ClassName)
		html := fmt.Sprintf(
			`<p>Hola %s,</p><p>La plaza de la clase <strong>%s</strong> (%s) del %s ya ha sido cubierta.</p><p>Tu solicitud en lista de espera ha quedado cerrada.</p>`,
			msg.RecipientName, msg.Class.ClassName, msg.Class.ClubName, when)
		return subject, html
	}
}
