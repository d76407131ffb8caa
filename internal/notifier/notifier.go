package notifier

import (
	"context"

	"github.com/AureRaso/padel-club-api/internal/models"
)

// Message is a single delivery request for one recipient.
type Message struct {
	Kind           models.NotificationKind
	RecipientEmail string
	RecipientName  string
	RecipientPhone string
	Class          models.ClassContext
}

// Channel delivers messages over one medium. Implementations must honour the
// context deadline; the dispatcher wraps every call in a timeout.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
