package notifier

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/AureRaso/padel-club-api/internal/models"
)

// WhatsAppChannel delivers waitlist notifications as WhatsApp text messages
// through a linked device session. The device store lives in a local sqlite
// database under dataDir; the session must be linked out of band.
type WhatsAppChannel struct {
	client *whatsmeow.Client
	logger *zap.Logger
}

// NewWhatsAppChannel builds the channel from a persisted device store.
func NewWhatsAppChannel(ctx context.Context, dataDir string, logger *zap.Logger) (*WhatsAppChannel, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s/whatsmeow.db?_foreign_keys=on", dataDir), nil)
	if err != nil {
		return nil, fmt.Errorf("open whatsapp device store: %w", err)
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load whatsapp device: %w", err)
	}
	client := whatsmeow.NewClient(device, nil)
	if client.Store.ID == nil {
		return nil, fmt.Errorf("whatsapp device not linked")
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connect whatsapp: %w", err)
	}
	return &WhatsAppChannel{client: client, logger: logger}, nil
}

// Name implements Channel.
func (c *WhatsAppChannel) Name() string { return "whatsapp" }

// Send implements Channel. Messages without a phone number are skipped.
func (c *WhatsAppChannel) Send(ctx context.Context, msg Message) error {
	phone := NormalizePhone(msg.RecipientPhone)
	if phone == "" {
		return nil
	}
	jid := types.NewJID(phone, types.DefaultUserServer)
	text := renderWhatsApp(msg)
	_, err := c.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return fmt.Errorf("whatsapp send failed: %w", err)
	}
	c.logger.Info("whatsapp sent",
		zap.String("to", phone),
		zap.String("kind", string(msg.Kind)))
	return nil
}

// Disconnect closes the WhatsApp session.
func (c *WhatsAppChannel) Disconnect() {
	if c != nil && c.client != nil {
		c.client.Disconnect()
	}
}

// NormalizePhone strips formatting and applies the Spanish country code to
// national numbers.
func NormalizePhone(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	phone := digits.String()
	if len(phone) == 9 && (strings.HasPrefix(phone, "6") || strings.HasPrefix(phone, "7")) {
		phone = "34" + phone
	}
	return phone
}

func renderWhatsApp(msg Message) string {
	when := fmt.Sprintf("%s %s", msg.Class.ClassDate, msg.Class.ClassTime)
	if msg.Kind == models.NotificationWaitlistAccepted {
		return fmt.Sprintf("Hola %s, se ha liberado una plaza: estás dentro de %s (%s) el %s.",
			msg.RecipientName, msg.Class.ClassName, msg.Class.ClubName, when)
	}
	return fmt.Sprintf("Hola %s, la plaza de %s (%s) del %s ya ha sido cubierta.",
		msg.RecipientName, msg.Class.ClassName, msg.Class.ClubName, when)
}
