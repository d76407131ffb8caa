package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Table names consumers subscribe to for cache invalidation.
const (
	TableClassWaitlist     = "class_waitlist"
	TableClassParticipants = "class_participants"
)

const channelPrefix = "realtime:"

// Change describes a table-level mutation consumers react to by refreshing
// their view of the affected occurrence.
type Change struct {
	Table     string    `json:"table"`
	ClassID   string    `json:"class_id,omitempty"`
	ClassDate string    `json:"class_date,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher broadcasts change events over Redis pub/sub. Delivery is
// best-effort: a failed publish is logged and never fails the caller.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher constructs a Publisher.
func NewPublisher(client *redis.Client, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, logger: logger}
}

// Publish announces a change on the table's channel.
func (p *Publisher) Publish(ctx context.Context, table, classID string, classDate time.Time) {
	if p == nil || p.client == nil {
		return
	}
	change := Change{
		Table:     table,
		ClassID:   classID,
		ClassDate: classDate.Format("2006-01-02"),
		At:        time.Now().UTC(),
	}
	payload, err := json.Marshal(change)
	if err != nil {
		p.logger.Warn("marshal realtime change", zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, channelPrefix+table, payload).Err(); err != nil {
		p.logger.Warn("publish realtime change",
			zap.String("table", table),
			zap.String("class_id", classID),
			zap.Error(err))
	}
}
