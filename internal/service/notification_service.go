package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AureRaso/padel-club-api/internal/models"
	"github.com/AureRaso/padel-club-api/internal/notifier"
	"github.com/AureRaso/padel-club-api/pkg/jobs"
)

type outboxRepository interface {
	ListPending(ctx context.Context, limit int) ([]models.NotificationEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

type notificationMetrics interface {
	RecordNotification(kind string, success bool)
}

// NotificationConfig tunes the dispatcher.
type NotificationConfig struct {
	Workers         int
	Retries         int
	DispatchTimeout time.Duration
	PollInterval    time.Duration
	BatchSize       int
}

// NotificationService drains the notification outbox and delivers events
// over the configured channels. Delivery is best-effort and at-least-once;
// it never blocks or fails the workflow that produced the event.
type NotificationService struct {
	outbox   outboxRepository
	channels []notifier.Channel
	metrics  notificationMetrics
	cfg      NotificationConfig
	logger   *zap.Logger

	queue *jobs.Queue
	wake  chan struct{}

	mu       sync.Mutex
	inflight map[string]struct{}
	stop     context.CancelFunc
	done     chan struct{}
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(outbox outboxRepository, channels []notifier.Channel, metrics notificationMetrics, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	s := &NotificationService{
		outbox:   outbox,
		channels: channels,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		inflight: make(map[string]struct{}),
	}
	s.queue = jobs.NewQueue("notifications", s.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the worker queue and the outbox polling loop.
func (s *NotificationService) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.stop = cancel
	s.done = make(chan struct{})
	s.queue.Start(ctx)
	go s.pollLoop(ctx)
}

// Stop drains the dispatcher.
func (s *NotificationService) Stop() {
	if s.stop != nil {
		s.stop()
		<-s.done
	}
	s.queue.Stop()
}

// Wake nudges the poller. Called by the workflows right after committing new
// outbox rows so delivery starts without waiting for the next tick.
func (s *NotificationService) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *NotificationService) pollLoop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.wake:
		}
		s.drain(ctx)
	}
}

// drain enqueues every pending event not already in flight. Events stay
// pending in the outbox until a worker settles them, so a crash before
// delivery is retried on the next poll.
func (s *NotificationService) drain(ctx context.Context) {
	events, err := s.outbox.ListPending(ctx, s.cfg.BatchSize)
	if err != nil {
		s.logger.Warn("list pending notifications", zap.Error(err))
		return
	}
	for _, event := range events {
		s.mu.Lock()
		if _, busy := s.inflight[event.ID]; busy {
			s.mu.Unlock()
			continue
		}
		s.inflight[event.ID] = struct{}{}
		s.mu.Unlock()

		if err := s.queue.Enqueue(jobs.Job{ID: event.ID, Type: string(event.Kind), Payload: event}); err != nil {
			s.release(event.ID)
			s.logger.Warn("enqueue notification", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		s.release(job.ID)
		return nil
	}
	defer s.release(event.ID)

	msg := notifier.Message{
		Kind:           event.Kind,
		RecipientEmail: event.RecipientEmail,
		RecipientName:  event.RecipientName,
		Class:          event.ClassContext(),
	}
	if event.RecipientPhone != nil {
		msg.RecipientPhone = *event.RecipientPhone
	}

	delivered := false
	for _, channel := range s.channels {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
		err := channel.Send(callCtx, msg)
		cancel()
		if err != nil {
			s.logger.Warn("notification delivery failed",
				zap.String("event_id", event.ID),
				zap.String("channel", channel.Name()),
				zap.String("kind", string(event.Kind)),
				zap.Error(err))
			continue
		}
		delivered = true
	}

	if s.metrics != nil {
		s.metrics.RecordNotification(string(event.Kind), delivered)
	}
	if !delivered {
		if err := s.outbox.MarkFailed(ctx, event.ID); err != nil {
			s.logger.Warn("mark notification failed", zap.String("event_id", event.ID), zap.Error(err))
		}
		return nil
	}
	if err := s.outbox.MarkSent(ctx, event.ID); err != nil {
		s.logger.Warn("mark notification sent", zap.String("event_id", event.ID), zap.Error(err))
	}
	return nil
}

func (s *NotificationService) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}
