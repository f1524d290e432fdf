package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oggyb/exotel-gateway/internal/cache"
	domain "github.com/oggyb/exotel-gateway/internal/domain/message"
	"github.com/oggyb/exotel-gateway/internal/sms"
	"github.com/oggyb/exotel-gateway/pkg/exotel"
	"go.uber.org/zap"
)

// sentStampTTL is how long the SID -> sent-at stamp stays in the cache.
const sentStampTTL = 24 * time.Hour

// persistTimeout bounds the status write that follows a send, even when the
// send itself used up the per-message deadline.
const persistTimeout = 5 * time.Second

type MessageService interface {
	Enqueue(ctx context.Context, in EnqueueInput) (*domain.Message, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	List(ctx context.Context, status domain.Status, page, limit int) ([]*domain.Message, int64, error)
	SMSDetails(ctx context.Context, sid string) (exotel.Resource, error)
	ProcessBatch(ctx context.Context) error
}

// EnqueueInput is a message to put in the outbox. An empty From falls back
// to the configured default sender.
type EnqueueInput struct {
	From     string
	To       string
	Body     string
	Priority string
}

// SMSDetailsFetcher looks up an SMS at the provider. *exotel.Client satisfies it.
type SMSDetailsFetcher interface {
	SMSDetails(ctx context.Context, sid string) (exotel.Resource, error)
}

// OutboxObserver is told how each message and batch went. *metrics.Metrics satisfies it.
type OutboxObserver interface {
	ObserveOutbox(result string)
	ObserveBatch(size int)
}

// MessageOptions carries batch settings from config. Zero values get defaults.
type MessageOptions struct {
	BatchSize         int
	MaxWorkers        int
	PerMessageTimeout time.Duration
	DefaultSender     string
	DetailsTTL        time.Duration
}

type messageService struct {
	repo      domain.Repository
	smsClient sms.Client
	details   SMSDetailsFetcher
	cache     cache.Cache
	observer  OutboxObserver
	log       *zap.Logger

	batchSize         int
	maxWorkers        int
	perMessageTimeout time.Duration
	defaultSender     string
	detailsTTL        time.Duration
}

// NewMessageService wires the outbox. cache and observer may be nil.
func NewMessageService(
	repo domain.Repository,
	smsClient sms.Client,
	details SMSDetailsFetcher,
	c cache.Cache,
	observer OutboxObserver,
	log *zap.Logger,
	opts MessageOptions,
) MessageService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 4
	}
	if opts.PerMessageTimeout <= 0 {
		opts.PerMessageTimeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &messageService{
		repo:              repo,
		smsClient:         smsClient,
		details:           details,
		cache:             c,
		observer:          observer,
		log:               log.With(zap.String("component", "outbox")),
		batchSize:         opts.BatchSize,
		maxWorkers:        opts.MaxWorkers,
		perMessageTimeout: opts.PerMessageTimeout,
		defaultSender:     opts.DefaultSender,
		detailsTTL:        opts.DetailsTTL,
	}
}

func (s *messageService) Enqueue(ctx context.Context, in EnqueueInput) (*domain.Message, error) {
	from := in.From
	if from == "" {
		from = s.defaultSender
	}

	msg, err := domain.NewMessage(from, in.To, in.Body, in.Priority)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	s.log.Info("message queued", zap.String("id", msg.ID.String()), zap.String("to", msg.To))
	return msg, nil
}

func (s *messageService) Get(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *messageService) List(ctx context.Context, status domain.Status, page, limit int) ([]*domain.Message, int64, error) {
	return s.repo.List(ctx, status, page, limit)
}

// SMSDetails asks Exotel for the SMS, reading through the cache when a TTL
// is configured.
func (s *messageService) SMSDetails(ctx context.Context, sid string) (exotel.Resource, error) {
	useCache := s.cache != nil && s.detailsTTL > 0 && sid != ""
	key := cache.SMSDetails.Key(sid)

	if useCache {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			if res, jErr := decodeResource(raw); jErr == nil {
				return res, nil
			}
		case !errors.Is(err, cache.ErrMiss):
			s.log.Warn("details cache read failed", zap.String("sid", sid), zap.Error(err))
		}
	}

	res, err := s.details.SMSDetails(ctx, sid)
	if err != nil {
		return nil, err
	}

	if useCache {
		if raw, jErr := json.Marshal(res); jErr == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.detailsTTL); err != nil {
				s.log.Warn("details cache write failed", zap.String("sid", sid), zap.Error(err))
			}
		}
	}
	return res, nil
}

// ProcessBatch pulls a batch of pending messages and sends them with a small
// worker pool. When Exotel answers 429 the remaining messages of the batch
// are left alone until the next tick.
func (s *messageService) ProcessBatch(ctx context.Context) error {
	messages, err := s.repo.GetPending(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending messages: %w", err)
	}
	if s.observer != nil {
		s.observer.ObserveBatch(len(messages))
	}

	if len(messages) == 0 {
		s.log.Debug("no pending messages")
		return nil
	}

	workerCount := len(messages)
	if workerCount > s.maxWorkers {
		workerCount = s.maxWorkers
	}

	s.log.Info("processing batch",
		zap.Int("messages", len(messages)),
		zap.Int("workers", workerCount),
	)

	var (
		wg        sync.WaitGroup
		throttled atomic.Bool
	)

	// Worker w handles indices w, w+workerCount, w+2*workerCount, ...
	for w := 0; w < workerCount; w++ {
		wg.Add(1)

		go func(workerID, start int) {
			defer wg.Done()
			wlog := s.log.With(zap.Int("worker", workerID))

			for i := start; i < len(messages); i += workerCount {
				if ctx.Err() != nil {
					wlog.Info("context cancelled, stopping worker")
					return
				}
				if throttled.Load() {
					return
				}

				msg := messages[i]
				msgCtx, cancel := context.WithTimeout(ctx, s.perMessageTimeout)
				if err := s.processMessage(msgCtx, msg); err != nil {
					if exotel.IsRateLimited(err) {
						throttled.Store(true)
					}
					wlog.Warn("message not sent", zap.String("id", msg.ID.String()), zap.Error(err))
				}
				cancel()
			}
		}(w+1, w)
	}

	wg.Wait()

	if throttled.Load() {
		s.log.Warn("exotel rate limit hit, rest of batch deferred")
	}
	return nil
}

// processMessage sends one message and persists the outcome:
//   - accepted: SENT, and the sent-at stamp is cached by SID;
//   - 429 or transport failure: stays PENDING for the next tick;
//   - rejected by Exotel or by validation: FAILED.
func (s *messageService) processMessage(ctx context.Context, msg *domain.Message) error {
	id := msg.ID.String()

	rec, sendErr := s.smsClient.Send(ctx, msg.From, msg.To, msg.Body, msg.Priority)

	result := "sent"
	switch {
	case sendErr == nil:
		msg.MarkSent(rec.SID, rec.Status, rec.Raw)
	case isPermanent(sendErr):
		result = "failed"
		msg.MarkFailed(failureReason(sendErr))
	default:
		result = "retry"
		msg.MarkRetry(sendErr.Error())
	}
	if s.observer != nil {
		s.observer.ObserveOutbox(result)
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.repo.UpdateStatus(pctx, msg); err != nil {
		s.log.Error("failed to persist status",
			zap.String("id", id), zap.String("status", string(msg.Status)), zap.Error(err))
		if sendErr == nil {
			return fmt.Errorf("update status for %s: %w", id, err)
		}
	}

	if sendErr != nil {
		return fmt.Errorf("send message %s: %w", id, sendErr)
	}

	s.log.Info("message sent", zap.String("id", id), zap.String("sid", rec.SID))

	if s.cache != nil && rec.SID != "" {
		key := cache.SentMessages.Key(rec.SID)
		if err := s.cache.Set(pctx, key, msg.SentAt.Format(time.RFC3339), sentStampTTL); err != nil {
			s.log.Warn("failed to cache sent stamp", zap.String("sid", rec.SID), zap.Error(err))
		}
	}
	return nil
}

// decodeResource keeps numbers as json.Number, the way the exotel client
// returns them.
func decodeResource(raw string) (exotel.Resource, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var res exotel.Resource
	if err := dec.Decode(&res); err != nil {
		return nil, err
	}
	return res, nil
}

// isPermanent is true for errors a retry cannot fix.
func isPermanent(err error) bool {
	var (
		perr *exotel.ProviderError
		derr *exotel.DecodeError
	)
	switch {
	case exotel.IsRateLimited(err):
		return false
	case errors.As(err, &perr):
		return true
	case errors.Is(err, exotel.ErrInsufficientParameters):
		return true
	case errors.As(err, &derr):
		// Exotel said 200; resending could duplicate the SMS.
		return true
	}
	return false
}

func failureReason(err error) string {
	var perr *exotel.ProviderError
	if errors.As(err, &perr) {
		return perr.Message
	}
	return err.Error()
}
